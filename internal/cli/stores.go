package cli

import (
	"fmt"
	"os"

	"github.com/roach88/freight/internal/config"
	"github.com/roach88/freight/internal/store"
)

// loadDefinitions reads a definition file. A missing file is a command
// error; an invalid one is a failure.
func loadDefinitions(f *OutputFormatter, path string) (*config.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, CodeLoad, fmt.Sprintf("definition file not found: %s", path), err)
	}
	defs, err := config.Load(path)
	if err != nil {
		return nil, f.Fail(ExitFailure, CodeLoad, "invalid definition file", err)
	}
	return defs, nil
}

// fleet is every store of one definition file, in file order.
type fleet struct {
	stores map[string]*store.Store
	order  []string
}

// buildFleet creates the stores of defs. opts are applied after the
// file's own options.
func buildFleet(defs *config.File, opts ...store.Option) (*fleet, error) {
	cfgs, err := defs.Configs()
	if err != nil {
		return nil, err
	}

	fl := &fleet{stores: make(map[string]*store.Store, len(cfgs))}
	for _, cfg := range cfgs {
		all := append(defs.Options(), opts...)
		s, err := store.New(cfg, all...)
		if err != nil {
			fl.close()
			return nil, err
		}
		fl.stores[s.Name()] = s
		fl.order = append(fl.order, s.Name())
	}
	return fl, nil
}

// flush forces out every pending batch.
func (fl *fleet) flush() {
	for _, name := range fl.order {
		fl.stores[name].Flush()
	}
}

func (fl *fleet) close() {
	for _, s := range fl.stores {
		s.Disconnect()
	}
}
