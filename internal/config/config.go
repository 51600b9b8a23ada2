// Package config loads store definition files.
//
// A definition file is YAML. It is checked against an embedded CUE schema
// before it is decoded, so that structural mistakes are reported with the
// path of the offending field. Decoded definitions build store.Configs
// with declarative deeds:
//
//   - action deeds ship a constant delta (set) and numeric increments (add)
//   - request deeds hit a path with positional {0} placeholders and may
//     store the response under a cargo key (store_as)
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("freight: invalid store definition")

// File is a decoded definition file.
type File struct {
	BaseURL string            `yaml:"base_url"`
	Headers map[string]string `yaml:"headers"`
	Stores  []StoreDef        `yaml:"stores"`
}

// StoreDef defines one store.
type StoreDef struct {
	Name string `yaml:"name"`

	// BatchTimeMS is the debounce window in milliseconds. Nil keeps the
	// default; zero makes the store batchless.
	BatchTimeMS *int `yaml:"batch_time_ms"`

	BatchMode string         `yaml:"batch_mode"`
	Debug     bool           `yaml:"debug"`
	Cargo     map[string]any `yaml:"cargo"`
	Deeds     []DeedDef      `yaml:"deeds"`
}

// DeedDef defines one deed. Which fields apply depends on Type.
type DeedDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// action
	Set map[string]any     `yaml:"set"`
	Add map[string]float64 `yaml:"add"`

	// request
	Path    string             `yaml:"path"`
	Verb    string             `yaml:"verb"`
	Headers map[string]*string `yaml:"headers"`
	Query   map[string]string  `yaml:"query"`
	JSON    any                `yaml:"json"`
	StoreAs string             `yaml:"store_as"`
}

// Load reads and validates the definition file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse validates and decodes a definition. name is used in errors.
func Parse(data []byte, name string) (*File, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: parse YAML: %w", name, err)
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("%s: decode YAML: %w", name, err)
	}

	if err := f.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &f, nil
}

// validate unifies the raw document with #Config.
func validate(raw any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.Details(err, nil))
	}
	return nil
}

// check enforces the rules the schema cannot express.
func (f *File) check() error {
	stores := make(map[string]bool, len(f.Stores))
	for _, s := range f.Stores {
		if stores[s.Name] {
			return fmt.Errorf("%w: store %q defined twice", ErrInvalid, s.Name)
		}
		stores[s.Name] = true

		deeds := make(map[string]bool, len(s.Deeds))
		for _, d := range s.Deeds {
			if deeds[d.Name] {
				return fmt.Errorf("%w: store %q: deed %q defined twice", ErrInvalid, s.Name, d.Name)
			}
			deeds[d.Name] = true
		}
	}
	return nil
}

// Store returns the definition named name.
func (f *File) Store(name string) (StoreDef, bool) {
	for _, s := range f.Stores {
		if s.Name == name {
			return s, true
		}
	}
	return StoreDef{}, false
}
