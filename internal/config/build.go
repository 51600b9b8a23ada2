package config

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/store"
)

// Options returns the store options shared by every store in the file.
func (f *File) Options() []store.Option {
	var opts []store.Option
	if f.BaseURL != "" {
		opts = append(opts, store.WithBaseURL(f.BaseURL))
	}
	if len(f.Headers) > 0 {
		h := make(http.Header, len(f.Headers))
		for k, v := range f.Headers {
			h.Set(k, v)
		}
		opts = append(opts, store.WithDefaultHeaders(h))
	}
	return opts
}

// Configs builds a store.Config for every store in file order.
func (f *File) Configs() ([]store.Config, error) {
	out := make([]store.Config, 0, len(f.Stores))
	for _, s := range f.Stores {
		cfg, err := s.Config()
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Config builds the store.Config for s.
func (s StoreDef) Config() (store.Config, error) {
	cfg := store.DefaultConfig()
	cfg.Name = s.Name
	cfg.Debug = s.Debug
	cfg.Cargo = cargo.Cargo(s.Cargo)
	if s.BatchTimeMS != nil {
		cfg.BatchTime = time.Duration(*s.BatchTimeMS) * time.Millisecond
	}

	mode, err := cargo.ParseMode(s.BatchMode)
	if err != nil {
		return store.Config{}, fmt.Errorf("store %q: %w", s.Name, err)
	}
	cfg.BatchMode = mode

	for _, d := range s.Deeds {
		built, err := d.Build()
		if err != nil {
			return store.Config{}, fmt.Errorf("store %q: %w", s.Name, err)
		}
		cfg.Deeds = append(cfg.Deeds, built)
	}
	return cfg, nil
}

// Build turns the definition into a deed descriptor.
func (d DeedDef) Build() (deed.Deed, error) {
	switch d.Type {
	case string(deed.TypeAction):
		return d.buildAction()
	case string(deed.TypeRequest):
		return d.buildRequest()
	}
	return nil, fmt.Errorf("deed %q: unknown type %q", d.Name, d.Type)
}

func (d DeedDef) buildAction() (deed.Deed, error) {
	set, add := d.Set, d.Add
	return deed.NewAction(d.Name).ThatDoes(func(_ context.Context, ex deed.ActionExtras, args ...any) (cargo.Cargo, error) {
		delta := make(cargo.Cargo, len(set)+len(add))
		for k, v := range set {
			delta[k] = expand(v, args)
		}
		for k, n := range add {
			sum, err := addNumber(ex.Cargo[k], n)
			if err != nil {
				return nil, fmt.Errorf("add to %q: %w", k, err)
			}
			delta[k] = sum
		}
		return delta, nil
	}).Build()
}

func (d DeedDef) buildRequest() (deed.Deed, error) {
	b := deed.NewRequest(d.Name)

	path := d.Path
	if strings.Contains(path, "{") {
		b.Hits(func(_ deed.FetchExtras, args ...any) string {
			return expandString(path, args)
		})
	} else {
		b.Hits(path)
	}

	if d.Verb != "" {
		b.WithVerb(d.Verb)
	}

	if len(d.Headers) > 0 {
		headers := make(map[string]any, len(d.Headers))
		for k, v := range d.Headers {
			if v == nil {
				headers[k] = nil
			} else {
				headers[k] = *v
			}
		}
		b.WithHeaders(headers)
	}

	if len(d.Query) > 0 {
		query := d.Query
		b.WithQueryParams(func(_ deed.FetchExtras, args ...any) any {
			out := make(map[string]any, len(query))
			for k, v := range query {
				out[k] = expandString(v, args)
			}
			return out
		})
	}

	if d.JSON != nil {
		body := d.JSON
		b.WithJSON(func(_ deed.FetchExtras, args ...any) any {
			return expand(body, args)
		})
	}

	if d.StoreAs != "" {
		key := d.StoreAs
		// Wrapped so that list responses reach the final action whole
		// instead of spread into arguments.
		b.Afterwards(func(_ context.Context, _ deed.RequestExtras, data any) (any, error) {
			return []any{data}, nil
		})
		b.ThenDoes(func(_ context.Context, _ deed.ActionExtras, args ...any) (cargo.Cargo, error) {
			return cargo.Cargo{key: args[0]}, nil
		})
	}

	return b.Build()
}

// expandString replaces {N} with the Nth argument. Placeholders without a
// matching argument are left as they are.
func expandString(s string, args []any) string {
	if !strings.Contains(s, "{") {
		return s
	}
	var sb strings.Builder
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			break
		}
		end += open
		idx, err := strconv.Atoi(s[open+1 : end])
		if err != nil || idx < 0 || idx >= len(args) {
			sb.WriteString(s[:end+1])
			s = s[end+1:]
			continue
		}
		sb.WriteString(s[:open])
		sb.WriteString(fmt.Sprint(args[idx]))
		s = s[end+1:]
	}
	sb.WriteString(s)
	return sb.String()
}

// expand applies expandString to every string in v. A string that is
// exactly one placeholder is replaced by the argument itself, keeping its
// type.
func expand(v any, args []any) any {
	switch x := v.(type) {
	case string:
		if len(x) > 2 && x[0] == '{' && x[len(x)-1] == '}' {
			if idx, err := strconv.Atoi(x[1 : len(x)-1]); err == nil && idx >= 0 && idx < len(args) {
				return args[idx]
			}
		}
		return expandString(x, args)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = expand(e, args)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = expand(e, args)
		}
		return out
	}
	return v
}

// addNumber adds n to cur. Integers stay integers while n is whole.
func addNumber(cur any, n float64) (any, error) {
	whole := n == math.Trunc(n)
	switch c := cur.(type) {
	case nil:
		if whole {
			return int(n), nil
		}
		return n, nil
	case int:
		if whole {
			return c + int(n), nil
		}
		return float64(c) + n, nil
	case int64:
		if whole {
			return c + int64(n), nil
		}
		return float64(c) + n, nil
	case float64:
		return c + n, nil
	}
	return nil, fmt.Errorf("%T is not a number", cur)
}
