package cargo

import "fmt"

// Mode selects how a delta is merged into a base snapshot.
type Mode string

const (
	// Shallow overwrites top-level keys wholesale.
	Shallow Mode = "shallow"
	// Deep merges nested mappings key by key and only overwrites leaves.
	Deep Mode = "deep"
)

// ParseMode converts a configuration string into a Mode.
// The empty string selects Shallow.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Shallow:
		return Shallow, nil
	case Deep:
		return Deep, nil
	default:
		return "", fmt.Errorf("unknown batch mode %q: must be %q or %q", s, Shallow, Deep)
	}
}

// Merge merges delta into base according to the mode.
// Neither argument is modified.
func (m Mode) Merge(base, delta Cargo) Cargo {
	if m == Deep {
		return MergeDeep(base, delta)
	}
	return MergeShallow(base, delta)
}

// MergeShallow returns a new Cargo holding base overlaid with delta.
// A key present in delta replaces the base value entirely, even when both
// values are mappings. Untouched values keep their identity.
func MergeShallow(base, delta Cargo) Cargo {
	out := make(Cargo, len(base)+len(delta))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range delta {
		out[k] = v
	}
	return out
}

// MergeDeep returns a new Cargo holding base recursively merged with delta.
//
// Nested mappings are copied, never shared with the inputs, so the result
// can be merged into again without touching either argument. Sequences and
// scalars are leaves: a delta leaf replaces whatever the base held.
func MergeDeep(base, delta Cargo) Cargo {
	out := make(Cargo, len(base)+len(delta))
	mergeInto(out, base)
	mergeInto(out, delta)
	return out
}

// mergeInto merges src into dst. Every mapping stored in dst was created by
// mergeInto, so it is safe to mutate in place.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcMap, ok := AsMap(v)
		if !ok {
			dst[k] = v
			continue
		}
		dstMap, ok := dst[k].(map[string]any)
		if !ok {
			dstMap = make(map[string]any, len(srcMap))
			dst[k] = dstMap
		}
		mergeInto(dstMap, srcMap)
	}
}
