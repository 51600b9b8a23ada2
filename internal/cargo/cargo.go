package cargo

import "slices"

// Cargo is a state snapshot: a mapping of string keys to arbitrary values.
//
// Cargo values handed to subscribers are read-only. Producers build a new
// Cargo for every change instead of mutating one that has been published.
type Cargo map[string]any

// Clone returns a shallow copy. Nested values are shared with the receiver.
func (c Cargo) Clone() Cargo {
	out := make(Cargo, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Keys returns the keys in byte order.
func (c Cargo) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AsMap reports whether v is a mapping value (Cargo or map[string]any) and
// returns it as a plain map.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Cargo:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// From converts a mapping value into Cargo. Non-mapping values yield nil
// and false.
func From(v any) (Cargo, bool) {
	m, ok := AsMap(v)
	if !ok {
		return nil, false
	}
	return Cargo(m), true
}
