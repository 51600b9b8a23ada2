package cargo

import "reflect"

// EqualOneLevel reports whether a and b hold the same keys and every key
// maps to an identical value in both.
//
// Identity is shallow: scalars compare by value, while mappings, sequences,
// pointers and functions compare by reference. Two separately built but
// structurally equal nested mappings are therefore different.
func EqualOneLevel(a, b Cargo) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Same(av, bv) {
			return false
		}
	}
	return true
}

// Same reports reference-or-primitive equality of two values.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if va.Type().Comparable() {
		return comparableEqual(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// comparableEqual compares with ==, falling back to DeepEqual when an
// interface field holds an uncomparable value and == panics.
func comparableEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
