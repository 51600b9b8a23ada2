package deed

import "reflect"

// ValueFunc computes a request property from the fetch extras and the
// invocation's runtime arguments.
type ValueFunc[T any] func(ex FetchExtras, args ...any) (T, error)

// Source is either a literal value or a value computed per invocation.
// The zero Source is unset.
type Source[T any] struct {
	value    T
	fn       ValueFunc[T]
	set      bool
	computed bool
}

// Literal returns a Source that always resolves to v.
func Literal[T any](v T) Source[T] {
	return Source[T]{value: v, set: true}
}

// Computed returns a Source that calls fn on every resolution.
func Computed[T any](fn ValueFunc[T]) Source[T] {
	return Source[T]{fn: fn, set: fn != nil, computed: true}
}

// IsSet reports whether the source was configured.
func (s Source[T]) IsSet() bool { return s.set }

// IsComputed reports whether the source is a function.
func (s Source[T]) IsComputed() bool { return s.computed }

// Resolve returns the literal value or calls the function.
// An unset source resolves to the zero value.
func (s Source[T]) Resolve(ex FetchExtras, args ...any) (T, error) {
	if s.computed && s.fn != nil {
		return s.fn(ex, args...)
	}
	return s.value, nil
}

// sourceOf converts a setter argument into a Source. Functions must match
// one of the computed signatures; any other function is rejected so that
// a mistyped callback is never sent as a literal. When literal is false,
// only functions and Sources are accepted.
func sourceOf[T any](v any, literal bool) (Source[T], bool) {
	switch x := v.(type) {
	case nil:
		return Source[T]{}, false
	case Source[T]:
		return x, x.set
	case ValueFunc[T]:
		return Computed(x), x != nil
	case func(FetchExtras, ...any) (T, error):
		return Computed(ValueFunc[T](x)), x != nil
	case func(FetchExtras, ...any) T:
		if x == nil {
			return Source[T]{}, false
		}
		return Computed(func(ex FetchExtras, args ...any) (T, error) {
			return x(ex, args...), nil
		}), true
	}

	if !literal || reflect.TypeOf(v).Kind() == reflect.Func {
		return Source[T]{}, false
	}
	if x, ok := v.(T); ok {
		return Literal(x), true
	}
	return Source[T]{}, false
}
