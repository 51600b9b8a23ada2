package deed

import (
	"context"

	"github.com/roach88/freight/internal/cargo"
)

// Type identifies the kind of a deed.
type Type string

const (
	TypeAction  Type = "action"
	TypeRequest Type = "request"
	TypeStub    Type = "stub"
)

// Deed is implemented by every deed descriptor.
type Deed interface {
	DeedName() string
	DeedType() Type
}

// Invocation is a compiled, invocable deed.
type Invocation func(ctx context.Context, args ...any) (any, error)

// Map holds a store's compiled deeds by name.
type Map map[string]Invocation

// Clone returns a copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FetchExtras is passed to functions that compute parts of a request.
type FetchExtras struct {
	Props cargo.Cargo
	Cargo cargo.Cargo
}

// RequestExtras is passed to post-fetch transforms and error handlers.
type RequestExtras struct {
	Props cargo.Cargo
	Cargo cargo.Cargo
	Deeds Map
}

// ActionExtras is passed to action functions.
type ActionExtras struct {
	Props cargo.Cargo

	// Cargo is the store's volatile cargo: committed cargo merged with the
	// batch that has not been flushed yet.
	Cargo cargo.Cargo

	Deeds Map

	skip func()
}

// NewActionExtras builds ActionExtras whose SkipShipment calls skip.
func NewActionExtras(props, c cargo.Cargo, deeds Map, skip func()) ActionExtras {
	return ActionExtras{Props: props, Cargo: c, Deeds: deeds, skip: skip}
}

// SkipShipment prevents the action's returned delta from being merged into
// the batch. The returned value is handed back to the caller instead.
func (e ActionExtras) SkipShipment() {
	if e.skip != nil {
		e.skip()
	}
}

// ActionFunc computes a delta for the store. A nil delta changes nothing.
type ActionFunc func(ctx context.Context, ex ActionExtras, args ...any) (cargo.Cargo, error)

// AfterFunc transforms decoded response data before the final action runs.
type AfterFunc func(ctx context.Context, ex RequestExtras, data any) (any, error)

// CatchFunc handles a failure anywhere in a request deed's chain. Its
// result becomes the invocation's result.
type CatchFunc func(ctx context.Context, ex RequestExtras, err error) (any, error)

// RequestConfig overrides parts of the outgoing request. Zero fields leave
// the current value alone; a non-nil Headers replaces the header set.
type RequestConfig struct {
	Method  string
	Headers map[string]any
	Body    any
}
