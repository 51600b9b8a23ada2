package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/freight/internal/deed"
)

// RegisterDeeds compiles deeds and installs them on the store.
//
// Either every deed is installed or none is: a duplicate name, within
// deeds or against deeds already on the store, returns ErrDuplicateDeed,
// and a deed of an unknown type returns ErrUnknownDeedType.
func (s *Store) RegisterDeeds(deeds ...deed.Deed) error {
	compiled := make(deed.Map, len(deeds))
	for _, d := range deeds {
		if d == nil {
			return fmt.Errorf("nil deed: %w", ErrUnknownDeedType)
		}
		name := d.DeedName()
		if _, dup := compiled[name]; dup {
			return fmt.Errorf("deed %q: %w", name, ErrDuplicateDeed)
		}
		inv, err := s.compile(d)
		if err != nil {
			return err
		}
		compiled[name] = s.guard(name, inv)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for name := range compiled {
		if _, dup := s.deeds[name]; dup {
			return fmt.Errorf("deed %q: %w", name, ErrDuplicateDeed)
		}
	}
	for name, inv := range compiled {
		s.deeds[name] = inv
	}
	return nil
}

// compile dispatches on the deed's type.
func (s *Store) compile(d deed.Deed) (deed.Invocation, error) {
	switch d.DeedType() {
	case deed.TypeAction:
		a, ok := asAction(d)
		if !ok || a.Action == nil {
			break
		}
		return s.generateAction(a.Name, a.Action), nil

	case deed.TypeRequest:
		r, ok := asRequest(d)
		if !ok {
			break
		}
		return s.compileRequest(r), nil

	case deed.TypeStub:
		st, ok := asStub(d)
		if !ok || st.Stub == nil {
			break
		}
		return st.Stub, nil
	}
	return nil, fmt.Errorf("deed %q (%s): %w", d.DeedName(), d.DeedType(), ErrUnknownDeedType)
}

func asAction(d deed.Deed) (deed.Action, bool) {
	switch x := d.(type) {
	case deed.Action:
		return x, true
	case *deed.Action:
		if x != nil {
			return *x, true
		}
	}
	return deed.Action{}, false
}

func asRequest(d deed.Deed) (deed.Request, bool) {
	switch x := d.(type) {
	case deed.Request:
		return x, true
	case *deed.Request:
		if x != nil {
			return *x, true
		}
	}
	return deed.Request{}, false
}

func asStub(d deed.Deed) (deed.Stub, bool) {
	switch x := d.(type) {
	case deed.Stub:
		return x, true
	case *deed.Stub:
		if x != nil {
			return *x, true
		}
	}
	return deed.Stub{}, false
}

// generateAction wraps fn so that its delta is shipped to the batch.
// When the action calls SkipShipment the delta is returned to the caller
// instead and the batch is left alone.
func (s *Store) generateAction(name string, fn deed.ActionFunc) deed.Invocation {
	return func(ctx context.Context, args ...any) (any, error) {
		var skipped atomic.Bool
		ex := deed.NewActionExtras(s.Props(), s.VolatileCargo(), s.Deeds(), func() {
			skipped.Store(true)
		})

		s.debugLog("deed does", "deed", name)
		delta, err := fn(ctx, ex, args...)
		if err != nil {
			return nil, err
		}

		if skipped.Load() {
			if delta == nil {
				return nil, nil
			}
			return delta, nil
		}

		s.debugLog("queued cargo", "deed", name, "cargo", delta)
		s.enqueue(delta)
		return nil, nil
	}
}

// guard refuses invocations once the store is disconnected.
func (s *Store) guard(name string, inv deed.Invocation) deed.Invocation {
	return func(ctx context.Context, args ...any) (any, error) {
		if !s.Connected() {
			s.logger.Warn("deed called on disconnected store", "deed", name, "store", s.name)
			return nil, nil
		}
		return inv(ctx, args...)
	}
}
