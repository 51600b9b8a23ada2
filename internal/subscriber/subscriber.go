// Package subscriber derives views over one or more stores.
//
// A Subscriber joins its stores through a store.Registry, merges their
// cargo in store order, runs the merge through a selector and notifies its
// listeners only when the selection changes one level deep.
package subscriber

import (
	"fmt"
	"sync"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/store"
)

// EventName identifies a subscriber event.
type EventName string

const (
	EventSubscribe   EventName = "subscribe"
	EventUnsubscribe EventName = "unsubscribe"
	EventUpdate      EventName = "update"
)

// Event is passed to listeners. Subscribe events carry the selection and
// the merged deeds, update events the new selection, unsubscribe events
// nothing.
type Event struct {
	Name  EventName
	Cargo cargo.Cargo
	Deeds deed.Map
}

// Selector narrows merged cargo to the view a subscriber cares about.
type Selector func(c cargo.Cargo) cargo.Cargo

// Identity returns the cargo unchanged.
func Identity(c cargo.Cargo) cargo.Cargo { return c }

// Listener handles subscriber events.
type Listener func(ev Event)

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithTokenGenerator sets the generator for the subscriber identity.
//
// Default: store.UUIDv7Generator
func WithTokenGenerator(g store.TokenGenerator) Option {
	return func(s *Subscriber) {
		s.tokens = g
	}
}

// joined is a store the subscriber is attached to.
type joined struct {
	name   string
	handle store.Handle
}

// Subscriber watches a selection over several stores.
//
// Thread-safety: all methods are safe for concurrent use. Listeners run
// without the subscriber lock held and may call back into it.
type Subscriber struct {
	registry   *store.Registry
	storeNames []string
	selector   Selector
	tokens     store.TokenGenerator
	identity   store.Identity

	mu         sync.Mutex
	subscribed bool
	stores     []joined
	selection  cargo.Cargo
	deeds      deed.Map
	listeners  map[EventName][]Listener
}

// New creates a subscriber for storeNames. It does not join the stores
// until Subscribe is called. A nil selector selects everything.
func New(reg *store.Registry, storeNames []string, selector Selector, opts ...Option) *Subscriber {
	if selector == nil {
		selector = Identity
	}
	s := &Subscriber{
		registry:   reg,
		storeNames: append([]string(nil), storeNames...),
		selector:   selector,
		tokens:     store.UUIDv7Generator{},
		selection:  cargo.Cargo{},
		deeds:      deed.Map{},
		listeners:  make(map[EventName][]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.identity = store.Identity(s.tokens.Generate())
	return s
}

// ID returns the identity the subscriber registers with its stores.
func (s *Subscriber) ID() store.Identity {
	return s.identity
}

// On adds a listener for event.
func (s *Subscriber) On(event EventName, l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], l)
}

// Subscribe joins every store, computes the first selection and emits a
// subscribe event. If a store is missing, the stores joined so far are
// left again and the error is returned.
func (s *Subscriber) Subscribe() error {
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return nil
	}

	var stores []joined
	merged := cargo.Cargo{}
	deeds := deed.Map{}
	for _, name := range s.storeNames {
		h, err := s.registry.Assign(s.identity, s.handleUpdate, name)
		if err != nil {
			for _, j := range stores {
				j.handle.Unsubscribe(s.identity)
			}
			s.mu.Unlock()
			return fmt.Errorf("subscriber %s: %w", s.identity, err)
		}
		stores = append(stores, joined{name: name, handle: h})
		for k, v := range h.Cargo() {
			merged[k] = v
		}
		for k, v := range h.Deeds() {
			deeds[k] = v
		}
	}

	s.stores = stores
	s.selection = s.selector(merged)
	s.deeds = deeds
	s.subscribed = true
	ev := Event{Name: EventSubscribe, Cargo: s.selection, Deeds: deeds.Clone()}
	listeners := s.listenersLocked(EventSubscribe)
	s.mu.Unlock()

	emit(listeners, ev)
	return nil
}

// UnsubscribeAll leaves every store, emits an unsubscribe event and drops
// all listeners. On a subscriber that is not attached it only drops the
// listeners.
func (s *Subscriber) UnsubscribeAll() {
	s.mu.Lock()
	if !s.subscribed {
		s.listeners = make(map[EventName][]Listener)
		s.mu.Unlock()
		return
	}
	for _, j := range s.stores {
		j.handle.Unsubscribe(s.identity)
	}
	s.stores = nil
	s.subscribed = false
	listeners := s.listenersLocked(EventUnsubscribe)
	s.listeners = make(map[EventName][]Listener)
	s.mu.Unlock()

	emit(listeners, Event{Name: EventUnsubscribe})
}

// Subscribed reports whether the subscriber is attached to its stores.
func (s *Subscriber) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// Cargo returns the current selection.
func (s *Subscriber) Cargo() cargo.Cargo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Clone()
}

// Deeds returns the deeds of all joined stores. When two stores have a
// deed with the same name, the later store in storeNames wins.
func (s *Subscriber) Deeds() deed.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deeds.Clone()
}

// handleUpdate is the listener registered with every joined store. It
// merges the cargo of all joined stores with the pushed cargo and emits an
// update event when the selection differs one level deep.
func (s *Subscriber) handleUpdate(pushed cargo.Cargo) {
	s.mu.Lock()
	if !s.subscribed {
		s.mu.Unlock()
		return
	}

	merged := cargo.Cargo{}
	for _, j := range s.stores {
		for k, v := range j.handle.Cargo() {
			merged[k] = v
		}
	}
	for k, v := range pushed {
		merged[k] = v
	}

	next := s.selector(merged)
	if cargo.EqualOneLevel(s.selection, next) {
		s.mu.Unlock()
		return
	}
	s.selection = next
	listeners := s.listenersLocked(EventUpdate)
	s.mu.Unlock()

	emit(listeners, Event{Name: EventUpdate, Cargo: next})
}

func (s *Subscriber) listenersLocked(event EventName) []Listener {
	return append([]Listener(nil), s.listeners[event]...)
}

func emit(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l(ev)
	}
}
