package testutil

import (
	"sync"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/store"
)

// StubHandle is a store.Handle with fixed cargo and deeds, used with
// Registry.Mock. Push delivers cargo to every subscribed listener the way
// a store flush would.
//
// Thread-safety: StubHandle is safe for concurrent use.
type StubHandle struct {
	mu        sync.Mutex
	cargo     cargo.Cargo
	deeds     deed.Map
	listeners map[store.Identity]store.Listener
}

// NewStubHandle creates a handle serving c and deeds.
func NewStubHandle(c cargo.Cargo, deeds deed.Map) *StubHandle {
	if c == nil {
		c = cargo.Cargo{}
	}
	if deeds == nil {
		deeds = deed.Map{}
	}
	return &StubHandle{
		cargo:     c,
		deeds:     deeds,
		listeners: make(map[store.Identity]store.Listener),
	}
}

// Subscribe implements store.Handle.
func (h *StubHandle) Subscribe(id store.Identity, l store.Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[id] = l
}

// Unsubscribe implements store.Handle.
func (h *StubHandle) Unsubscribe(id store.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, id)
}

// Cargo implements store.Handle.
func (h *StubHandle) Cargo() cargo.Cargo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cargo.Clone()
}

// Deeds implements store.Handle.
func (h *StubHandle) Deeds() deed.Map {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deeds.Clone()
}

// Subscribers returns how many listeners are attached.
func (h *StubHandle) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Push replaces the handle's cargo with c and notifies every listener.
func (h *StubHandle) Push(c cargo.Cargo) {
	h.mu.Lock()
	h.cargo = c
	listeners := make([]store.Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(c)
	}
}
