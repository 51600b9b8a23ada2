package store

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
)

// Identity is an opaque token identifying one subscriber.
type Identity string

// Listener receives the new cargo after every flush. Each listener gets
// a shallow copy: top-level writes stay local, nested values are shared
// with the store and must be treated as read-only.
type Listener func(c cargo.Cargo)

// Handle is what the registry exposes for a store.
type Handle interface {
	Subscribe(id Identity, l Listener)
	Unsubscribe(id Identity)
	Cargo() cargo.Cargo
	Deeds() deed.Map
}

// Registry maps store names to handles.
//
// Names are NFC normalized so that canonically equivalent spellings refer
// to the same store. At most one handle exists per name; registering a
// name again replaces the previous handle.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handles  map[string]Handle
	testMode bool
	mock     Handle
	mocked   bool
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTestMode permits Mock and Unmock on the registry.
func WithTestMode() RegistryOption {
	return func(r *Registry) {
		r.testMode = true
	}
}

// WithRegistryLogger sets the logger used for replacement warnings.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		handles: make(map[string]Handle),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeName returns the registry key for a store name.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Register publishes h under name and reports whether it replaced an
// existing handle. Subscribers of a replaced handle stay attached to it.
func (r *Registry) Register(name string, h Handle) (replaced bool) {
	key := NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.handles[key]; ok && prev != h {
		replaced = true
		r.logger.Warn("store name already registered, replacing", "store", key)
	}
	r.handles[key] = h
	return replaced
}

// Remove deletes name if it still maps to h. A store that was replaced
// cannot remove its replacement.
func (r *Registry) Remove(name string, h Handle) bool {
	key := NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.handles[key]; ok && cur == h {
		delete(r.handles, key)
		return true
	}
	return false
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[NormalizeName(name)]
	return h, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Assign subscribes l under id to the store called name and returns its
// handle. While the registry is mocked the mock handle is used for every
// name.
func (r *Registry) Assign(id Identity, l Listener, name string) (Handle, error) {
	r.mu.RLock()
	h, ok := r.handles[NormalizeName(name)]
	if r.mocked {
		h, ok = r.mock, true
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("subscribe to %q: %w", name, ErrStoreNotFound)
	}
	h.Subscribe(id, l)
	return h, nil
}

// Mock routes every Assign to h. Only allowed on registries created with
// WithTestMode, and not re-entrant.
func (r *Registry) Mock(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.testMode {
		return ErrNotTestMode
	}
	if r.mocked {
		return ErrAlreadyMocked
	}
	r.mock = h
	r.mocked = true
	return nil
}

// Unmock restores normal Assign behavior.
func (r *Registry) Unmock() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.testMode || !r.mocked {
		return ErrNotMocked
	}
	r.mock = nil
	r.mocked = false
	return nil
}
