package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/gql"
	"github.com/roach88/freight/internal/transport"
)

// subscription is one listener in subscription order.
type subscription struct {
	id Identity
	fn Listener
}

// Store holds cargo and the deeds that change it.
//
// Thread-safety: all methods are safe for concurrent use. Deeds returned
// by Deeds may be invoked from any goroutine.
type Store struct {
	name      string
	registry  *Registry
	logger    *slog.Logger
	debug     bool
	mode      cargo.Mode
	batchTime time.Duration

	transport      transport.Transport
	baseURL        string
	respHandler    transport.ResponseHandler
	errHandler     ErrorHandler
	defaultHeaders http.Header
	printer        gql.Printer
	tokens         TokenGenerator
	clock          SeqSource
	recorder       Recorder

	mu          sync.Mutex
	connected   bool
	cargo       cargo.Cargo
	volatile    cargo.Cargo
	batch       cargo.Cargo
	timer       *time.Timer
	timerGen    uint64
	deeds       deed.Map
	props       cargo.Cargo
	subs        []subscription
	pending     []Emission
	dispatching bool
}

// New creates a store, compiles its deeds and publishes it in the
// registry given by WithRegistry.
//
// Returns ErrEmptyName when cfg.NameFunc yields "", and any error from
// RegisterDeeds. A store that fails construction is never registered.
//
// Fields left zero keep their zero meaning: a cfg not built from
// DefaultConfig has no batch window and ships deltas synchronously.
func New(cfg Config, opts ...Option) (*Store, error) {
	cfg.validate()

	s := &Store{
		logger:      slog.Default(),
		debug:       cfg.Debug,
		mode:        cfg.BatchMode,
		batchTime:   cfg.BatchTime,
		respHandler: transport.DefaultResponseHandler,
		errHandler:  reraise,
		printer:     gql.Print,
		tokens:      UUIDv7Generator{},
		connected:   true,
		batch:       cargo.Cargo{},
		deeds:       make(deed.Map),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transport == nil {
		s.transport = transport.NewHTTP(nil)
	}
	if s.clock == nil {
		s.clock = NewClock()
	}

	name, err := s.resolveName(cfg)
	if err != nil {
		return nil, err
	}
	s.name = name
	s.cargo = cfg.Cargo.Clone()
	s.volatile = s.cargo
	s.props = cfg.Props.Clone()

	if err := s.RegisterDeeds(cfg.Deeds...); err != nil {
		return nil, fmt.Errorf("store %q: %w", name, err)
	}

	if s.registry != nil {
		s.registry.Register(name, s)
	}
	return s, nil
}

// resolveName applies NameFunc or falls back to Name, generating a token
// when neither produces a name.
func (s *Store) resolveName(cfg Config) (string, error) {
	if cfg.NameFunc != nil {
		name := cfg.NameFunc(s.tokens.Generate())
		if name == "" {
			return "", ErrEmptyName
		}
		return NormalizeName(name), nil
	}
	if cfg.Name == "" {
		return s.tokens.Generate(), nil
	}
	return NormalizeName(cfg.Name), nil
}

// Name returns the name the store registered under.
func (s *Store) Name() string {
	return s.name
}

// Connected reports whether Disconnect has not been called.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Cargo returns the committed cargo. Nil after Disconnect.
func (s *Store) Cargo() cargo.Cargo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cargo == nil {
		return nil
	}
	return s.cargo.Clone()
}

// VolatileCargo returns the committed cargo merged with the unflushed
// batch.
func (s *Store) VolatileCargo() cargo.Cargo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volatile == nil {
		return nil
	}
	return s.volatile.Clone()
}

// Deeds returns the store's compiled deeds.
func (s *Store) Deeds() deed.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deeds.Clone()
}

// Invoke calls the deed registered under name.
func (s *Store) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	s.mu.Lock()
	inv, ok := s.deeds[name]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("store %q: %q: %w", s.name, name, ErrUnknownDeed)
	}
	return inv(ctx, args...)
}

// Subscribe registers l under id. Subscribing an id again replaces its
// listener and keeps its position.
func (s *Store) Subscribe(id Identity, l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}
	for i := range s.subs {
		if s.subs[i].id == id {
			s.subs[i].fn = l
			return
		}
	}
	s.subs = append(s.subs, subscription{id: id, fn: l})
}

// Unsubscribe removes the listener registered under id.
func (s *Store) Unsubscribe(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.subs {
		if s.subs[i].id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Update enqueues delta as if a deed had produced it.
func (s *Store) Update(delta cargo.Cargo) {
	s.debugLog("external queued cargo", "cargo", delta)
	s.enqueue(delta)
}

// UpdateProps merges props into the props handed to deeds.
func (s *Store) UpdateProps(props cargo.Cargo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props = cargo.MergeShallow(s.props, props)
}

// Props returns the current props.
func (s *Store) Props() cargo.Cargo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.props.Clone()
}

// Disconnect closes the store. It leaves the registry, drops listeners,
// pending batches and cargo. Deeds invoked afterwards log a warning and
// return (nil, nil). Calling Disconnect twice is a no-op.
func (s *Store) Disconnect() {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.connected = false
	s.stopTimerLocked()
	s.subs = nil
	s.pending = nil
	s.batch = nil
	s.cargo = nil
	s.volatile = nil
	reg := s.registry
	s.mu.Unlock()

	if reg != nil {
		reg.Remove(s.name, s)
	}
	s.logger.Debug("store disconnected", "store", s.name)
}

// debugLog logs at debug level when the store was configured with Debug.
func (s *Store) debugLog(msg string, args ...any) {
	if !s.debug {
		return
	}
	s.logger.Debug(msg, append([]any{"store", s.name}, args...)...)
}
