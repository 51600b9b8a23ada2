package store

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/gql"
	"github.com/roach88/freight/internal/transport"
)

// DefaultBatchTime is the debounce window set by DefaultConfig.
const DefaultBatchTime = 4 * time.Millisecond

// Config describes a store.
type Config struct {
	// Name registers the store. Ignored when NameFunc is set.
	Name string

	// NameFunc derives the name from a fresh token. It is called exactly
	// once; returning "" fails construction with ErrEmptyName.
	NameFunc func(token string) string

	// Cargo is the initial cargo. Nil starts empty.
	Cargo cargo.Cargo

	Deeds []deed.Deed

	// BatchTime is the debounce window. Zero makes the store batchless,
	// so a bare Config{Name: ...} flushes every delta immediately. Start
	// from DefaultConfig to get the DefaultBatchTime window.
	BatchTime time.Duration

	// BatchMode selects how deltas merge into the batch and volatile cargo.
	BatchMode cargo.Mode

	// Debug logs deed calls, queued deltas and new cargo at debug level.
	Debug bool

	// Props are handed to every deed through its extras.
	Props cargo.Cargo
}

// DefaultConfig returns a Config with a 4ms batch window and shallow merge.
func DefaultConfig() Config {
	return Config{
		BatchTime: DefaultBatchTime,
		BatchMode: cargo.Shallow,
	}
}

// validate clamps out of range values.
func (c *Config) validate() {
	if c.BatchTime < 0 {
		c.BatchTime = 0
	}
	if c.BatchMode != cargo.Deep {
		c.BatchMode = cargo.Shallow
	}
	if c.Cargo == nil {
		c.Cargo = cargo.Cargo{}
	}
	if c.Props == nil {
		c.Props = cargo.Cargo{}
	}
}

// ErrorHandler handles request failures for request deeds that do not
// set CatchError. Its result becomes the invocation's result.
type ErrorHandler func(ctx context.Context, err error) (any, error)

// reraise is the default ErrorHandler.
func reraise(_ context.Context, err error) (any, error) {
	return nil, err
}

// Option configures a Store.
type Option func(*Store)

// WithRegistry publishes the store in r. Without a registry the store is
// usable but cannot be found by subscribers.
func WithRegistry(r *Registry) Option {
	return func(s *Store) {
		s.registry = r
	}
}

// WithTransport sets the transport used by request deeds.
//
// Default: transport.NewHTTP(nil)
func WithTransport(t transport.Transport) Option {
	return func(s *Store) {
		s.transport = t
	}
}

// WithBaseURL prefixes every relative request path.
func WithBaseURL(u string) Option {
	return func(s *Store) {
		s.baseURL = u
	}
}

// WithResponseHandler replaces transport.DefaultResponseHandler.
func WithResponseHandler(h transport.ResponseHandler) Option {
	return func(s *Store) {
		s.respHandler = h
	}
}

// WithErrorHandler sets the handler for request errors not caught by the
// deed. The default returns the error to the caller.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Store) {
		s.errHandler = h
	}
}

// WithDefaultHeaders sets headers sent with every request before the
// deed's own headers are applied.
func WithDefaultHeaders(h http.Header) Option {
	return func(s *Store) {
		s.defaultHeaders = h.Clone()
	}
}

// WithQueryPrinter sets the function that prints GraphQL nodes.
//
// Default: gql.Print
func WithQueryPrinter(p gql.Printer) Option {
	return func(s *Store) {
		s.printer = p
	}
}

// WithTokenGenerator sets the source of generated names.
//
// Default: UUIDv7Generator
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Store) {
		s.tokens = g
	}
}

// WithClock sets the sequence source stamped on every flush.
// Stores sharing a clock get one global order.
func WithClock(c SeqSource) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithRecorder reports every flush to r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithLogger sets the logger.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}
