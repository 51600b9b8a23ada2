package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/transport"
)

// seqTokens returns tok-1, tok-2, ...
type seqTokens struct {
	mu sync.Mutex
	n  int
}

func (g *seqTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("tok-%d", g.n)
}

// recordingTransport answers every request with one canned response and
// keeps the requests it saw.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*transport.Request
	status   int
	header   http.Header
	body     string
	err      error
}

func jsonTransport(body string) *recordingTransport {
	return &recordingTransport{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (t *recordingTransport) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	if t.err != nil {
		return nil, t.err
	}
	return &transport.Response{
		StatusCode: t.status,
		Header:     t.header,
		URL:        req.URL,
		Body:       []byte(t.body),
	}, nil
}

func (t *recordingTransport) last(tb testing.TB) *transport.Request {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	require.NotEmpty(tb, t.requests, "no request was sent")
	return t.requests[len(t.requests)-1]
}

// listenerLog collects the cargo pushed to a listener.
type listenerLog struct {
	mu    sync.Mutex
	calls []cargo.Cargo
}

func (l *listenerLog) listen(c cargo.Cargo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func (l *listenerLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func (l *listenerLog) lastCargo() cargo.Cargo {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == 0 {
		return nil
	}
	return l.calls[len(l.calls)-1]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// batchless returns a config whose deltas flush immediately.
func batchless(name string, c cargo.Cargo, deeds ...deed.Deed) Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Cargo = c
	cfg.Deeds = deeds
	cfg.BatchTime = 0
	return cfg
}

// held returns a config whose batch only flushes through Flush.
func held(name string, c cargo.Cargo, deeds ...deed.Deed) Config {
	cfg := batchless(name, c, deeds...)
	cfg.BatchTime = time.Hour
	return cfg
}

func newTestStore(t *testing.T, cfg Config, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithTokenGenerator(&seqTokens{})}, opts...)
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Disconnect)
	return s
}

// setAction returns an action deed that ships delta unchanged.
func setAction(name string, delta cargo.Cargo) deed.Action {
	return deed.NewAction(name).ThatDoes(func(context.Context, deed.ActionExtras, ...any) (cargo.Cargo, error) {
		return delta, nil
	}).MustBuild()
}

// incrementAction adds one to cargo["count"].
func incrementAction() deed.Action {
	return deed.NewAction("increment").ThatDoes(func(_ context.Context, ex deed.ActionExtras, _ ...any) (cargo.Cargo, error) {
		n, _ := ex.Cargo["count"].(int)
		return cargo.Cargo{"count": n + 1}, nil
	}).MustBuild()
}
