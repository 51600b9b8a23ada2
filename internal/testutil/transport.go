package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/roach88/freight/internal/transport"
)

// CannedResponse is what StubTransport answers for one route.
type CannedResponse struct {
	Status      int
	ContentType string
	Body        string
}

// StubTransport is a transport.Transport that answers from canned
// responses keyed by "METHOD /path" and records every request it sees.
// The query string and host are ignored when matching.
//
// Thread-safety: StubTransport is safe for concurrent use.
type StubTransport struct {
	mu        sync.Mutex
	responses map[string]CannedResponse
	requests  []*transport.Request
}

// NewStubTransport creates a transport with no routes.
func NewStubTransport() *StubTransport {
	return &StubTransport{responses: make(map[string]CannedResponse)}
}

// On registers resp for method and path. Zero Status means 200 and an
// empty ContentType means application/json.
func (t *StubTransport) On(method, path string, resp CannedResponse) *StubTransport {
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	if resp.ContentType == "" {
		resp.ContentType = "application/json"
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[routeKey(method, path)] = resp
	return t
}

// Do implements transport.Transport. Unknown routes fail with an error.
func (t *StubTransport) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests = append(t.requests, req)

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("stub transport: %w", err)
	}
	resp, ok := t.responses[routeKey(req.Method, u.Path)]
	if !ok {
		return nil, fmt.Errorf("stub transport: no response for %s %s", req.Method, u.Path)
	}
	return &transport.Response{
		StatusCode: resp.Status,
		Header:     http.Header{"Content-Type": []string{resp.ContentType}},
		URL:        req.URL,
		Body:       []byte(resp.Body),
	}, nil
}

// Requests returns the requests seen so far.
func (t *StubTransport) Requests() []*transport.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*transport.Request(nil), t.requests...)
}

func routeKey(method, path string) string {
	return method + " " + path
}
