// Package transport executes the requests assembled by request deeds.
//
// The store depends only on the Transport interface. HTTP is the net/http
// implementation used outside tests; tests substitute a Func or the stub in
// internal/testutil.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Request is a fully assembled outgoing request.
type Request struct {
	Method string
	URL    string
	Header http.Header

	// Body is nil when the request carries no body.
	Body []byte
}

// Response is a completed response with its body already read.
type Response struct {
	StatusCode int
	Header     http.Header
	URL        string
	Body       []byte
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// DecodeJSON decodes the body. An empty body decodes to nil.
func (r *Response) DecodeJSON() (any, error) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", r.URL, err)
	}
	return v, nil
}

// Transport executes a request.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Do implements Transport.
func (f Func) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// IsJSONContentType reports whether a content type carries JSON or
// JavaScript.
func IsJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") ||
		strings.Contains(ct, "application/javascript") ||
		strings.Contains(ct, "+json")
}
