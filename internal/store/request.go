package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/transport"
)

const (
	contentTypeJSON     = "application/json"
	contentTypeJSONUTF8 = "application/json; charset=utf-8"
)

// compileRequest turns a request deed into an invocation.
//
// Every call assembles a fresh request from the deed and its arguments,
// sends it, runs the response through the response handler and the
// deed's After transform, then hands the result to the final action. A
// []any result is spread into the action's arguments.
//
// Assembly errors are returned as is. Failures while sending or handling
// the response go to the deed's CatchError, or the store's error handler.
func (s *Store) compileRequest(d deed.Request) deed.Invocation {
	var final deed.Invocation
	if d.Action != nil {
		final = s.generateAction(d.Name, d.Action)
	}

	return func(ctx context.Context, args ...any) (any, error) {
		s.debugLog("request", "deed", d.Name)

		req, err := s.assemble(d, args)
		if err != nil {
			return nil, err
		}

		out, err := s.execute(ctx, d, req, final)
		if err != nil {
			if d.CatchError != nil {
				return d.CatchError(ctx, s.requestExtras(), err)
			}
			return s.errHandler(ctx, err)
		}
		return out, nil
	}
}

func (s *Store) execute(ctx context.Context, d deed.Request, req *transport.Request, final deed.Invocation) (any, error) {
	resp, err := s.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := s.respHandler(resp)
	if err != nil {
		return nil, err
	}

	if d.After != nil {
		data, err = d.After(ctx, s.requestExtras(), data)
		if err != nil {
			return nil, err
		}
	}

	if final == nil {
		return data, nil
	}
	if seq, ok := data.([]any); ok {
		return final(ctx, seq...)
	}
	return final(ctx, data)
}

func (s *Store) requestExtras() deed.RequestExtras {
	return deed.RequestExtras{
		Props: s.Props(),
		Cargo: s.VolatileCargo(),
		Deeds: s.Deeds(),
	}
}

// assemble builds the outgoing request in a fixed order: query params,
// config overrides, body, JSON, GraphQL, static headers. Later steps win.
func (s *Store) assemble(d deed.Request, args []any) (*transport.Request, error) {
	ex := deed.FetchExtras{Props: s.Props(), Cargo: s.VolatileCargo()}

	method := d.Verb
	if method == "" {
		method = http.MethodGet
	}
	headers := make(map[string]any, len(s.defaultHeaders))
	for k, v := range s.defaultHeaders {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	query := url.Values{}
	var body any

	if d.QueryParams.IsSet() {
		params, err := d.QueryParams.Resolve(ex, args...)
		if err != nil {
			return nil, fmt.Errorf("deed %q: query params: %w", d.Name, err)
		}
		if err := applyQuery(query, params); err != nil {
			return nil, fmt.Errorf("deed %q: %w", d.Name, err)
		}
	}

	if d.Config.IsSet() {
		cfg, err := d.Config.Resolve(ex, args...)
		if err != nil {
			return nil, fmt.Errorf("deed %q: config: %w", d.Name, err)
		}
		if cfg.Method != "" {
			method = strings.ToUpper(cfg.Method)
		}
		if cfg.Headers != nil {
			headers = make(map[string]any, len(cfg.Headers))
			for k, v := range cfg.Headers {
				headers[http.CanonicalHeaderKey(k)] = v
			}
		}
		if cfg.Body != nil {
			body = cfg.Body
		}
	}

	if d.Body.IsSet() {
		v, err := d.Body.Resolve(ex, args...)
		if err != nil {
			return nil, fmt.Errorf("deed %q: body: %w", d.Name, err)
		}
		body = v
	}

	if d.JSON.IsSet() {
		v, err := d.JSON.Resolve(ex, args...)
		if err != nil {
			return nil, fmt.Errorf("deed %q: json: %w", d.Name, err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("deed %q: encode json: %w", d.Name, err)
		}
		body = b
		headers["Content-Type"] = contentTypeJSONUTF8
	}

	if d.IsGraphQL() {
		q, err := s.printer(d.Node)
		if err != nil {
			return nil, fmt.Errorf("deed %q: print query: %w", d.Name, err)
		}
		var vars any
		if d.Vars.IsSet() {
			vars, err = d.Vars.Resolve(ex, args...)
			if err != nil {
				return nil, fmt.Errorf("deed %q: vars: %w", d.Name, err)
			}
		}
		b, err := json.Marshal(map[string]any{"query": q, "variables": vars})
		if err != nil {
			return nil, fmt.Errorf("deed %q: encode query: %w", d.Name, err)
		}
		method = http.MethodPost
		headers["Content-Type"] = contentTypeJSON
		headers["Accept"] = contentTypeJSON
		body = b
	}

	for k, v := range d.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}

	path, err := d.Path.Resolve(ex, args...)
	if err != nil {
		return nil, fmt.Errorf("deed %q: path: %w", d.Name, err)
	}
	if enc := query.Encode(); enc != "" {
		path += "?" + enc
	}

	req := &transport.Request{
		Method: method,
		URL:    s.resolveURL(path),
		Header: stripHeaders(headers),
	}
	if method != http.MethodGet && method != http.MethodHead {
		req.Body, err = encodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("deed %q: %w", d.Name, err)
		}
	}
	return req, nil
}

// resolveURL prefixes relative paths with the base URL.
func (s *Store) resolveURL(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return s.baseURL + path
}

// applyQuery merges params into q. Nil values remove the key; string
// slices add one value each.
func applyQuery(q url.Values, params any) error {
	switch p := params.(type) {
	case url.Values:
		for k, vs := range p {
			q[k] = append([]string(nil), vs...)
		}
	case map[string]string:
		for k, v := range p {
			q.Set(k, v)
		}
	default:
		c, ok := cargo.From(params)
		if !ok {
			return fmt.Errorf("got %T: %w", params, ErrQueryParams)
		}
		for k, v := range c {
			switch x := v.(type) {
			case nil:
				q.Del(k)
			case []string:
				q[k] = append([]string(nil), x...)
			default:
				q.Set(k, fmt.Sprint(x))
			}
		}
	}
	return nil
}

// stripHeaders drops nil values and converts the rest to http.Header.
func stripHeaders(headers map[string]any) http.Header {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		switch x := v.(type) {
		case string:
			h.Set(k, x)
		case []string:
			if x != nil {
				h[http.CanonicalHeaderKey(k)] = append([]string(nil), x...)
			}
		case nil:
		default:
			h.Set(k, fmt.Sprint(x))
		}
	}
	return h
}

// encodeBody converts a resolved body into bytes. A nil body sends none.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("got %T: %w", body, ErrInvalidBody)
}
