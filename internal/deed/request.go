package deed

import (
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/roach88/freight/internal/cargo"
)

// Request describes a deed that executes a network request.
//
// When Node is set the deed runs in GraphQL mode: the verb is forced to
// POST, content headers are forced to JSON and the body becomes
// {"query": <printed Node>, "variables": <Vars>}, overriding Body and JSON.
type Request struct {
	Name        string
	Path        Source[string]
	Verb        string
	Body        Source[any]
	JSON        Source[any]
	Config      Source[RequestConfig]
	QueryParams Source[any]
	Headers     map[string]any

	// After transforms the decoded response before Action runs.
	After AfterFunc

	// Action is the final action. If it is unset the transformed data is
	// returned to the caller and nothing is shipped to cargo.
	Action ActionFunc

	CatchError CatchFunc

	Node any
	Vars Source[any]
}

// DeedName implements Deed.
func (d Request) DeedName() string { return d.Name }

// DeedType implements Deed.
func (d Request) DeedType() Type { return TypeRequest }

// IsGraphQL reports whether the deed sends a query document.
func (d Request) IsGraphQL() bool { return d.Node != nil }

// RequestBuilder configures a Request.
type RequestBuilder struct {
	props Request
	err   error
}

// NewRequest starts a request deed called name.
func NewRequest(name string) *RequestBuilder {
	b := &RequestBuilder{props: Request{Name: name}}
	if name == "" {
		b.err = missing(name, "name", "non-empty string")
	}
	return b
}

// Hits sets the request path: a string, a func(FetchExtras, ...any) string,
// a ValueFunc[string] or a Source[string]. Paths that are not absolute URLs
// are prefixed with the store's base URL.
func (b *RequestBuilder) Hits(path any) *RequestBuilder {
	src, ok := sourceOf[string](path, true)
	if !ok || (!src.IsComputed() && src.value == "") {
		b.fail(invalid(b.props.Name, "path", path, "string", "function"))
		return b
	}
	b.props.Path = src
	return b
}

// WithVerb sets the HTTP method. Defaults to GET.
func (b *RequestBuilder) WithVerb(verb string) *RequestBuilder {
	v := strings.ToUpper(strings.TrimSpace(verb))
	if v == "" || strings.IndexFunc(v, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		b.fail(invalid(b.props.Name, "verb", verb, "HTTP method"))
		return b
	}
	b.props.Verb = v
	return b
}

// WithBody sets the raw request body: a literal (string, []byte or
// io.Reader) or a function computing it per invocation.
func (b *RequestBuilder) WithBody(body any) *RequestBuilder {
	src, ok := sourceOf[any](body, true)
	if !ok {
		b.fail(invalid(b.props.Name, "body", body, "literal", "function"))
		return b
	}
	b.props.Body = src
	return b
}

// WithJSON sets a value encoded as the JSON request body. It overrides
// WithBody and sets a JSON content type.
func (b *RequestBuilder) WithJSON(v any) *RequestBuilder {
	src, ok := sourceOf[any](v, true)
	if !ok {
		b.fail(invalid(b.props.Name, "json", v, "literal", "function"))
		return b
	}
	b.props.JSON = src
	return b
}

// WithConfig sets request overrides: a RequestConfig or a function
// returning one.
func (b *RequestBuilder) WithConfig(cfg any) *RequestBuilder {
	src, ok := sourceOf[RequestConfig](cfg, true)
	if !ok {
		b.fail(invalid(b.props.Name, "config", cfg, "RequestConfig", "function"))
		return b
	}
	b.props.Config = src
	return b
}

// WithQueryParams sets query parameters: a mapping (map[string]any,
// map[string]string or url.Values) or a function returning one. A function
// returning anything else fails the invocation.
func (b *RequestBuilder) WithQueryParams(params any) *RequestBuilder {
	src, ok := sourceOf[any](params, true)
	if ok && !src.IsComputed() {
		ok = IsQueryMapping(src.value)
	}
	if !ok {
		b.fail(invalid(b.props.Name, "queryParams", params, "mapping", "function"))
		return b
	}
	b.props.QueryParams = src
	return b
}

// WithHeaders sets static headers merged over everything else. A nil value
// removes the header from the outgoing request.
func (b *RequestBuilder) WithHeaders(headers any) *RequestBuilder {
	out := make(map[string]any)
	switch h := headers.(type) {
	case map[string]string:
		for k, v := range h {
			out[k] = v
		}
	case http.Header:
		for k, vs := range h {
			out[k] = append([]string(nil), vs...)
		}
	case map[string]any:
		for k, v := range h {
			if _, isString := v.(string); v != nil && !isString {
				b.fail(invalid(b.props.Name, "headers["+k+"]", v, "string", "nil"))
				return b
			}
			out[k] = v
		}
	default:
		b.fail(invalid(b.props.Name, "headers", headers, "map[string]string", "map[string]any"))
		return b
	}
	b.props.Headers = out
	return b
}

// Afterwards sets the post-fetch transform.
func (b *RequestBuilder) Afterwards(fn AfterFunc) *RequestBuilder {
	if fn == nil {
		b.fail(invalid(b.props.Name, "after", fn, "function"))
		return b
	}
	b.props.After = fn
	return b
}

// ThenDoes sets the final action applied to the transformed response.
// A sequence result is spread into positional arguments.
func (b *RequestBuilder) ThenDoes(fn ActionFunc) *RequestBuilder {
	if fn == nil {
		b.fail(invalid(b.props.Name, "action", fn, "function"))
		return b
	}
	b.props.Action = fn
	return b
}

// CatchError sets the handler for failures in the request chain.
func (b *RequestBuilder) CatchError(fn CatchFunc) *RequestBuilder {
	if fn == nil {
		b.fail(invalid(b.props.Name, "catchError", fn, "function"))
		return b
	}
	b.props.CatchError = fn
	return b
}

// WithNode switches the deed to GraphQL mode with the given query document.
func (b *RequestBuilder) WithNode(node any) *RequestBuilder {
	if node == nil {
		b.fail(invalid(b.props.Name, "node", node, "query document"))
		return b
	}
	b.props.Node = node
	return b
}

// AndVars sets the GraphQL variables: a literal or a function.
func (b *RequestBuilder) AndVars(vars any) *RequestBuilder {
	src, ok := sourceOf[any](vars, true)
	if !ok {
		b.fail(invalid(b.props.Name, "vars", vars, "literal", "function"))
		return b
	}
	b.props.Vars = src
	return b
}

// Err returns the first configuration error, if any.
func (b *RequestBuilder) Err() error { return b.err }

// Properties returns a snapshot of the configured properties.
func (b *RequestBuilder) Properties() Request {
	p := b.props
	p.Headers = maps.Clone(b.props.Headers)
	return p
}

// Build returns the immutable descriptor. The verb defaults to GET.
func (b *RequestBuilder) Build() (Request, error) {
	if b.err != nil {
		return Request{}, b.err
	}
	if !b.props.Path.IsSet() {
		return Request{}, missing(b.props.Name, "path", "string", "function")
	}
	p := b.Properties()
	if p.Verb == "" {
		p.Verb = http.MethodGet
	}
	return p, nil
}

// MustBuild is like Build but panics on error.
func (b *RequestBuilder) MustBuild() Request {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

func (b *RequestBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// IsQueryMapping reports whether v can be used as query parameters.
func IsQueryMapping(v any) bool {
	switch v.(type) {
	case map[string]any, map[string]string, url.Values, cargo.Cargo:
		return true
	default:
		return false
	}
}
