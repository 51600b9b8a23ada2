package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/gql"
	"github.com/roach88/freight/internal/transport"
)

func storeUser(_ context.Context, _ deed.ActionExtras, args ...any) (cargo.Cargo, error) {
	return cargo.Cargo{"user": args[0]}, nil
}

func TestRequest_GetUserEndToEnd(t *testing.T) {
	tr := jsonTransport(`{"id":1,"name":"Ada"}`)
	getUser := deed.NewRequest("getUser").
		Hits(func(_ deed.FetchExtras, args ...any) string {
			return fmt.Sprintf("/users/%v", args[0])
		}).
		ThenDoes(storeUser).
		MustBuild()

	s := newTestStore(t, batchless("users", cargo.Cargo{}, getUser),
		WithTransport(tr), WithBaseURL("https://api.test"))

	got, err := s.Invoke(context.Background(), "getUser", 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	req := tr.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://api.test/users/1", req.URL)
	assert.Nil(t, req.Body)
	assert.Equal(t, cargo.Cargo{"user": map[string]any{"id": float64(1), "name": "Ada"}}, s.Cargo())
}

func TestRequest_WithoutThenDoesReturnsData(t *testing.T) {
	tr := jsonTransport(`{"ok":true}`)
	ping := deed.NewRequest("ping").Hits("/ping").MustBuild()
	s := newTestStore(t, batchless("s", cargo.Cargo{}, ping), WithTransport(tr))

	var log listenerLog
	s.Subscribe("sub", log.listen)

	got, err := s.Invoke(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, got)
	assert.Zero(t, log.count())
}

func TestRequest_DefaultGETStripsBody(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("d").Hits("/x").WithBody("ignored").MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Nil(t, req.Body)
}

func TestRequest_JSONBody(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("save").
		Hits("/save").
		WithVerb("post").
		WithBody("overridden").
		WithJSON(func(ex deed.FetchExtras, args ...any) any {
			return map[string]any{"count": ex.Cargo["count"], "by": args[0]}
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", cargo.Cargo{"count": 2}, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "save", "ada")
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json; charset=utf-8", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"count":2,"by":"ada"}`, string(req.Body))
}

func TestRequest_GraphQLOverridesVerbAndBody(t *testing.T) {
	tr := jsonTransport(`{"data":{"user":{"id":"7"}}}`)
	doc := gql.Document{
		Name:      "GetUser",
		Variables: []gql.Variable{{Name: "id", Type: "ID!"}},
		Fields: []gql.Field{{
			Name:      "user",
			Arguments: []gql.Argument{{Name: "id", Value: "$id"}},
			Fields:    []gql.Field{{Name: "id"}},
		}},
	}
	d := deed.NewRequest("user").
		Hits("/graphql").
		WithVerb("PUT").
		WithJSON(map[string]any{"ignored": true}).
		WithNode(doc).
		AndVars(func(_ deed.FetchExtras, args ...any) any {
			return map[string]any{"id": args[0]}
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "user", "7")
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))

	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "query GetUser($id: ID!) {\n  user(id: $id) {\n    id\n  }\n}", body.Query)
	assert.Equal(t, map[string]any{"id": "7"}, body.Variables)
}

func TestRequest_GraphQLWithoutVarsSendsNull(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("q").Hits("/graphql").WithNode("{ me { id } }").MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "q")
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"{ me { id } }","variables":null}`, string(tr.last(t).Body))
}

func TestRequest_QueryPrinterOption(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("q").Hits("/graphql").WithNode(42).MustBuild()
	printer := func(node any) (string, error) { return fmt.Sprintf("query { n%v }", node), nil }
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr), WithQueryPrinter(printer))

	_, err := s.Invoke(context.Background(), "q")
	require.NoError(t, err)
	assert.Contains(t, string(tr.last(t).Body), `"query":"query { n42 }"`)
}

func TestRequest_Headers(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("d").
		Hits("/x").
		WithJSON(map[string]any{}).
		WithHeaders(map[string]any{
			"content-type": nil,
			"X-Trace":      "abc",
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", nil, d),
		WithTransport(tr),
		WithDefaultHeaders(http.Header{"Authorization": []string{"Bearer t"}}))

	_, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)

	h := tr.last(t).Header
	assert.Empty(t, h.Values("Content-Type"), "nil headers are stripped")
	assert.Equal(t, "abc", h.Get("X-Trace"))
	assert.Equal(t, "Bearer t", h.Get("Authorization"))
}

func TestRequest_HeadersKeepMultipleValues(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("d").
		Hits("/x").
		WithHeaders(http.Header{
			"Accept":  []string{"application/json", "text/plain"},
			"X-Trace": []string{"abc"},
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)

	h := tr.last(t).Header
	assert.Equal(t, []string{"application/json", "text/plain"}, h.Values("Accept"))
	assert.Equal(t, []string{"abc"}, h.Values("X-Trace"))
}

func TestRequest_ConfigOverrides(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("d").
		Hits("/x").
		WithConfig(deed.RequestConfig{
			Method:  "delete",
			Headers: map[string]any{"X-Only": "1"},
			Body:    "payload",
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", nil, d),
		WithTransport(tr),
		WithDefaultHeaders(http.Header{"Authorization": []string{"Bearer t"}}))

	_, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "payload", string(req.Body))
	assert.Equal(t, "1", req.Header.Get("X-Only"))
	assert.Empty(t, req.Header.Get("Authorization"), "config headers replace the set")
}

func TestRequest_QueryParams(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("search").
		Hits("/search").
		WithQueryParams(func(_ deed.FetchExtras, args ...any) any {
			return map[string]any{"q": args[0], "page": 2, "tag": []string{"a", "b"}, "skip": nil}
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "search", "go lang")
	require.NoError(t, err)
	assert.Equal(t, "/search?page=2&q=go+lang&tag=a&tag=b", tr.last(t).URL)
}

func TestRequest_QueryParamsMustBeMapping(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("search").
		Hits("/search").
		WithQueryParams(func(deed.FetchExtras, ...any) any { return "q=1" }).
		MustBuild()
	caught := false
	d.CatchError = func(context.Context, deed.RequestExtras, error) (any, error) {
		caught = true
		return nil, nil
	}
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "search")
	require.ErrorIs(t, err, ErrQueryParams)
	assert.False(t, caught, "assembly errors bypass CatchError")
	assert.Empty(t, tr.requests)
}

func TestRequest_AbsolutePathSkipsBaseURL(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("d").Hits("https://other.test/x").MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr), WithBaseURL("https://api.test"))

	_, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, "https://other.test/x", tr.last(t).URL)
}

func TestRequest_AfterSpreadsSequence(t *testing.T) {
	tr := jsonTransport(`{"first":"a","second":"b"}`)
	var got []any
	d := deed.NewRequest("d").
		Hits("/pair").
		Afterwards(func(_ context.Context, _ deed.RequestExtras, data any) (any, error) {
			m := data.(map[string]any)
			return []any{m["first"], m["second"]}, nil
		}).
		ThenDoes(func(_ context.Context, _ deed.ActionExtras, args ...any) (cargo.Cargo, error) {
			got = args
			return cargo.Cargo{"pair": strings.Join([]string{args[0].(string), args[1].(string)}, "")}, nil
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", cargo.Cargo{}, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)
	assert.Equal(t, cargo.Cargo{"pair": "ab"}, s.Cargo())
}

func TestRequest_CatchError(t *testing.T) {
	tr := jsonTransport(`{"error":"nope"}`)
	tr.status = http.StatusNotFound

	var caught error
	var extras deed.RequestExtras
	d := deed.NewRequest("d").
		Hits("/missing").
		ThenDoes(storeUser).
		CatchError(func(_ context.Context, ex deed.RequestExtras, err error) (any, error) {
			caught = err
			extras = ex
			return "fallback", nil
		}).
		MustBuild()
	s := newTestStore(t, batchless("s", cargo.Cargo{"a": 1}, d), WithTransport(tr))

	got, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	var respErr *transport.ResponseError
	require.ErrorAs(t, caught, &respErr)
	assert.Equal(t, http.StatusNotFound, respErr.Status)
	assert.Equal(t, map[string]any{"error": "nope"}, respErr.Body)
	assert.Equal(t, cargo.Cargo{"a": 1}, extras.Cargo)
	assert.Contains(t, extras.Deeds, "d")
	assert.Equal(t, cargo.Cargo{"a": 1}, s.Cargo())
}

func TestRequest_ErrorHandler(t *testing.T) {
	tr := jsonTransport(`{}`)
	tr.err = errors.New("connection refused")
	d := deed.NewRequest("d").Hits("/x").MustBuild()

	t.Run("default re-raises", func(t *testing.T) {
		s := newTestStore(t, batchless("a", nil, d), WithTransport(tr))
		_, err := s.Invoke(context.Background(), "d")
		require.ErrorIs(t, err, tr.err)
	})

	t.Run("store handler", func(t *testing.T) {
		handler := func(_ context.Context, err error) (any, error) {
			return "handled: " + err.Error(), nil
		}
		s := newTestStore(t, batchless("b", nil, d), WithTransport(tr), WithErrorHandler(handler))
		got, err := s.Invoke(context.Background(), "d")
		require.NoError(t, err)
		assert.Equal(t, "handled: connection refused", got)
	})
}

func TestRequest_ResponseHandlerOption(t *testing.T) {
	tr := &recordingTransport{status: http.StatusOK, body: "plain text"}
	d := deed.NewRequest("d").Hits("/x").MustBuild()
	handler := func(resp *transport.Response) (any, error) {
		return string(resp.Body), nil
	}
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr), WithResponseHandler(handler))

	got, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
}

func TestRequest_NonJSONResponseMessage(t *testing.T) {
	tr := &recordingTransport{status: http.StatusOK, header: http.Header{"Content-Type": []string{"text/html"}}, body: "<p>"}
	d := deed.NewRequest("d").Hits("/x").MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr), WithBaseURL("https://api.test"))

	got, err := s.Invoke(context.Background(), "d")
	require.NoError(t, err)
	msg := got.(map[string]any)["message"].(string)
	assert.Contains(t, msg, "https://api.test/x")
	assert.Contains(t, msg, "other than JSON")
}

func TestRequest_InvalidBody(t *testing.T) {
	tr := jsonTransport(`{}`)
	d := deed.NewRequest("d").Hits("/x").WithVerb("POST").WithBody(42).MustBuild()
	s := newTestStore(t, batchless("s", nil, d), WithTransport(tr))

	_, err := s.Invoke(context.Background(), "d")
	require.ErrorIs(t, err, ErrInvalidBody)
}

func TestApplyQuery(t *testing.T) {
	q := map[string][]string{"keep": {"1"}, "drop": {"x"}}
	err := applyQuery(q, cargo.Cargo{"drop": nil, "add": true})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"keep": {"1"}, "add": {"true"}}, map[string][]string(q))

	err = applyQuery(q, map[string]any{"add": nil, "n": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"keep": {"1"}, "n": {"3"}}, map[string][]string(q))

	require.ErrorIs(t, applyQuery(q, []string{"a"}), ErrQueryParams)
	require.ErrorIs(t, applyQuery(q, map[string]int{"a": 1}), ErrQueryParams)
}
