package config

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/deed"
	"github.com/roach88/freight/internal/store"
	"github.com/roach88/freight/internal/testutil"
)

func TestLoad_Valid(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "stores.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test", f.BaseURL)
	require.Len(t, f.Stores, 2)

	cfgs, err := f.Configs()
	require.NoError(t, err)

	counter := cfgs[0]
	assert.Equal(t, "counter", counter.Name)
	assert.Equal(t, time.Duration(0), counter.BatchTime)
	assert.Equal(t, cargo.Shallow, counter.BatchMode)
	assert.Equal(t, cargo.Cargo{"count": 0}, counter.Cargo)
	require.Len(t, counter.Deeds, 2)
	assert.Equal(t, deed.TypeAction, counter.Deeds[0].DeedType())

	users := cfgs[1]
	assert.Equal(t, store.DefaultBatchTime, users.BatchTime)
	assert.Equal(t, cargo.Deep, users.BatchMode)
	assert.Equal(t, deed.TypeRequest, users.Deeds[0].DeedType())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no stores", "stores: []\n"},
		{"empty store name", "stores:\n  - name: \"\"\n"},
		{"negative batch time", "stores:\n  - name: s\n    batch_time_ms: -1\n"},
		{"bad batch mode", "stores:\n  - name: s\n    batch_mode: sideways\n"},
		{"unknown deed type", "stores:\n  - name: s\n    deeds:\n      - name: d\n        type: flow\n"},
		{"request without path", "stores:\n  - name: s\n    deeds:\n      - name: d\n        type: request\n"},
		{"unknown field", "stores:\n  - name: s\n    colour: red\n"},
		{"action with path", "stores:\n  - name: s\n    deeds:\n      - name: d\n        type: action\n        path: /x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "test.yaml")
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), "test.yaml")
		})
	}
}

func TestParse_DuplicateNames(t *testing.T) {
	_, err := Parse([]byte("stores:\n  - name: s\n  - name: s\n"), "dup.yaml")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), `store "s" defined twice`)

	_, err = Parse([]byte(`stores:
  - name: s
    deeds:
      - {name: d, type: action}
      - {name: d, type: action}
`), "dup.yaml")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), `deed "d" defined twice`)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("stores: [\n"), "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func buildStores(t *testing.T, tr *testutil.StubTransport) map[string]*store.Store {
	t.Helper()
	f, err := Load(filepath.Join("testdata", "stores.yaml"))
	require.NoError(t, err)
	cfgs, err := f.Configs()
	require.NoError(t, err)

	opts := append(f.Options(),
		store.WithTransport(tr),
		store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	out := make(map[string]*store.Store)
	for _, cfg := range cfgs {
		cfg.BatchTime = 0
		s, err := store.New(cfg, opts...)
		require.NoError(t, err)
		t.Cleanup(s.Disconnect)
		out[s.Name()] = s
	}
	return out
}

func TestBuiltActions(t *testing.T) {
	stores := buildStores(t, testutil.NewStubTransport())
	counter := stores["counter"]
	ctx := context.Background()

	_, err := counter.Invoke(ctx, "increment")
	require.NoError(t, err)
	_, err = counter.Invoke(ctx, "increment")
	require.NoError(t, err)
	assert.Equal(t, cargo.Cargo{"count": 2}, counter.Cargo())

	_, err = counter.Invoke(ctx, "reset")
	require.NoError(t, err)
	assert.Equal(t, cargo.Cargo{"count": 0}, counter.Cargo())
}

func TestBuiltRequests(t *testing.T) {
	tr := testutil.NewStubTransport().
		On("GET", "/users/7", testutil.CannedResponse{Body: `{"id":7}`}).
		On("GET", "/search", testutil.CannedResponse{Body: `[]`}).
		On("PATCH", "/users/7", testutil.CannedResponse{Body: `{}`})
	users := buildStores(t, tr)["users"]
	ctx := context.Background()

	_, err := users.Invoke(ctx, "getUser", 7)
	require.NoError(t, err)
	assert.Equal(t, cargo.Cargo{"user": map[string]any{"id": float64(7)}}, users.Cargo())

	reqs := tr.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "https://api.example.test/users/7", reqs[0].URL)
	assert.Equal(t, "Bearer token", reqs[0].Header.Get("Authorization"))

	got, err := users.Invoke(ctx, "search", "go lang")
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)
	assert.Equal(t, "https://api.example.test/search?q=go+lang", tr.Requests()[1].URL)

	_, err = users.Invoke(ctx, "rename", 7, "Ada")
	require.NoError(t, err)
	patch := tr.Requests()[2]
	assert.Equal(t, http.MethodPatch, patch.Method)
	var body map[string]any
	require.NoError(t, json.Unmarshal(patch.Body, &body))
	assert.Equal(t, map[string]any{"name": "Ada"}, body)
}

func TestStoreAs_KeepsListResponsesWhole(t *testing.T) {
	f, err := Parse([]byte(`stores:
  - name: catalog
    batch_time_ms: 0
    deeds:
      - name: list
        type: request
        path: /items
        store_as: items
`), "catalog.yaml")
	require.NoError(t, err)
	cfgs, err := f.Configs()
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want any
	}{
		{"empty", `[]`, []any{}},
		{"one item", `[{"id":1}]`, []any{map[string]any{"id": float64(1)}}},
		{"two items", `[{"id":1},{"id":2}]`, []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}}},
		{"object", `{"id":1}`, map[string]any{"id": float64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testutil.NewStubTransport().On("GET", "/items", testutil.CannedResponse{Body: tt.body})
			s, err := store.New(cfgs[0],
				store.WithTransport(tr),
				store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			require.NoError(t, err)
			defer s.Disconnect()

			got, err := s.Invoke(context.Background(), "list")
			require.NoError(t, err)
			assert.Nil(t, got)
			assert.Equal(t, cargo.Cargo{"items": tt.want}, s.Cargo())
		})
	}
}

func TestExpand(t *testing.T) {
	args := []any{7, "ada"}

	assert.Equal(t, "/users/7/ada", expandString("/users/{0}/{1}", args))
	assert.Equal(t, "/x/{2}/{y}", expandString("/x/{2}/{y}", args))
	assert.Equal(t, 7, expand("{0}", args))
	assert.Equal(t, map[string]any{"a": []any{"ada", "n=7"}}, expand(map[string]any{"a": []any{"{1}", "n={0}"}}, args))
}

func TestAddNumber(t *testing.T) {
	got, err := addNumber(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = addNumber(nil, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)

	got, err = addNumber(1.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	_, err = addNumber("x", 1)
	require.Error(t, err)
}
