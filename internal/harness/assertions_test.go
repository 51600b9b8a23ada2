package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/freight/internal/transport"
)

func TestEvaluateAssertions_FinalCargo(t *testing.T) {
	result := NewResult()
	result.Cargo["counter"] = map[string]any{"count": float64(2), "extra": true}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFinalCargo, Store: "counter", Expect: map[string]any{"count": 2}},
	}, nil)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertFinalCargo, Store: "counter", Expect: map[string]any{"count": 3}},
		{Type: AssertFinalCargo, Store: "counter", Expect: map[string]any{"missing": 1}},
		{Type: AssertFinalCargo, Store: "ghost", Expect: map[string]any{"a": 1}},
	}, nil)
	assert.Equal(t, []string{
		"assertion failed: final_cargo: expected counter.count = 3, actual 2",
		"assertion failed: final_cargo: expected counter.missing = 1, actual key missing",
		"assertion failed: final_cargo: expected store ghost, actual no such store",
	}, errs)
}

func TestEvaluateAssertions_EmissionCount(t *testing.T) {
	result := NewResult()
	result.Trace = []TraceEvent{
		{Type: EventEmission, Store: "a", Seq: 1},
		{Type: EventInvoke, Store: "a"},
		{Type: EventEmission, Store: "b", Seq: 2},
	}

	assert.Empty(t, EvaluateAssertions(result, []Assertion{{Type: AssertEmissionCount, Store: "a", Count: 1}}, nil))
	assert.Equal(t, []string{"assertion failed: emission_count: expected 2 emissions of b, actual 1 emissions"},
		EvaluateAssertions(result, []Assertion{{Type: AssertEmissionCount, Store: "b", Count: 2}}, nil))
}

func TestEvaluateAssertions_RequestCount(t *testing.T) {
	requests := []*transport.Request{
		{Method: "GET", URL: "https://api.test/users/1?x=1"},
		{Method: "GET", URL: "https://api.test/users/1"},
		{Method: "POST", URL: "https://api.test/users/1"},
	}

	assert.Empty(t, EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertRequestCount, Method: "get", Path: "/users/1", Count: 2},
		{Type: AssertRequestCount, Method: "POST", Path: "/users/1", Count: 1},
		{Type: AssertRequestCount, Method: "DELETE", Path: "/users/1", Count: 0},
	}, requests))

	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertRequestCount, Method: "GET", Path: "/users/2", Count: 1},
	}, requests)
	assert.Equal(t, []string{"assertion failed: request_count: expected 1 requests to GET /users/2, actual 0 requests"}, errs)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "vibes"}}, nil)
	assert.Equal(t, []string{`unknown assertion type "vibes"`}, errs)
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(1, float64(1)))
	assert.True(t, valuesEqual(map[string]any{"a": []any{1}}, map[string]any{"a": []any{float64(1)}}))
	assert.False(t, valuesEqual("1", 1))
	assert.Equal(t, `{"a":1}`, render(map[string]any{"a": 1}))
}
