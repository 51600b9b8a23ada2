package harness

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/transport"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, requests []*transport.Request) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalCargo:
			err = assertFinalCargo(result, a)
		case AssertEmissionCount:
			err = assertEmissionCount(result, a)
		case AssertRequestCount:
			err = assertRequestCount(requests, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertFinalCargo compares only the keys listed in the assertion.
func assertFinalCargo(result *Result, a Assertion) error {
	final, ok := result.Cargo[a.Store].(map[string]any)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "store " + a.Store, Actual: "no such store"}
	}
	for _, k := range cargo.Cargo(a.Expect).Keys() {
		want := a.Expect[k]
		got, present := final[k]
		if !present {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s.%s = %s", a.Store, k, render(want)),
				Actual:   "key missing",
			}
		}
		if !valuesEqual(want, got) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s.%s = %s", a.Store, k, render(want)),
				Actual:   render(got),
			}
		}
	}
	return nil
}

func assertEmissionCount(result *Result, a Assertion) error {
	if n := result.Emissions(a.Store); n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d emissions of %s", a.Count, a.Store),
			Actual:   fmt.Sprintf("%d emissions", n),
		}
	}
	return nil
}

func assertRequestCount(requests []*transport.Request, a Assertion) error {
	n := 0
	for _, r := range requests {
		u, err := url.Parse(r.URL)
		if err != nil {
			continue
		}
		if strings.EqualFold(r.Method, a.Method) && u.Path == a.Path {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d requests to %s %s", a.Count, a.Method, a.Path),
			Actual:   fmt.Sprintf("%d requests", n),
		}
	}
	return nil
}

// valuesEqual compares two values by their canonical JSON, so YAML
// integers equal decoded JSON floats of the same value.
func valuesEqual(a, b any) bool {
	ja, errA := cargo.MarshalCanonical(a)
	jb, errB := cargo.MarshalCanonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

func render(v any) string {
	data, err := cargo.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
