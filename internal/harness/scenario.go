package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a flow of steps run against the stores of one definition
// file.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Stores is the store definition file. Relative paths are resolved
	// against the scenario file's directory.
	Stores string `yaml:"stores"`

	// Responses are served by the stub transport.
	Responses []Response `yaml:"responses,omitempty"`

	Flow       []Step      `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Response is a canned HTTP response matched by method and path.
type Response struct {
	Method      string `yaml:"method"`
	Path        string `yaml:"path"`
	Status      int    `yaml:"status,omitempty"`
	ContentType string `yaml:"content_type,omitempty"`

	// Body is sent verbatim when it is a string and as JSON otherwise.
	Body any `yaml:"body,omitempty"`
}

// Step either invokes a deed ("store.deed") or pushes a delta into a
// store with Update.
type Step struct {
	Invoke string `yaml:"invoke,omitempty"`
	Args   []any  `yaml:"args,omitempty"`

	Update string         `yaml:"update,omitempty"`
	Cargo  map[string]any `yaml:"cargo,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect checks the outcome of an invoke step.
type Expect struct {
	// Result must equal the invocation result when set.
	Result any `yaml:"result,omitempty"`

	// Error must be a substring of the invocation error when set.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the final state or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Store  string         `yaml:"store,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Method string         `yaml:"method,omitempty"`
	Path   string         `yaml:"path,omitempty"`
}

// Assertion types.
const (
	// AssertFinalCargo compares the listed top-level keys of a store's
	// final cargo.
	AssertFinalCargo = "final_cargo"
	// AssertEmissionCount checks how many times a store flushed.
	AssertEmissionCount = "emission_count"
	// AssertRequestCount checks how many requests hit method and path.
	AssertRequestCount = "request_count"
)

// ErrInvalidScenario is wrapped by every scenario validation error.
var ErrInvalidScenario = errors.New("freight: invalid scenario")

// LoadScenario reads a scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.Stores != "" && !filepath.IsAbs(s.Stores) {
		s.Stores = filepath.Join(filepath.Dir(path), s.Stores)
	}

	if err := validateScenario(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if s.Stores == "" {
		return fmt.Errorf("%w: %s: stores is required", ErrInvalidScenario, s.Name)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("%w: %s: flow must have at least one step", ErrInvalidScenario, s.Name)
	}

	for i, r := range s.Responses {
		if r.Method == "" || r.Path == "" {
			return fmt.Errorf("%w: %s: responses[%d]: method and path are required", ErrInvalidScenario, s.Name, i)
		}
	}

	for i, step := range s.Flow {
		switch {
		case step.Invoke != "" && step.Update != "":
			return fmt.Errorf("%w: %s: flow[%d]: invoke and update are exclusive", ErrInvalidScenario, s.Name, i)
		case step.Invoke != "":
			if _, _, ok := splitTarget(step.Invoke); !ok {
				return fmt.Errorf("%w: %s: flow[%d]: invoke must be store.deed, got %q", ErrInvalidScenario, s.Name, i, step.Invoke)
			}
		case step.Update != "":
			if step.Expect != nil {
				return fmt.Errorf("%w: %s: flow[%d]: update steps have no result to expect", ErrInvalidScenario, s.Name, i)
			}
		default:
			return fmt.Errorf("%w: %s: flow[%d]: invoke or update is required", ErrInvalidScenario, s.Name, i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("%w: %s: assertions[%d]: %v", ErrInvalidScenario, s.Name, i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertFinalCargo:
		if a.Store == "" || a.Expect == nil {
			return errors.New("final_cargo needs store and expect")
		}
	case AssertEmissionCount:
		if a.Store == "" {
			return errors.New("emission_count needs store")
		}
	case AssertRequestCount:
		if a.Method == "" || a.Path == "" {
			return errors.New("request_count needs method and path")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// splitTarget splits "store.deed" at the last dot.
func splitTarget(target string) (storeName, deedName string, ok bool) {
	i := strings.LastIndexByte(target, '.')
	if i <= 0 || i == len(target)-1 {
		return "", "", false
	}
	return target[:i], target[i+1:], true
}
