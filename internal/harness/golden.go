package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/freight/internal/cargo"
)

// Snapshot is the golden form of a scenario run.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Cargo        map[string]any `json:"cargo"`
}

// canonicalMap converts the snapshot to plain maps so that the canonical
// encoder controls key order and omits unset fields.
func (s *Snapshot) canonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{"type": ev.Type}
		if ev.Store != "" {
			m["store"] = ev.Store
		}
		if ev.Deed != "" {
			m["deed"] = ev.Deed
		}
		if len(ev.Args) > 0 {
			m["args"] = ev.Args
		}
		if ev.Result != nil {
			m["result"] = ev.Result
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		if ev.Method != "" {
			m["method"] = ev.Method
		}
		if ev.URL != "" {
			m["url"] = ev.URL
		}
		if ev.Seq != 0 {
			m["seq"] = ev.Seq
		}
		if ev.Cargo != nil {
			m["cargo"] = ev.Cargo
		}
		trace[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"cargo":         s.Cargo,
	}
}

// Marshal returns the canonical JSON of the snapshot.
func (s *Snapshot) Marshal() ([]byte, error) {
	return cargo.MarshalCanonical(s.canonicalMap())
}

// RunWithGolden runs a scenario and compares its snapshot with
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snap := Snapshot{ScenarioName: name, Trace: result.Trace, Cargo: result.Cargo}
	data, err := snap.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
