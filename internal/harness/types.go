package harness

// Trace event types.
const (
	EventInvoke   = "invoke"
	EventUpdate   = "update"
	EventRequest  = "request"
	EventEmission = "emission"
)

// TraceEvent is one entry of a scenario trace. Which fields are set depends
// on Type.
type TraceEvent struct {
	Type  string `json:"type"`
	Store string `json:"store,omitempty"`
	Deed  string `json:"deed,omitempty"`
	Args  []any  `json:"args,omitempty"`

	// Result and Error are the outcome of an invoke.
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`

	// Method and URL describe a request.
	Method string `json:"method,omitempty"`
	URL    string `json:"url,omitempty"`

	// Seq and Cargo describe an emission; Cargo is also the delta of an
	// update.
	Seq   int64 `json:"seq,omitempty"`
	Cargo any   `json:"cargo,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Cargo holds the final cargo of every store by name.
	Cargo map[string]any `json:"cargo"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Cargo:  make(map[string]any),
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Emissions counts the emissions of store.
func (r *Result) Emissions(store string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Type == EventEmission && ev.Store == store {
			n++
		}
	}
	return n
}
