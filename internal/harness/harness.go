package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/config"
	"github.com/roach88/freight/internal/store"
	"github.com/roach88/freight/internal/testutil"
	"github.com/roach88/freight/internal/transport"
)

// heldBatchTime replaces the batch window of batched stores so that only
// the harness flushes them.
const heldBatchTime = time.Hour

// Harness runs one scenario.
type Harness struct {
	stores   map[string]*store.Store
	order    []string
	stub     *testutil.StubTransport
	clock    *testutil.DeterministicClock
	registry *store.Registry
	logger   *slog.Logger

	mu     sync.Mutex
	result *Result
}

// Run executes a scenario and returns its result.
//
// Every run builds fresh stores in a test-mode registry. Execution flow:
//  1. Load the store definition file
//  2. Build the stores with the stub transport and deterministic clock
//  3. Run each step, flushing every store afterwards
//  4. Collect the final cargo and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	defs, err := config.Load(scenario.Stores)
	if err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}

	h := &Harness{
		stores: make(map[string]*store.Store),
		stub:   testutil.NewStubTransport(),
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		result: NewResult(),
	}
	h.registry = store.NewRegistry(store.WithTestMode(), store.WithRegistryLogger(h.logger))

	for _, r := range scenario.Responses {
		body, err := responseBody(r.Body)
		if err != nil {
			return nil, fmt.Errorf("response %s %s: %w", r.Method, r.Path, err)
		}
		h.stub.On(r.Method, r.Path, testutil.CannedResponse{
			Status:      r.Status,
			ContentType: r.ContentType,
			Body:        body,
		})
	}

	if err := h.build(defs); err != nil {
		return nil, err
	}
	defer h.close()

	ctx := context.Background()
	for i, step := range scenario.Flow {
		h.runStep(ctx, i, step)
	}

	for _, name := range h.order {
		h.result.Cargo[name] = map[string]any(h.stores[name].Cargo())
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, h.stub.Requests()) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// build creates every store of defs.
func (h *Harness) build(defs *config.File) error {
	cfgs, err := defs.Configs()
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}

	tokens := testutil.NewCountingGenerator("test")
	recorder := store.RecorderFunc(h.recordEmission)
	tr := transport.Func(h.send)

	for _, cfg := range cfgs {
		if cfg.BatchTime > 0 {
			cfg.BatchTime = heldBatchTime
		}
		opts := append(defs.Options(),
			store.WithRegistry(h.registry),
			store.WithTransport(tr),
			store.WithClock(h.clock),
			store.WithRecorder(recorder),
			store.WithTokenGenerator(tokens),
			store.WithLogger(h.logger),
		)
		s, err := store.New(cfg, opts...)
		if err != nil {
			h.close()
			return fmt.Errorf("build stores: %w", err)
		}
		h.stores[s.Name()] = s
		h.order = append(h.order, s.Name())
	}
	return nil
}

func (h *Harness) close() {
	for _, s := range h.stores {
		s.Disconnect()
	}
}

func (h *Harness) runStep(ctx context.Context, i int, step Step) {
	if step.Update != "" {
		s, ok := h.stores[step.Update]
		if !ok {
			h.result.AddError(fmt.Sprintf("flow[%d]: unknown store %q", i, step.Update))
			return
		}
		h.appendEvent(TraceEvent{Type: EventUpdate, Store: step.Update, Cargo: step.Cargo})
		s.Update(cargo.Cargo(step.Cargo))
		h.flushAll()
		return
	}

	storeName, deedName, _ := splitTarget(step.Invoke)
	s, ok := h.stores[storeName]
	if !ok {
		h.result.AddError(fmt.Sprintf("flow[%d]: unknown store %q", i, storeName))
		return
	}

	idx := h.appendEvent(TraceEvent{Type: EventInvoke, Store: storeName, Deed: deedName, Args: step.Args})
	got, err := s.Invoke(ctx, deedName, step.Args...)
	h.flushAll()

	h.mu.Lock()
	if err != nil {
		h.result.Trace[idx].Error = err.Error()
	} else {
		h.result.Trace[idx].Result = got
	}
	h.mu.Unlock()

	if step.Expect != nil {
		if msg := checkExpect(step.Expect, got, err); msg != "" {
			h.result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Invoke, msg))
		}
	} else if err != nil {
		h.result.AddError(fmt.Sprintf("flow[%d] %s: unexpected error: %v", i, step.Invoke, err))
	}
}

// flushAll flushes every store in definition order.
func (h *Harness) flushAll() {
	for _, name := range h.order {
		h.stores[name].Flush()
	}
}

func (h *Harness) appendEvent(ev TraceEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.Trace = append(h.result.Trace, ev)
	return len(h.result.Trace) - 1
}

func (h *Harness) recordEmission(_ context.Context, e store.Emission) error {
	h.appendEvent(TraceEvent{
		Type:  EventEmission,
		Store: e.Store,
		Seq:   e.Seq,
		Cargo: map[string]any(e.Cargo),
	})
	return nil
}

// send records the request and forwards it to the stub transport.
func (h *Harness) send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	ev := TraceEvent{Type: EventRequest, Method: req.Method, URL: req.URL}
	if u, err := url.Parse(req.URL); err == nil {
		ev.URL = u.RequestURI()
	}
	h.appendEvent(ev)
	return h.stub.Do(ctx, req)
}

func responseBody(body any) (string, error) {
	switch b := body.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// checkExpect compares an invocation outcome with its expectation.
func checkExpect(exp *Expect, got any, err error) string {
	if exp.Error != "" {
		if err == nil {
			return fmt.Sprintf("expected error containing %q, got none", exp.Error)
		}
		if !bytes.Contains([]byte(err.Error()), []byte(exp.Error)) {
			return fmt.Sprintf("expected error containing %q, got %q", exp.Error, err.Error())
		}
		return ""
	}
	if err != nil {
		return fmt.Sprintf("unexpected error: %v", err)
	}
	if exp.Result != nil && !valuesEqual(exp.Result, got) {
		return fmt.Sprintf("expected result %s, got %s", render(exp.Result), render(got))
	}
	return ""
}
