// Package harness runs scenario files against freight stores.
//
// A scenario names a store definition file, canned HTTP responses and a
// flow of steps. The harness builds every store in a fresh registry with a
// stub transport, a shared deterministic clock and counting tokens, runs
// the flow and records a trace of invocations, requests and emissions.
//
// # Scenario Format
//
//	name: counter_increments
//	description: "Two increments, then an external update"
//	stores: stores.yaml
//	responses:
//	  - method: GET
//	    path: /users/7
//	    body: { id: 7 }
//	flow:
//	  - invoke: counter.increment
//	  - invoke: users.getUser
//	    args: [7]
//	  - update: counter
//	    cargo: { count: 10 }
//	assertions:
//	  - type: final_cargo
//	    store: counter
//	    expect: { count: 10 }
//	  - type: emission_count
//	    store: counter
//	    count: 3
//	  - type: request_count
//	    method: GET
//	    path: /users/7
//	    count: 1
//
// # Determinism
//
// Batched stores never flush on their own inside the harness. After every
// step the harness flushes each store in definition order, so the trace of
// a scenario is identical on every run and can be compared against a
// golden file with RunWithGolden.
package harness
