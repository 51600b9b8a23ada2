// Package cargo provides the state snapshot type shared by stores and
// subscribers, together with the merge, comparison and serialization rules
// that the batching scheduler and change detection depend on.
//
// This package has no internal dependencies. Everything above it (deed,
// store, subscriber, journal) treats Cargo as an opaque mapping and defers
// to the functions here for:
//   - Merging deltas into a batch or snapshot (shallow or deep, see Mode)
//   - One-level-deep equality of derived views (EqualOneLevel)
//   - Canonical JSON for journal entries and golden traces (MarshalCanonical)
package cargo
