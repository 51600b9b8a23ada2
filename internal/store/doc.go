// Package store implements the freight store engine.
//
// A Store owns a cargo snapshot and a set of compiled deeds. Deeds produce
// deltas; deltas are merged into a pending batch and, after a debounce
// window, flushed into cargo and broadcast to subscriber listeners.
//
// # Batching
//
// Each enqueue merges the delta into the batch and into the volatile cargo
// (committed cargo plus the unflushed batch) using the store's mode:
//
//   - cargo.Shallow: top-level keys are overwritten wholesale
//   - cargo.Deep: nested mappings are merged key by key
//
// The first enqueue after a flush starts a single timer of BatchTime. When
// it fires, the batch is flushed: cargo becomes the volatile cargo, the
// batch resets and every listener receives the new cargo. A BatchTime of
// zero makes the store batchless and every enqueue flushes immediately.
//
// INVARIANTS:
//   - Cargo only changes in the flush step
//   - At most one flush timer exists per store
//   - Broadcasts are delivered in flush order (per store FIFO)
//   - There is no ordering between different stores
//
// # Concurrency
//
// Deeds may be invoked from any goroutine. User code (actions, transforms,
// the transport) runs without the store lock held, so concurrent
// invocations complete in any order and the batch reflects completion
// order, not invocation order. Listeners run outside the lock too; a
// listener may invoke deeds on the store that called it.
//
// # Registry
//
// Stores publish themselves in an injected Registry under their name. A
// second store with the same name replaces the first (last writer wins);
// subscribers of the replaced store are not migrated.
//
// # Errors
//
//   - [ErrDuplicateDeed] - two deeds with one name on a store
//   - [ErrEmptyName] - a NameFunc produced an empty name
//   - [ErrUnknownDeedType] - a deed reports a type the store cannot compile
//   - [ErrQueryParams] - query parameters resolved to a non-mapping
//   - [ErrStoreNotFound] - Assign for a name nobody registered
//   - [ErrNotTestMode], [ErrAlreadyMocked], [ErrNotMocked] - test mode misuse
package store
