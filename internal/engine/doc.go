// Package engine implements the incremental prerequisite-ordering resolver.
//
// The resolver consumes records one at a time, in input order, and emits
// each item as soon as every prerequisite it declared has been emitted. It
// never builds the whole graph before sorting and never revisits a settled
// item.
//
// ARCHITECTURE:
//
// State (owned by one Resolver for one run):
//   - emitted set: identifiers already produced, grows monotonically
//   - pending index: item -> prerequisites it still waits on
//   - reverse index: prerequisite -> items waiting on it
//   - ready queue: FIFO of items released by a cascade, not yet emitted
//
// Processing Flow:
//  1. Phase 1, per record: an item with no outstanding prerequisites is
//     emitted at once; otherwise it registers in both indexes
//  2. Each emission discharges the item from its dependents; dependents
//     whose outstanding set empties are pushed to the ready queue
//  3. Phase 2, after the last record: the ready queue is drained, each pop
//     emitting and cascading further
//  4. Leftover pending entries mean an unresolved dependency: a cycle, or a
//     prerequisite that never appeared as a record
//
// Every edge is discharged at most once and every item is registered and
// emitted at most once, so a run is O(V + E).
//
// Determinism: for a fixed input order the emitted sequence is fixed.
// Reverse-index lists keep registration order, and cascades use the queue,
// never recursion.
package engine
