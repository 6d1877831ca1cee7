// Package store provides a SQLite-backed log of resolution runs.
//
// Each run records:
//   - Runs: one row per resolution, with input hash, status and counts
//   - Run records: the input records in the order they were presented
//   - Emissions: the emitted order, one row per item
//   - Unresolved: the diagnosis of a run that could not drain
//
// # Patterns
//
// Logical time only:
//   - Runs are ordered by seq, a per-database counter, never by timestamps
//   - Emissions are keyed by their 1-based emission sequence number
//
// Deterministic query results:
//   - Every multi-row query has an ORDER BY on a unique key
//   - Replaying a stored run yields the same rows on every read
//
// Two-phase writes:
//   - BeginRun commits the run header and its records with status running
//   - RunWriter streams emissions inside one transaction and commits them
//     together with the terminal status
//
// A run left in status running was interrupted before Complete or Abort.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
