// Package harness provides conformance testing for the resolver.
//
// A scenario is a YAML file naming an ordered record list and the outcome it
// must produce:
//
//	name: cascade_from_queue
//	description: A deferred item is released once its prerequisite appears
//	records:
//	  - {name: Y, prerequisites: [X]}
//	  - {name: X}
//	expect:
//	  order: [X, Y]
//
// Run resolves the records through the real engine into a fresh in-memory
// store, reads the recorded run back, and checks it against the expectation,
// the scenario's assertions, and the ordering properties every run must
// satisfy (no item before its prerequisites, no item twice, every item
// emitted when resolution succeeds).
//
// Snapshots of results are canonical JSON and are compared against golden
// files with goldie.
package harness
