package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/prereq/internal/ir"
)

// Result is the outcome of a successful run.
type Result struct {
	// Order is the emitted order; every item appears after its prerequisites.
	Order []string

	// Records is the number of records consumed.
	Records int

	// Edges is the number of declared prerequisite edges.
	Edges int
}

// Resolver computes an emission order over records presented one at a time.
//
// A Resolver owns its emitted set, pending index, reverse index and ready
// queue for exactly one run. Construct a fresh Resolver per run.
//
// Thread-safety model: none. Feed and Finish must be called from one
// goroutine, and a run completes without suspension.
//
// INVARIANTS:
//   - An item is emitted at most once, and only after every prerequisite it
//     declared has been emitted
//   - Items ready at observation time are emitted immediately, in input order
//   - Items released by a cascade are queued, then emitted in discovery order
type Resolver struct {
	sink   Sink
	logger *slog.Logger
	clock  *Clock

	emitted map[string]struct{}
	defined map[string]int // identifier -> record index
	pending *pendingIndex
	queue   *readyQueue

	order   []string
	records int
	edges   int

	finished bool
	err      error // fatal error; every later call returns it
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-item debug output and the run
// summary. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver that delivers emissions to sink.
// A nil sink discards emissions; Result.Order still records them.
func New(sink Sink, opts ...Option) *Resolver {
	if sink == nil {
		sink = Discard
	}
	r := &Resolver{
		sink:    sink,
		logger:  slog.Default(),
		clock:   NewClock(),
		emitted: make(map[string]struct{}),
		defined: make(map[string]int),
		pending: newPendingIndex(),
		queue:   newReadyQueue(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve orders records in a single pass and delivers the order to sink.
//
// The record set is validated up front, so input with empty or duplicate
// identifiers is rejected before anything is emitted.
//
// On an unresolved dependency the returned error is an *UnresolvedError and
// the items emitted before detection have already been delivered to sink.
func Resolve(records []ir.Record, sink Sink, opts ...Option) (*Result, error) {
	if err := Validate(records); err != nil {
		return nil, err
	}
	r := New(sink, opts...)
	for _, rec := range records {
		if err := r.Feed(rec); err != nil {
			return nil, err
		}
	}
	return r.Finish()
}

// Validate checks a record set for empty and duplicate identifiers.
// Returns the first violation in record order.
func Validate(records []ir.Record) error {
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if err := validateRecord(rec, i); err != nil {
			return err
		}
		if first, dup := seen[rec.Name]; dup {
			return newDuplicateError(rec.Name, i, first)
		}
		seen[rec.Name] = i
	}
	return nil
}

func validateRecord(rec ir.Record, index int) error {
	if rec.Name == "" {
		return newEmptyItemError(index, "item")
	}
	for _, prereq := range rec.Prerequisites {
		if prereq == "" {
			e := newEmptyItemError(index, "prerequisite")
			e.Item = rec.Name
			return e
		}
	}
	return nil
}

// Feed consumes one record in input order.
//
// If none of the record's prerequisites are outstanding, the item is emitted
// immediately and its waiting dependents are discharged; dependents that
// become ready are queued, not emitted inline. Otherwise the item is
// registered as pending.
//
// A duplicate identifier is rejected at its second occurrence.
func (r *Resolver) Feed(rec ir.Record) error {
	if err := r.usable(); err != nil {
		return err
	}

	index := r.records
	if err := validateRecord(rec, index); err != nil {
		return err
	}
	if first, dup := r.defined[rec.Name]; dup {
		return newDuplicateError(rec.Name, index, first)
	}
	r.defined[rec.Name] = index
	r.records++
	r.edges += len(rec.Prerequisites)

	outstanding := make(map[string]struct{}, len(rec.Prerequisites))
	for _, prereq := range rec.Prerequisites {
		if _, done := r.emitted[prereq]; !done {
			outstanding[prereq] = struct{}{}
		}
	}

	if len(outstanding) == 0 {
		return r.emit(rec.Name)
	}

	r.pending.register(rec.Name, outstanding)
	r.logger.Debug("item deferred",
		"item", rec.Name,
		"outstanding", len(outstanding),
	)
	return nil
}

// Finish drains the ready queue and performs the termination check.
//
// Returns *UnresolvedError if any item never reached zero outstanding
// prerequisites. Finish may be called once.
func (r *Resolver) Finish() (*Result, error) {
	if err := r.usable(); err != nil {
		return nil, err
	}
	r.finished = true

	for {
		item, ok := r.queue.pop()
		if !ok {
			break
		}
		if err := r.emit(item); err != nil {
			return nil, err
		}
	}

	if !r.pending.empty() {
		unresolved, err := diagnose(r.pending, r.defined, len(r.order))
		if err != nil {
			r.err = err
			return nil, err
		}
		r.logger.Warn("resolution incomplete",
			"records", r.records,
			"emitted", len(r.order),
			"unresolved", len(unresolved.Items),
			"cycles", len(unresolved.Cycles),
			"missing", len(unresolved.Missing),
		)
		return nil, unresolved
	}

	r.logger.Info("resolution complete",
		"records", r.records,
		"edges", r.edges,
		"emitted", len(r.order),
	)
	return &Result{
		Order:   slices.Clone(r.order),
		Records: r.records,
		Edges:   r.edges,
	}, nil
}

// Pending returns the number of items currently waiting on prerequisites.
func (r *Resolver) Pending() int {
	return r.pending.waitingCount()
}

// Queued returns the number of items ready but not yet emitted.
func (r *Resolver) Queued() int {
	return r.queue.Len()
}

// Emitted returns the number of items emitted so far.
func (r *Resolver) Emitted() int {
	return len(r.order)
}

// emit delivers item to the sink, marks it emitted, and queues every
// dependent the emission made ready.
func (r *Resolver) emit(item string) error {
	seq := r.clock.Next()
	if err := r.sink.Emit(item, seq); err != nil {
		r.err = newSinkError(item, err)
		return r.err
	}
	r.emitted[item] = struct{}{}
	r.order = append(r.order, item)
	r.logger.Debug("item emitted", "item", item, "seq", seq)

	ready, err := r.pending.releaseDependentsOf(item)
	if err != nil {
		r.err = err
		return err
	}
	for _, dependent := range ready {
		// Outstanding sets only shrink, so a dependent cannot become ready
		// twice; the check keeps an emitted item off the queue regardless.
		if _, done := r.emitted[dependent]; done {
			continue
		}
		r.queue.push(dependent)
	}
	if len(ready) > 0 {
		r.logger.Debug("dependents released", "item", item, "ready", len(ready))
	}
	return nil
}

func (r *Resolver) usable() error {
	if r.err != nil {
		return r.err
	}
	if r.finished {
		return &ResolveError{
			Code:    ErrCodeFinished,
			Message: "resolver already finished",
			Index:   -1,
		}
	}
	return nil
}
