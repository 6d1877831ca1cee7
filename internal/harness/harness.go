package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/store"
)

// Harness is the test execution engine.
// It runs scenarios against a store with deterministic run IDs.
type Harness struct {
	store  *store.Store
	runIDs engine.RunIDGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Begin a recorded run for the scenario's records
// 3. Resolve through the engine with the run writer as sink
// 4. Record the outcome and read the run back
// 5. Check expectation, assertions and ordering properties
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runIDs: engine.NewFixedGenerator("scenario-" + scenario.Name),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result, err := h.execute(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	checkExpectation(scenario.Expect, result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	for _, msg := range checkProperties(scenario.Records, result) {
		result.AddError(msg)
	}

	return result, nil
}

// execute resolves the scenario's records into a recorded run and reads the
// run back from the store.
func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	hash, err := ir.InputHash(scenario.Records)
	if err != nil {
		return nil, fmt.Errorf("hash records: %w", err)
	}

	runID := h.runIDs.Generate()
	w, err := h.store.BeginRun(ctx, store.RunInfo{
		ID:        runID,
		InputHash: hash,
		Source:    scenario.Name,
		Records:   scenario.Records,
	})
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}

	_, resolveErr := engine.Resolve(scenario.Records, w, engine.WithLogger(h.logger))
	if engine.Code(resolveErr) == engine.ErrCodeSinkFailed {
		_ = w.Abort(resolveErr.Error())
		return nil, fmt.Errorf("record run: %w", resolveErr)
	}
	if err := w.Complete(store.OutcomeOf(resolveErr)); err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}

	state, err := h.store.GetRunState(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	result := NewResult()
	result.RunID = runID
	result.Status = state.Run.Status
	result.ErrorCode = state.Run.ErrorCode
	result.Order = state.Order()
	result.Unresolved = state.Unresolved
	result.Cycles = state.Cycles
	result.Missing = state.Missing

	h.logger.Info("scenario executed",
		"scenario", scenario.Name,
		"status", result.Status,
		"emitted", len(result.Order),
	)
	return result, nil
}

// checkExpectation compares the result against the scenario's expect block.
func checkExpectation(expect Expectation, result *Result) {
	if expect.Error == "" {
		if result.ErrorCode != "" {
			result.AddError(fmt.Sprintf("expected success, got %s", result.ErrorCode))
			return
		}
		if !slices.Equal(expect.Order, result.Order) {
			result.AddError(fmt.Sprintf("order: expected %v, got %v", expect.Order, result.Order))
		}
		return
	}

	if result.ErrorCode != expect.Error {
		got := result.ErrorCode
		if got == "" {
			got = "success"
		}
		result.AddError(fmt.Sprintf("expected error %s, got %s", expect.Error, got))
		return
	}

	if expect.Emitted != nil && !slices.Equal(expect.Emitted, result.Order) {
		result.AddError(fmt.Sprintf("emitted: expected %v, got %v", expect.Emitted, result.Order))
	}
	if expect.Unresolved != nil && !sameSet(expect.Unresolved, result.UnresolvedNames()) {
		result.AddError(fmt.Sprintf("unresolved: expected %v, got %v",
			sorted(expect.Unresolved), sorted(result.UnresolvedNames())))
	}
	if expect.Missing != nil && !sameSet(expect.Missing, result.Missing) {
		result.AddError(fmt.Sprintf("missing: expected %v, got %v", sorted(expect.Missing), result.Missing))
	}
	if expect.Cycles != nil && !sameCycles(expect.Cycles, result.Cycles) {
		result.AddError(fmt.Sprintf("cycles: expected %v, got %v", expect.Cycles, result.Cycles))
	}
}

// checkProperties verifies the ordering properties every run must satisfy,
// whatever its outcome.
func checkProperties(records []ir.Record, result *Result) []string {
	var errs []string

	position := make(map[string]int, len(result.Order))
	for i, item := range result.Order {
		if _, seen := position[item]; seen {
			errs = append(errs, fmt.Sprintf("property: %s emitted twice", item))
			continue
		}
		position[item] = i
	}

	for _, rec := range records {
		at, ok := position[rec.Name]
		if !ok {
			continue
		}
		for _, prereq := range rec.Prerequisites {
			before, ok := position[prereq]
			if !ok || before > at {
				errs = append(errs, fmt.Sprintf("property: %s emitted before its prerequisite %s", rec.Name, prereq))
			}
		}
	}

	if result.Status == ir.RunOK && len(result.Order) != len(records) {
		errs = append(errs, fmt.Sprintf("property: %d of %d items emitted on success", len(result.Order), len(records)))
	}
	return errs
}

func sorted(items []string) []string {
	out := slices.Clone(items)
	slices.Sort(out)
	return out
}

func sameSet(a, b []string) bool {
	return slices.Equal(slices.Compact(sorted(a)), slices.Compact(sorted(b)))
}

func sameCycles(expected, actual [][]string) bool {
	normalize := func(cycles [][]string) [][]string {
		out := make([][]string, len(cycles))
		for i, c := range cycles {
			out[i] = sorted(c)
		}
		slices.SortFunc(out, func(a, b []string) int { return slices.Compare(a, b) })
		return out
	}
	return slices.EqualFunc(normalize(expected), normalize(actual), func(a, b []string) bool {
		return slices.Equal(a, b)
	})
}
