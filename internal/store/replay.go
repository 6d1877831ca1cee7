package store

import (
	"context"
	"fmt"

	"github.com/roach88/prereq/internal/ir"
)

// RunState is everything recorded about one run, for display and replay.
type RunState struct {
	Run        ir.Run
	Records    []ir.Record
	Emissions  []ir.Emission
	Unresolved []ir.UnresolvedItem
	Cycles     [][]string
	Missing    []string
}

// Order returns the emitted items in emission order.
func (rs RunState) Order() []string {
	order := make([]string, len(rs.Emissions))
	for i, e := range rs.Emissions {
		order[i] = e.Item
	}
	return order
}

// IsComplete reports whether the run reached a terminal status.
func (rs RunState) IsComplete() bool {
	return rs.Run.Status != ir.RunRunning
}

// GetRunState retrieves a run together with its records, emissions and
// diagnosis. Returns ErrRunNotFound if no such run exists.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return RunState{}, err
	}
	state := RunState{Run: run}

	if state.Records, err = s.ReadRunRecords(ctx, runID); err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	if state.Emissions, err = s.ReadEmissions(ctx, runID); err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	if state.Unresolved, err = s.ReadUnresolved(ctx, runID); err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	if state.Cycles, state.Missing, err = s.ReadDiagnosis(ctx, runID); err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	return state, nil
}

// FindIncompleteRuns returns runs still marked running, oldest first.
//
// A run stays running only if the process died between BeginRun and
// Complete or Abort. Its records are intact; its emissions were never
// committed.
func (s *Store) FindIncompleteRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE status = ?
		ORDER BY seq ASC
	`, string(ir.RunRunning))
	if err != nil {
		return nil, fmt.Errorf("query incomplete runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomplete runs: %w", err)
	}
	return runs, nil
}

// FindRunsByInput returns every run recorded for the same input hash, oldest
// first. Used to compare a fresh resolution against earlier ones.
func (s *Store) FindRunsByInput(ctx context.Context, inputHash string) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE input_hash = ?
		ORDER BY seq ASC
	`, inputHash)
	if err != nil {
		return nil, fmt.Errorf("query runs by input: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs by input: %w", err)
	}
	return runs, nil
}
