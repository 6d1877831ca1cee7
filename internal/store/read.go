package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/prereq/internal/ir"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, input_hash, source, status, error_code, error_message, record_count, emitted_count`

// ListRuns returns every recorded run, oldest first.
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
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
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns ErrRunNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// LatestRun returns the run with the highest seq.
// Returns ErrRunNotFound if the log is empty.
func (s *Store) LatestRun(ctx context.Context) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	return run, err
}

// ReadRunRecords returns a run's input records in input order.
func (s *Store) ReadRunRecords(ctx context.Context, runID string) ([]ir.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, prerequisites
		FROM run_records
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	records := []ir.Record{}
	for rows.Next() {
		var rec ir.Record
		var prereqs string
		if err := rows.Scan(&rec.Name, &prereqs); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if rec.Prerequisites, err = unmarshalNames(prereqs); err != nil {
			return nil, fmt.Errorf("run record %q: %w", rec.Name, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}
	return records, nil
}

// ReadEmissions returns a run's committed emissions ordered by seq.
func (s *Store) ReadEmissions(ctx context.Context, runID string) ([]ir.Emission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, item
		FROM emissions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query emissions: %w", err)
	}
	defer rows.Close()

	emissions := []ir.Emission{}
	for rows.Next() {
		var e ir.Emission
		if err := rows.Scan(&e.Seq, &e.Item); err != nil {
			return nil, fmt.Errorf("scan emission: %w", err)
		}
		emissions = append(emissions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emissions: %w", err)
	}
	return emissions, nil
}

// ReadUnresolved returns the diagnosis recorded for an unresolved run, in
// input order. Empty for runs that drained.
func (s *Store) ReadUnresolved(ctx context.Context, runID string) ([]ir.UnresolvedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item, kind, waiting_on
		FROM unresolved
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query unresolved: %w", err)
	}
	defer rows.Close()

	items := []ir.UnresolvedItem{}
	for rows.Next() {
		var u ir.UnresolvedItem
		var kind, waitingOn string
		if err := rows.Scan(&u.Name, &kind, &waitingOn); err != nil {
			return nil, fmt.Errorf("scan unresolved: %w", err)
		}
		u.Kind = ir.UnresolvedKind(kind)
		if u.WaitingOn, err = unmarshalNames(waitingOn); err != nil {
			return nil, fmt.Errorf("unresolved %q: %w", u.Name, err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unresolved: %w", err)
	}
	return items, nil
}

// ReadDiagnosis returns the cycles and undefined prerequisites recorded for
// a run. Both are empty for runs that drained.
func (s *Store) ReadDiagnosis(ctx context.Context, runID string) (cycles [][]string, missing []string, err error) {
	var cyclesJSON, missingJSON string
	err = s.db.QueryRowContext(ctx, `
		SELECT cycles, missing
		FROM runs
		WHERE id = ?
	`, runID).Scan(&cyclesJSON, &missingJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("read diagnosis %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read diagnosis: %w", err)
	}

	if cycles, err = unmarshalCycles(cyclesJSON); err != nil {
		return nil, nil, fmt.Errorf("read diagnosis: %w", err)
	}
	if missing, err = unmarshalNames(missingJSON); err != nil {
		return nil, nil, fmt.Errorf("read diagnosis: %w", err)
	}
	return cycles, missing, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ir.Run, error) {
	var run ir.Run
	var status string
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.InputHash,
		&run.Source,
		&status,
		&run.ErrorCode,
		&run.ErrorMessage,
		&run.RecordCount,
		&run.EmittedCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, err
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = ir.RunStatus(status)
	return run, nil
}
