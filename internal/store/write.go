package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/prereq/internal/ir"
)

// ErrWriterClosed is returned by a RunWriter after Complete or Abort.
var ErrWriterClosed = errors.New("run writer closed")

// RunInfo describes a run about to start.
type RunInfo struct {
	ID        string
	InputHash string
	Source    string
	Records   []ir.Record
}

// Outcome is the terminal state of a run.
type Outcome struct {
	Status       ir.RunStatus
	ErrorCode    string
	ErrorMessage string
	Unresolved   []ir.UnresolvedItem
	Cycles       [][]string
	Missing      []string
}

// BeginRun records the run header and its input records with status running,
// then opens the transaction that will hold the run's emissions.
//
// The run's seq is one past the highest seq in the database.
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (*RunWriter, error) {
	if info.ID == "" {
		return nil, fmt.Errorf("begin run: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, input_hash, source, status, record_count, engine_version, ir_version)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?, ?)
	`,
		info.ID,
		info.InputHash,
		info.Source,
		string(ir.RunRunning),
		len(info.Records),
		ir.EngineVersion,
		ir.SchemaVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("begin run: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_records (run_id, idx, name, prerequisites)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("begin run: prepare records: %w", err)
	}
	defer stmt.Close()

	for i, rec := range info.Records {
		prereqs, err := marshalNames(rec.Prerequisites)
		if err != nil {
			return nil, fmt.Errorf("begin run: record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, info.ID, i, rec.Name, prereqs); err != nil {
			return nil, fmt.Errorf("begin run: insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("begin run: commit: %w", err)
	}

	// Once the header is committed the run belongs to the resolver; a
	// cancelled caller context no longer reaches its writes.
	emitCtx := context.WithoutCancel(ctx)
	emitTx, err := s.db.BeginTx(emitCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin run: begin emission tx: %w", err)
	}

	return &RunWriter{
		store: s,
		ctx:   emitCtx,
		tx:    emitTx,
		runID: info.ID,
	}, nil
}

// RunWriter streams one run's emissions into the store.
//
// It satisfies engine.Sink. Emissions become visible only when Complete
// commits; Abort discards them and marks the run as errored.
//
// Thread-safety: none. A RunWriter is driven by the resolver that owns it.
type RunWriter struct {
	store   *Store
	ctx     context.Context
	tx      *sql.Tx
	runID   string
	emitted int
	closed  bool
}

// RunID returns the ID of the run being written.
func (w *RunWriter) RunID() string {
	return w.runID
}

// Emit appends one item to the run's order.
func (w *RunWriter) Emit(item string, seq int64) error {
	if w.closed {
		return ErrWriterClosed
	}
	_, err := w.tx.ExecContext(w.ctx, `
		INSERT INTO emissions (run_id, seq, item)
		VALUES (?, ?, ?)
	`, w.runID, seq, item)
	if err != nil {
		return fmt.Errorf("write emission %d: %w", seq, err)
	}
	w.emitted++
	return nil
}

// Complete records the terminal outcome and commits the run's emissions.
func (w *RunWriter) Complete(outcome Outcome) error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true
	defer w.tx.Rollback() // No-op if committed

	if outcome.Status == "" || outcome.Status == ir.RunRunning {
		return fmt.Errorf("complete run: invalid terminal status %q", outcome.Status)
	}

	for i, u := range outcome.Unresolved {
		waitingOn, err := marshalNames(u.WaitingOn)
		if err != nil {
			return fmt.Errorf("complete run: unresolved %d: %w", i, err)
		}
		_, err = w.tx.ExecContext(w.ctx, `
			INSERT INTO unresolved (run_id, idx, item, kind, waiting_on)
			VALUES (?, ?, ?, ?, ?)
		`, w.runID, i, u.Name, string(u.Kind), waitingOn)
		if err != nil {
			return fmt.Errorf("complete run: insert unresolved %q: %w", u.Name, err)
		}
	}

	if err := finishRun(w.ctx, w.tx, w.runID, outcome, w.emitted); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}

	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("complete run: commit: %w", err)
	}
	return nil
}

// Abort discards the run's emissions and marks it as errored with reason.
// Safe to call after Complete; it is then a no-op.
func (w *RunWriter) Abort(reason string) error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("abort run: rollback: %w", err)
	}

	outcome := Outcome{Status: ir.RunError, ErrorCode: "ABORTED", ErrorMessage: reason}
	if err := finishRun(w.ctx, w.store.db, w.runID, outcome, 0); err != nil {
		return fmt.Errorf("abort run: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func finishRun(ctx context.Context, db execer, runID string, outcome Outcome, emitted int) error {
	cycles, err := marshalCycles(outcome.Cycles)
	if err != nil {
		return err
	}
	missing, err := marshalNames(outcome.Missing)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, error_code = ?, error_message = ?, emitted_count = ?, cycles = ?, missing = ?
		WHERE id = ? AND status = ?
	`,
		string(outcome.Status),
		outcome.ErrorCode,
		outcome.ErrorMessage,
		emitted,
		cycles,
		missing,
		runID,
		string(ir.RunRunning),
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update run %s: not running", runID)
	}
	return nil
}
