package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/testutil"
)

var rec = testutil.Rec

func TestBeginRun_RecordsHeaderAndInput(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	info := createTestRunInfo(t, "run-1", rec("B", "A"), rec("A"))

	w, err := s.BeginRun(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, "run-1", w.RunID())
	require.NoError(t, w.Abort("test"))

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, info.InputHash, run.InputHash)
	assert.Equal(t, "test.json", run.Source)
	assert.Equal(t, 2, run.RecordCount)

	records, err := s.ReadRunRecords(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, info.Records, records)
}

func TestBeginRun_SeqIncrements(t *testing.T) {
	s := createTestStore(t)
	recordCompletedRun(t, s, createTestRunInfo(t, "run-a", rec("A")), "A")
	recordCompletedRun(t, s, createTestRunInfo(t, "run-b", rec("B")), "B")

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, int64(2), runs[1].Seq)
}

func TestBeginRun_RejectsEmptyID(t *testing.T) {
	s := createTestStore(t)
	_, err := s.BeginRun(context.Background(), RunInfo{})
	assert.Error(t, err)
}

func TestBeginRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	info := createTestRunInfo(t, "run-1", rec("A"))
	recordCompletedRun(t, s, info, "A")

	_, err := s.BeginRun(context.Background(), info)
	assert.Error(t, err)
}

func TestRunWriter_Complete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	recordCompletedRun(t, s, createTestRunInfo(t, "run-1", rec("A"), rec("B", "A")), "A", "B")

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.RunOK, run.Status)
	assert.Equal(t, 2, run.EmittedCount)
	assert.Empty(t, run.ErrorCode)

	emissions, err := s.ReadEmissions(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []ir.Emission{{Seq: 1, Item: "A"}, {Seq: 2, Item: "B"}}, emissions)
}

func TestRunWriter_CompleteUnresolved(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	w, err := s.BeginRun(ctx, createTestRunInfo(t, "run-1", rec("A", "B"), rec("B", "A"), rec("C")))
	require.NoError(t, err)
	require.NoError(t, w.Emit("C", 1))

	unresolved := []ir.UnresolvedItem{
		{Name: "A", Kind: ir.UnresolvedCycle, WaitingOn: []string{"B"}},
		{Name: "B", Kind: ir.UnresolvedCycle, WaitingOn: []string{"A"}},
	}
	require.NoError(t, w.Complete(Outcome{
		Status:       ir.RunUnresolved,
		ErrorCode:    "UNRESOLVED_DEPENDENCY",
		ErrorMessage: "2 item(s) never became ready",
		Unresolved:   unresolved,
	}))

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.RunUnresolved, run.Status)
	assert.Equal(t, "UNRESOLVED_DEPENDENCY", run.ErrorCode)
	assert.Equal(t, 1, run.EmittedCount)

	got, err := s.ReadUnresolved(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, unresolved, got)
}

func TestRunWriter_DuplicateEmissionRejected(t *testing.T) {
	s := createTestStore(t)
	w, err := s.BeginRun(context.Background(), createTestRunInfo(t, "run-1", rec("A")))
	require.NoError(t, err)
	defer w.Abort("test")

	require.NoError(t, w.Emit("A", 1))
	assert.Error(t, w.Emit("A", 2), "an item is emitted at most once per run")
}

func TestRunWriter_CompleteRequiresTerminalStatus(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	w, err := s.BeginRun(ctx, createTestRunInfo(t, "run-1", rec("A")))
	require.NoError(t, err)

	require.Error(t, w.Complete(Outcome{Status: ir.RunRunning}))

	// The writer is closed and its emissions discarded; the run stays running.
	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.RunRunning, run.Status)
}

func TestRunWriter_Abort(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	w, err := s.BeginRun(ctx, createTestRunInfo(t, "run-1", rec("A"), rec("B")))
	require.NoError(t, err)
	require.NoError(t, w.Emit("A", 1))
	require.NoError(t, w.Abort("interrupted"))

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.RunError, run.Status)
	assert.Equal(t, "ABORTED", run.ErrorCode)
	assert.Equal(t, "interrupted", run.ErrorMessage)
	assert.Equal(t, 0, run.EmittedCount)

	emissions, err := s.ReadEmissions(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, emissions, "aborted emissions are rolled back")

	records, err := s.ReadRunRecords(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, records, 2, "records survive an abort")
}

func TestRunWriter_ClosedAfterComplete(t *testing.T) {
	s := createTestStore(t)
	w, err := s.BeginRun(context.Background(), createTestRunInfo(t, "run-1", rec("A")))
	require.NoError(t, err)
	require.NoError(t, w.Complete(Outcome{Status: ir.RunOK}))

	assert.ErrorIs(t, w.Emit("A", 1), ErrWriterClosed)
	assert.ErrorIs(t, w.Complete(Outcome{Status: ir.RunOK}), ErrWriterClosed)
	assert.NoError(t, w.Abort("late"), "abort after complete is a no-op")
}

func TestRunWriter_AsResolverSink(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	records := []ir.Record{rec("C", "B"), rec("B", "A"), rec("A"), rec("D")}

	w, err := s.BeginRun(ctx, createTestRunInfo(t, "run-1", records...))
	require.NoError(t, err)

	var sink engine.Sink = w
	result, err := engine.Resolve(records, sink)
	require.NoError(t, err)
	require.NoError(t, w.Complete(Outcome{Status: ir.RunOK}))

	state, err := s.GetRunState(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, result.Order, state.Order())
	assert.Equal(t, []string{"A", "D", "B", "C"}, state.Order())
}

func TestRunWriter_StoreFailureAbortsResolution(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	w, err := s.BeginRun(ctx, createTestRunInfo(t, "run-1", rec("A"), rec("B")))
	require.NoError(t, err)

	// Every emission claims seq 1, so the second insert violates the key.
	sameSeq := engine.SinkFunc(func(item string, _ int64) error {
		return w.Emit(item, 1)
	})
	_, err = engine.Resolve([]ir.Record{rec("A"), rec("B")}, sameSeq)
	require.Error(t, err)
	assert.Equal(t, engine.ErrCodeSinkFailed, engine.Code(err))

	require.NoError(t, w.Abort(err.Error()))
	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.RunError, run.Status)
	assert.Equal(t, "ABORTED", run.ErrorCode)
}

func TestRunWriter_CancelDuringResolutionIsIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := []ir.Record{rec("A"), rec("B", "A")}
	w, err := s.BeginRun(ctx, createTestRunInfo(t, "run-1", records...))
	require.NoError(t, err)

	cancelOnFirst := engine.SinkFunc(func(_ string, seq int64) error {
		if seq == 1 {
			cancel()
		}
		return nil
	})
	result, err := engine.Resolve(records, engine.MultiSink(w, cancelOnFirst))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, result.Order)
	require.Error(t, ctx.Err())

	require.NoError(t, w.Complete(OutcomeOf(nil)))

	run, err := s.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.RunOK, run.Status)
	assert.Equal(t, 2, run.EmittedCount)

	state, err := s.GetRunState(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, state.Order())
}

func TestBeginRun_CancelledBeforeStart(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.BeginRun(ctx, createTestRunInfo(t, "run-1", rec("A")))
	require.Error(t, err)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
