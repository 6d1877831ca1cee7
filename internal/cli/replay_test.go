package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/store"
	"github.com/roach88/prereq/internal/testutil"
)

func TestReplayMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(NewReplayCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prereq.db")

	stdout, _, err := execute(NewReplayCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs found")
}

func TestReplayEmptyDatabaseJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prereq.db")

	stdout, _, err := execute(NewReplayCommand(jsonOpts()), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	assert.Empty(t, resp.Data.Runs)
}

func TestReplay_RecordedRunsAreDeterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prereq.db")
	courses := writeInput(t, "courses.json", coursesJSON)
	cycle := writeInput(t, "cycle.json", cycleJSON)
	dup := writeInput(t, "dup.json", `[{"name": "A"}, {"name": "A"}]`)
	recordRuns(t, dbPath, map[string]string{"run-1": courses, "run-2": cycle, "run-3": dup})

	stdout, _, err := execute(NewReplayCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Replay Summary: 3 run(s)")
	assert.Contains(t, stdout, "✓ Run #1: run-1")
	assert.Contains(t, stdout, "✓ Run #2: run-2")
	assert.Contains(t, stdout, "✓ Run #3: run-3")
	assert.Contains(t, stdout, "All runs verified deterministic")
}

func TestReplay_SingleRunJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prereq.db")
	courses := writeInput(t, "courses.json", coursesJSON)
	cycle := writeInput(t, "cycle.json", cycleJSON)
	recordRuns(t, dbPath, map[string]string{"run-1": courses, "run-2": cycle})

	stdout, _, err := execute(NewReplayCommand(jsonOpts()), "--db", dbPath, "--run", "run-2")
	require.NoError(t, err)

	var resp struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Runs, 1)
	run := resp.Data.Runs[0]
	assert.Equal(t, "run-2", run.RunID)
	assert.Equal(t, ir.RunUnresolved, run.Recorded)
	assert.Equal(t, ir.RunUnresolved, run.Replayed)
	assert.True(t, run.Deterministic)
}

func TestReplay_DetectsDivergentOrder(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prereq.db")
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	w, err := st.BeginRun(ctx, store.RunInfo{
		ID:        "tampered",
		InputHash: "hash",
		Source:    "test",
		Records:   []ir.Record{testutil.Rec("X"), testutil.Rec("Y", "X")},
	})
	require.NoError(t, err)
	require.NoError(t, w.Emit("Y", 1))
	require.NoError(t, w.Emit("X", 2))
	require.NoError(t, w.Complete(store.Outcome{Status: ir.RunOK}))
	require.NoError(t, st.Close())

	stdout, _, err := execute(NewReplayCommand(textOpts()), "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Run #1: tampered")
	assert.Contains(t, stdout, "Difference: order: recorded [Y X], replayed [X Y]")
	assert.Contains(t, stdout, "Determinism verification failed")
}

func TestReplay_SkipsAbortedRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prereq.db")
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	w, err := st.BeginRun(ctx, store.RunInfo{
		ID:        "aborted",
		InputHash: "hash",
		Source:    "test",
		Records:   []ir.Record{testutil.Rec("X")},
	})
	require.NoError(t, err)
	require.NoError(t, w.Abort("output closed"))
	require.NoError(t, st.Close())

	stdout, _, err := execute(NewReplayCommand(jsonOpts()), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Runs, 1)
	assert.True(t, resp.Data.Runs[0].Skipped)
	assert.True(t, resp.Data.AllDeterministic)
}

func TestReplay_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prereq.db")

	stdout, _, err := execute(NewReplayCommand(textOpts()), "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E011]")
}

func TestCompareRun(t *testing.T) {
	state := store.RunState{
		Run:       ir.Run{Status: ir.RunUnresolved, ErrorCode: "UNRESOLVED_DEPENDENCY"},
		Emissions: []ir.Emission{{Seq: 1, Item: "Base"}},
		Unresolved: []ir.UnresolvedItem{
			{Name: "A", Kind: ir.UnresolvedDangling, WaitingOn: []string{"Q"}},
		},
		Missing: []string{"Q"},
	}

	same := store.Outcome{
		Status:     ir.RunUnresolved,
		ErrorCode:  "UNRESOLVED_DEPENDENCY",
		Unresolved: []ir.UnresolvedItem{{Name: "A", Kind: ir.UnresolvedDangling, WaitingOn: []string{"Q"}}},
		Missing:    []string{"Q"},
	}
	assert.Empty(t, compareRun(state, same, []string{"Base"}))

	diverged := store.Outcome{Status: ir.RunOK}
	diffs := compareRun(state, diverged, []string{"Base", "A"})
	assert.Len(t, diffs, 5)
}
