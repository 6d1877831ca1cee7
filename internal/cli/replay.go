package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string       `json:"run_id"`
	Seq           int64        `json:"seq"`
	Recorded      ir.RunStatus `json:"recorded"`
	Replayed      ir.RunStatus `json:"replayed,omitempty"`
	Emitted       int          `json:"emitted"`
	Skipped       bool         `json:"skipped,omitempty"`
	Deterministic bool         `json:"deterministic"`
	Differences   []string     `json:"differences,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-resolve recorded runs and verify determinism",
		Long: `Re-resolve the stored records of each recorded run and compare the
outcome with what was recorded: status, error code, emitted order and
diagnosis must all match.

Runs that never completed or were aborted by a failing output are
skipped; their recorded order is incomplete.

Exit codes:
  0 - All replayed runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  prereq replay --db ./prereq.db
  prereq replay --db ./prereq.db --run 0192f0c4-5a6e-7b3c-8d9e-0f1a2b3c4d5e
  prereq replay --db ./prereq.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	// Get runs to process
	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return databaseError(formatter, "failed to list runs", err)
		}
		for _, run := range runs {
			runIDs = append(runIDs, run.ID)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
	}

	if len(runIDs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	for _, id := range runIDs {
		runResult, err := replayRun(ctx, st, id, logger)
		if err != nil {
			return runLookupError(formatter, err)
		}

		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd.OutOrStdout(), result)
	}
	return outputReplayText(cmd.OutOrStdout(), result, opts.Verbose)
}

// replayRun re-resolves a recorded run's input and compares the outcome.
func replayRun(ctx context.Context, st *store.Store, runID string, logger *slog.Logger) (ReplayRunResult, error) {
	state, err := st.GetRunState(ctx, runID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	res := ReplayRunResult{
		RunID:         state.Run.ID,
		Seq:           state.Run.Seq,
		Recorded:      state.Run.Status,
		Emitted:       state.Run.EmittedCount,
		Deterministic: true,
	}

	// Incomplete and aborted runs have no trustworthy order to compare.
	if !state.IsComplete() || state.Run.Status == ir.RunError {
		res.Skipped = true
		return res, nil
	}

	order := []string{}
	collect := engine.SinkFunc(func(item string, seq int64) error {
		order = append(order, item)
		return nil
	})
	_, resolveErr := engine.Resolve(state.Records, collect, engine.WithLogger(logger))
	outcome := store.OutcomeOf(resolveErr)
	res.Replayed = outcome.Status

	res.Differences = compareRun(state, outcome, order)
	res.Deterministic = len(res.Differences) == 0
	logger.Debug("run replayed", "run_id", runID, "status", outcome.Status, "deterministic", res.Deterministic)
	return res, nil
}

// compareRun lists every way a replayed outcome differs from the record.
func compareRun(state store.RunState, outcome store.Outcome, order []string) []string {
	var diffs []string

	if state.Run.Status != outcome.Status {
		diffs = append(diffs, fmt.Sprintf("status: recorded %s, replayed %s", state.Run.Status, outcome.Status))
	}
	if state.Run.ErrorCode != outcome.ErrorCode {
		diffs = append(diffs, fmt.Sprintf("error code: recorded %q, replayed %q", state.Run.ErrorCode, outcome.ErrorCode))
	}
	if recorded := state.Order(); !slices.Equal(recorded, order) {
		diffs = append(diffs, fmt.Sprintf("order: recorded %v, replayed %v", recorded, order))
	}
	if !slices.EqualFunc(state.Unresolved, outcome.Unresolved, unresolvedEqual) {
		diffs = append(diffs, "unresolved items differ")
	}
	if !slices.EqualFunc(state.Cycles, outcome.Cycles, slices.Equal[[]string]) {
		diffs = append(diffs, fmt.Sprintf("cycles: recorded %v, replayed %v", state.Cycles, outcome.Cycles))
	}
	if !slices.Equal(state.Missing, outcome.Missing) {
		diffs = append(diffs, fmt.Sprintf("missing: recorded %v, replayed %v", state.Missing, outcome.Missing))
	}
	return diffs
}

func unresolvedEqual(a, b ir.UnresolvedItem) bool {
	return a.Name == b.Name && a.Kind == b.Kind && slices.Equal(a.WaitingOn, b.WaitingOn)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(w io.Writer, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		switch {
		case run.Skipped:
			status = "-"
		case !run.Deterministic:
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run #%d: %s\n", status, run.Seq, run.RunID)

		if run.Skipped {
			fmt.Fprintf(w, "  Skipped: recorded status %s\n", run.Recorded)
		} else if verbose {
			fmt.Fprintf(w, "  Recorded: %s\n", run.Recorded)
			fmt.Fprintf(w, "  Replayed: %s\n", run.Replayed)
			fmt.Fprintf(w, "  Emitted: %d\n", run.Emitted)
		} else {
			fmt.Fprintf(w, "  Status: %s, %d emitted\n", run.Recorded, run.Emitted)
		}

		for _, d := range run.Differences {
			fmt.Fprintf(w, "  Difference: %s\n", d)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
