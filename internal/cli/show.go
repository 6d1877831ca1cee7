package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// ShowResult is a recorded run with its order and diagnosis.
type ShowResult struct {
	Run        ir.Run              `json:"run"`
	Order      []string            `json:"order"`
	Unresolved []ir.UnresolvedItem `json:"unresolved,omitempty"`
	Cycles     [][]string          `json:"cycles,omitempty"`
	Missing    []string            `json:"missing,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show a recorded run",
		Long: `Show the order and diagnosis of a recorded run.
Without a run ID the most recent run is shown.

Examples:
  prereq show --db ./prereq.db
  prereq show 0192f0c4-5a6e-7b3c-8d9e-0f1a2b3c4d5e --db ./prereq.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runShow(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, runID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if runID == "" {
		latest, err := st.LatestRun(ctx)
		if err != nil {
			return runLookupError(formatter, err)
		}
		runID = latest.ID
	}

	state, err := st.GetRunState(ctx, runID)
	if err != nil {
		return runLookupError(formatter, err)
	}

	result := ShowResult{
		Run:        state.Run,
		Order:      state.Order(),
		Unresolved: state.Unresolved,
		Cycles:     state.Cycles,
		Missing:    state.Missing,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	run := result.Run
	fmt.Fprintf(w, "Run %s (#%d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  Source: %s\n", run.Source)
	fmt.Fprintf(w, "  Status: %s\n", run.Status)
	if run.ErrorCode != "" {
		fmt.Fprintf(w, "  Error: %s\n", run.ErrorCode)
	}
	if opts.Verbose {
		fmt.Fprintf(w, "  Input: %s\n", run.InputHash)
		if run.ErrorMessage != "" {
			fmt.Fprintf(w, "  Message: %s\n", run.ErrorMessage)
		}
	}
	fmt.Fprintf(w, "  Emitted: %d of %d\n", run.EmittedCount, run.RecordCount)
	fmt.Fprintln(w)

	for i, item := range result.Order {
		fmt.Fprintf(w, "%4d  %s\n", i+1, item)
	}
	if len(result.Unresolved) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Unresolved:")
		writeDiagnosis(w, Diagnosis{Unresolved: result.Unresolved, Cycles: result.Cycles, Missing: result.Missing})
	}
	return nil
}

// runLookupError distinguishes an unknown run from a database failure.
func runLookupError(formatter *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeRunNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	return databaseError(formatter, "failed to read run", err)
}
