package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database    string
	Incomplete  bool   // only runs interrupted before completion
	Input       string // only runs over the same records as this file
	InputFormat string
}

// HistoryResult holds the listed runs.
type HistoryResult struct {
	Runs  []ir.Run `json:"runs"`
	Total int      `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded with "order --db", oldest first.

Examples:
  prereq history --db ./prereq.db
  prereq history --db ./prereq.db --incomplete
  prereq history --db ./prereq.db --input courses.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Incomplete, "incomplete", false, "list only runs that never completed")
	cmd.Flags().StringVar(&opts.Input, "input", "", "list only runs over the records in this file")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "format of --input (json|yaml|cue)")
	cmd.MarkFlagsMutuallyExclusive("incomplete", "input")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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

	var runs []ir.Run
	switch {
	case opts.Incomplete:
		runs, err = st.FindIncompleteRuns(ctx)
	case opts.Input != "":
		records, loadErr := loadRecords(cmd, opts.Input, opts.InputFormat)
		if loadErr != nil {
			return loadErrorOutput(formatter, loadErr)
		}
		hash, hashErr := ir.InputHash(records)
		if hashErr != nil {
			return loadErrorOutput(formatter, hashErr)
		}
		formatter.VerboseLog("Input hash %s", hash)
		runs, err = st.FindRunsByInput(ctx, hash)
	default:
		runs, err = st.ListRuns(ctx)
	}
	if err != nil {
		return databaseError(formatter, "failed to list runs", err)
	}
	if runs == nil {
		runs = []ir.Run{}
	}

	if opts.Format == "json" {
		return formatter.Success(HistoryResult{Runs: runs, Total: len(runs)})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "#%-4d %s  %-10s %d/%d emitted  %s\n",
			run.Seq, run.ID, run.Status, run.EmittedCount, run.RecordCount, run.Source)
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(runs))
	return nil
}

// openStore opens the run log, reporting failures as command errors.
func openStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, databaseError(formatter, "failed to open database", err)
	}
	return st, nil
}

func databaseError(formatter *OutputFormatter, message string, err error) error {
	_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitCommandError, message, err)
}
