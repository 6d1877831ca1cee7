package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/store"
)

// OrderOptions holds flags for the order command.
type OrderOptions struct {
	*RootOptions
	Database    string // optional - record the run
	InputFormat string // json | yaml | cue; detected from the extension when empty

	runIDs engine.RunIDGenerator
}

// OrderResult is the JSON payload of the order command.
type OrderResult struct {
	RunID   string   `json:"run_id,omitempty"`
	Order   []string `json:"order"`
	Records int      `json:"records"`
	Edges   int      `json:"edges"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	return newOrderCommand(rootOpts, engine.UUIDv7Generator{})
}

func newOrderCommand(rootOpts *RootOptions, runIDs engine.RunIDGenerator) *cobra.Command {
	opts := &OrderOptions{RootOptions: rootOpts, runIDs: runIDs}

	cmd := &cobra.Command{
		Use:   "order <file>",
		Short: "Print items in prerequisite order",
		Long: `Print every item after all of its prerequisites, one per line.

Items are printed as soon as they become ready, so a failing run still
prints everything that could be ordered before the failure is reported.
Use "-" to read records from standard input.

Exit codes:
  0 - Every item was ordered
  1 - Some items never became ready (cycle or undefined prerequisite)
  2 - Command error (missing file, malformed or rejected input, database error)

Examples:
  prereq order courses.json
  prereq order courses.yaml --db ./prereq.db
  cat courses.json | prereq order - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format (json|yaml|cue), detected from the extension by default")

	return cmd
}

func runOrder(opts *OrderOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	records, err := loadRecords(cmd, path, opts.InputFormat)
	if err != nil {
		return loadErrorOutput(formatter, err)
	}
	formatter.VerboseLog("Loaded %d record(s) from %s", len(records), path)

	// Text output streams each item as it is emitted.
	order := []string{}
	var sink engine.Sink = engine.SinkFunc(func(item string, seq int64) error {
		order = append(order, item)
		if opts.Format == "json" {
			return nil
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), item)
		return err
	})

	var writer *store.RunWriter
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		writer, err = beginRecordedRun(ctx, st, opts.runIDs.Generate(), path, records)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		sink = engine.MultiSink(writer, sink)
	}

	result, resolveErr := engine.Resolve(records, sink, engine.WithLogger(logger))

	payload := OrderResult{Order: order, Records: len(records), Edges: ir.EdgeCount(records)}
	if writer != nil {
		payload.RunID = writer.RunID()
		if err := finishRecordedRun(writer, resolveErr); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s", payload.RunID)
	}

	if resolveErr == nil {
		formatter.VerboseLog("Ordered %d item(s), %d edge(s)", len(result.Order), result.Edges)
		if opts.Format == "json" {
			return formatter.Success(payload)
		}
		return nil
	}

	return resolutionFailure(formatter, resolveErr, payload)
}

// resolutionFailure reports a failed resolution. Unresolved runs exit 1;
// rejected input and aborted runs are command errors.
func resolutionFailure(formatter *OutputFormatter, err error, payload any) error {
	var ue *engine.UnresolvedError
	if errors.As(err, &ue) {
		msg := unresolvedMessage(ue)
		diagnosis := diagnosisOf(ue)
		_ = formatter.Failure(ErrCodeUnresolved, msg, payload, diagnosis)
		if formatter.Format != "json" {
			writeDiagnosis(formatter.Writer, diagnosis)
		}
		return NewExitError(ExitFailure, msg)
	}

	code := resolutionCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "resolution failed", err)
}

// beginRecordedRun opens a run in the store for records read from path.
func beginRecordedRun(ctx context.Context, st *store.Store, runID, path string, records []ir.Record) (*store.RunWriter, error) {
	hash, err := ir.InputHash(records)
	if err != nil {
		return nil, fmt.Errorf("hash input: %w", err)
	}
	return st.BeginRun(ctx, store.RunInfo{
		ID:        runID,
		InputHash: hash,
		Source:    path,
		Records:   records,
	})
}

// finishRecordedRun commits the outcome of a resolution. A run whose sink
// failed is aborted instead, since its emissions are incomplete.
func finishRecordedRun(w *store.RunWriter, resolveErr error) error {
	if engine.Code(resolveErr) == engine.ErrCodeSinkFailed {
		return w.Abort(resolveErr.Error())
	}
	return w.Complete(store.OutcomeOf(resolveErr))
}
