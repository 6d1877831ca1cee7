package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	InputFormat string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool       `json:"valid"`
	Records   int        `json:"records"`
	Edges     int        `json:"edges"`
	Orderable int        `json:"orderable"`
	Diagnosis *Diagnosis `json:"diagnosis,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that every item can be ordered",
		Long: `Resolve the records without printing an order.

Reports record and edge counts when every item can be ordered, or the
cycles and undefined prerequisites that prevent it.

Exit codes:
  0 - Input is valid and fully orderable
  1 - Input is rejected or some items never become ready
  2 - Command error (missing file, malformed input)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format (json|yaml|cue), detected from the extension by default")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	records, err := loadRecords(cmd, path, opts.InputFormat)
	if err != nil {
		return loadErrorOutput(formatter, err)
	}
	formatter.VerboseLog("Validating %d record(s) from %s", len(records), path)

	result := ValidationResult{Records: len(records), Edges: ir.EdgeCount(records)}

	// Duplicate and empty identifiers are reported before any resolution.
	if err := engine.Validate(records); err != nil {
		return outputValidationFailure(formatter, resolutionCode(err), err.Error(), result)
	}

	counted := engine.SinkFunc(func(string, int64) error {
		result.Orderable++
		return nil
	})
	_, resolveErr := engine.Resolve(records, counted, engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))

	var ue *engine.UnresolvedError
	switch {
	case resolveErr == nil:
		result.Valid = true
		return outputValidateSuccess(formatter, result)
	case errors.As(resolveErr, &ue):
		diagnosis := diagnosisOf(ue)
		result.Diagnosis = &diagnosis
		return outputValidationFailure(formatter, ErrCodeUnresolved, unresolvedMessage(ue), result)
	default:
		return outputValidationFailure(formatter, resolutionCode(resolveErr), resolveErr.Error(), result)
	}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d record(s), %d edge(s), all orderable\n", result.Records, result.Edges)
	return nil
}

// outputValidationFailure outputs a rejected or unresolvable input.
func outputValidationFailure(formatter *OutputFormatter, code, message string, result ValidationResult) error {
	if formatter.Format == "json" {
		_ = formatter.Failure(code, message, result, nil)
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, message)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, message)
	fmt.Fprintf(formatter.Writer, "  %d of %d record(s) orderable\n", result.Orderable, result.Records)
	if result.Diagnosis != nil {
		writeDiagnosis(formatter.Writer, *result.Diagnosis)
	}

	return NewExitError(ExitFailure, message)
}
