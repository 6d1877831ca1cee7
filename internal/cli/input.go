package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/source"
)

// Diagnosis describes why items of a run never became ready.
type Diagnosis struct {
	Unresolved []ir.UnresolvedItem `json:"unresolved"`
	Cycles     [][]string          `json:"cycles,omitempty"`
	Missing    []string            `json:"missing,omitempty"`
}

// loadRecords reads the records named by path, or standard input for "-".
// inputFormat overrides extension detection; stdin defaults to JSON.
func loadRecords(cmd *cobra.Command, path, inputFormat string) ([]ir.Record, error) {
	format, err := source.ParseFormat(inputFormat)
	if err != nil {
		return nil, err
	}

	if path == source.Stdin {
		if format == "" {
			format = source.FormatJSON
		}
		return source.Parse(cmd.InOrStdin(), format, "<stdin>")
	}
	return source.LoadFile(path, format)
}

// loadErrorOutput reports a failed load and returns the command error.
func loadErrorOutput(formatter *OutputFormatter, err error) error {
	code, message := source.ErrCodeGeneric, err.Error()

	var loadErr *source.LoadError
	if errors.As(err, &loadErr) {
		code, message = loadErr.Code, loadErrorMessage(loadErr)
	}

	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// loadErrorMessage renders a LoadError without repeating its code.
func loadErrorMessage(e *source.LoadError) string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	default:
		return e.Message
	}
}

// resolutionCode maps a resolution error to its CLI error code.
func resolutionCode(err error) string {
	switch engine.Code(err) {
	case engine.ErrCodeUnresolved:
		return ErrCodeUnresolved
	case engine.ErrCodeDuplicateItem:
		return ErrCodeDuplicate
	case engine.ErrCodeEmptyItem:
		return ErrCodeEmptyItem
	default:
		return ErrCodeResolve
	}
}

// unresolvedMessage is the headline for a run that could not drain.
func unresolvedMessage(ue *engine.UnresolvedError) string {
	if ue.HasCycle() {
		return "Impossible outcome, there are circular dependencies."
	}
	return "Impossible outcome, some prerequisites are never defined."
}

func diagnosisOf(ue *engine.UnresolvedError) Diagnosis {
	return Diagnosis{Unresolved: ue.Items, Cycles: ue.Cycles, Missing: ue.Missing}
}

// writeDiagnosis prints a diagnosis as indented text.
func writeDiagnosis(w io.Writer, d Diagnosis) {
	for _, c := range d.Cycles {
		fmt.Fprintf(w, "  cycle: %v\n", c)
	}
	for _, m := range d.Missing {
		fmt.Fprintf(w, "  undefined: %s\n", m)
	}
	for _, u := range d.Unresolved {
		fmt.Fprintf(w, "  %s (%s) waiting on %v\n", u.Name, u.Kind, u.WaitingOn)
	}
}
