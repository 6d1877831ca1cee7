package store

import (
	"errors"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
)

// OutcomeOf maps the result of a resolution to the outcome recorded for it.
//
//	nil                     -> ok
//	*engine.UnresolvedError -> unresolved, with diagnosis
//	duplicate/empty input   -> rejected
//	anything else           -> error
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Outcome{Status: ir.RunOK}
	}

	var ue *engine.UnresolvedError
	if errors.As(err, &ue) {
		return Outcome{
			Status:       ir.RunUnresolved,
			ErrorCode:    string(engine.ErrCodeUnresolved),
			ErrorMessage: err.Error(),
			Unresolved:   ue.Items,
			Cycles:       ue.Cycles,
			Missing:      ue.Missing,
		}
	}

	code := string(engine.Code(err))
	if code == "" {
		code = "ERROR"
	}
	status := ir.RunError
	if engine.IsInputError(err) {
		status = ir.RunRejected
	}
	return Outcome{Status: status, ErrorCode: code, ErrorMessage: err.Error()}
}
