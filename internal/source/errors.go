package source

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes, shared with the CLI's user-facing error output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Input file missing or not a regular file
	ErrCodeReadFailed  = "E003" // Input could not be read
	ErrCodeUnsupported = "E004" // Unknown input format
	ErrCodeParseFailed = "E005" // Syntax error in input
	ErrCodeSchema      = "E006" // Input does not have the record shape
)

// LoadError represents an error that occurred while loading records.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// fromCUEError converts a CUE error into a LoadError, keeping the position of
// the first reported problem.
func fromCUEError(code, path string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), Path: path}
	}

	first := errs[0]
	loadErr := &LoadError{Code: code, Message: first.Error(), Path: path}
	if positions := errors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}
