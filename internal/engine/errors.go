package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/prereq/internal/ir"
)

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeUnresolved indicates items were left pending at the end of a run.
	ErrCodeUnresolved ErrorCode = "UNRESOLVED_DEPENDENCY"

	// ErrCodeDuplicateItem indicates an identifier appeared in two records.
	ErrCodeDuplicateItem ErrorCode = "DUPLICATE_ITEM"

	// ErrCodeEmptyItem indicates an empty item or prerequisite identifier.
	ErrCodeEmptyItem ErrorCode = "EMPTY_ITEM"

	// ErrCodeInvariantViolation indicates the pending and reverse indexes
	// went out of sync. Always a bug in the resolver.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeSinkFailed indicates the output sink rejected an emission.
	ErrCodeSinkFailed ErrorCode = "SINK_FAILED"

	// ErrCodeFinished indicates a resolver was used after Finish.
	ErrCodeFinished ErrorCode = "RESOLVER_FINISHED"
)

// ResolveError represents an input rejection or an aborted run.
type ResolveError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Item is the affected item, if any.
	Item string

	// Index is the 0-based record index, or -1 when not tied to a record.
	Index int

	// Err is the underlying cause (sink failures).
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Item != "" {
		msg = fmt.Sprintf("%s (item=%q)", msg, e.Item)
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (record=%d)", msg, e.Index)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// UnresolvedError is the terminal failure of a run that could not drain.
//
// It names every item left pending, classified as cycle, dangling or
// blocked. Items emitted before detection stay valid.
type UnresolvedError struct {
	// Items lists unresolved items in input order.
	Items []ir.UnresolvedItem

	// Cycles lists each dependency cycle as its sorted members; the list is
	// sorted by first member. A self-prerequisite is a one-member cycle.
	Cycles [][]string

	// Missing lists prerequisite identifiers that never appeared as records,
	// sorted.
	Missing []string

	// Emitted is how many items were emitted before detection.
	Emitted int
}

// Error implements the error interface.
func (e *UnresolvedError) Error() string {
	names := make([]string, len(e.Items))
	for i, item := range e.Items {
		names[i] = item.Name
	}
	msg := fmt.Sprintf("%s: %d item(s) never became ready: %s",
		ErrCodeUnresolved, len(e.Items), strings.Join(names, ", "))
	if len(e.Cycles) > 0 {
		parts := make([]string, len(e.Cycles))
		for i, c := range e.Cycles {
			parts[i] = "{" + strings.Join(c, ", ") + "}"
		}
		msg += "; cycles: " + strings.Join(parts, " ")
	}
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf("; undefined: %s", strings.Join(e.Missing, ", "))
	}
	return msg
}

// HasCycle reports whether at least one unresolved item is on a cycle.
func (e *UnresolvedError) HasCycle() bool {
	return len(e.Cycles) > 0
}

// Code returns the error category of err, or "" when err is not a
// resolution error.
func Code(err error) ErrorCode {
	var ue *UnresolvedError
	if errors.As(err, &ue) {
		return ErrCodeUnresolved
	}
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsUnresolved returns true if err is an unresolved-dependency failure.
// Uses errors.As to handle wrapped errors.
func IsUnresolved(err error) bool {
	var ue *UnresolvedError
	return errors.As(err, &ue)
}

// IsDuplicate returns true if err rejects a duplicate item identifier.
func IsDuplicate(err error) bool {
	return Code(err) == ErrCodeDuplicateItem
}

// IsInvariantViolation returns true if err reports index desynchronization.
func IsInvariantViolation(err error) bool {
	return Code(err) == ErrCodeInvariantViolation
}

// IsInputError returns true if err rejects the input itself (duplicate or
// empty identifiers) rather than the dependency structure.
func IsInputError(err error) bool {
	switch Code(err) {
	case ErrCodeDuplicateItem, ErrCodeEmptyItem:
		return true
	}
	return false
}

func newDuplicateError(item string, index, first int) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeDuplicateItem,
		Message: fmt.Sprintf("item already defined by record %d", first),
		Item:    item,
		Index:   index,
	}
}

func newEmptyItemError(index int, what string) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeEmptyItem,
		Message: what + " identifier is empty",
		Index:   index,
	}
}

func newInvariantError(op, item, prereq, reason string) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeInvariantViolation,
		Message: fmt.Sprintf("%s(%q): %s", op, prereq, reason),
		Item:    item,
		Index:   -1,
	}
}

func newSinkError(item string, err error) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeSinkFailed,
		Message: "output sink rejected emission",
		Item:    item,
		Index:   -1,
		Err:     err,
	}
}
