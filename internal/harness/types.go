package harness

import "github.com/roach88/prereq/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation, every assertion and every property hold.
	Pass bool `json:"pass"`

	// RunID is the ID under which the run was recorded.
	RunID string `json:"run_id"`

	// Status is the recorded run status.
	Status ir.RunStatus `json:"status"`

	// ErrorCode is the recorded error code, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Order is the emitted order as read back from the store.
	Order []string `json:"order"`

	// Unresolved, Cycles and Missing are the recorded diagnosis.
	Unresolved []ir.UnresolvedItem `json:"unresolved,omitempty"`
	Cycles     [][]string          `json:"cycles,omitempty"`
	Missing    []string            `json:"missing,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Order:  []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// UnresolvedNames returns the names of the unresolved items in input order.
func (r *Result) UnresolvedNames() []string {
	names := make([]string, len(r.Unresolved))
	for i, u := range r.Unresolved {
		names[i] = u.Name
	}
	return names
}
