package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/testutil"
)

var rec = testutil.Rec

func TestRun_Success(t *testing.T) {
	scenario := &Scenario{
		Name:        "chain",
		Description: "simple chain",
		Records:     []ir.Record{rec("Y", "X"), rec("X")},
		Expect:      Expectation{Order: []string{"X", "Y"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "scenario-chain", result.RunID)
	assert.Equal(t, ir.RunOK, result.Status)
	assert.Empty(t, result.ErrorCode)
	assert.Equal(t, []string{"X", "Y"}, result.Order)
}

func TestRun_WrongOrderFails(t *testing.T) {
	scenario := &Scenario{
		Name:    "wrong",
		Records: []ir.Record{rec("X"), rec("Y")},
		Expect:  Expectation{Order: []string{"Y", "X"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "order: expected [Y X], got [X Y]")
}

func TestRun_UnexpectedFailure(t *testing.T) {
	scenario := &Scenario{
		Name:    "cycle",
		Records: []ir.Record{rec("A", "B"), rec("B", "A")},
		Expect:  Expectation{Order: []string{"A", "B"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, ir.RunUnresolved, result.Status)
	assert.Contains(t, result.Errors, "expected success, got UNRESOLVED_DEPENDENCY")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	scenario := &Scenario{
		Name:    "fine",
		Records: []ir.Record{rec("A")},
		Expect:  Expectation{Error: "UNRESOLVED_DEPENDENCY"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "expected error UNRESOLVED_DEPENDENCY, got success")
}

func TestRun_Diagnosis(t *testing.T) {
	scenario := &Scenario{
		Name: "diagnosed",
		Records: []ir.Record{
			rec("Base"),
			rec("A", "B"),
			rec("B", "A"),
			rec("E", "Q"),
		},
		Expect: Expectation{
			Error:      "UNRESOLVED_DEPENDENCY",
			Emitted:    []string{"Base"},
			Unresolved: []string{"E", "B", "A"},
			Cycles:     [][]string{{"B", "A"}},
			Missing:    []string{"Q"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"A", "B", "E"}, result.UnresolvedNames())
	assert.Equal(t, [][]string{{"A", "B"}}, result.Cycles)
	assert.Equal(t, []string{"Q"}, result.Missing)
}

func TestRun_DiagnosisMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:    "mismatch",
		Records: []ir.Record{rec("A", "Q")},
		Expect: Expectation{
			Error:   "UNRESOLVED_DEPENDENCY",
			Missing: []string{"R"},
			Cycles:  [][]string{{"A"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRun_Rejected(t *testing.T) {
	scenario := &Scenario{
		Name:    "dup",
		Records: []ir.Record{rec("A"), rec("A")},
		Expect:  Expectation{Error: "DUPLICATE_ITEM", Emitted: []string{}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, ir.RunRejected, result.Status)
	assert.Empty(t, result.Order)
}

func TestRun_AssertionFailuresRecorded(t *testing.T) {
	scenario := &Scenario{
		Name:    "asserted",
		Records: []ir.Record{rec("X"), rec("Y")},
		Expect:  Expectation{Order: []string{"X", "Y"}},
		Assertions: []Assertion{
			{Type: AssertPrecedes, Before: "Y", After: "X"},
			{Type: AssertCount, Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
}

func TestCheckProperties(t *testing.T) {
	records := []ir.Record{rec("X"), rec("Y", "X"), rec("Z", "Y")}

	tests := []struct {
		name   string
		status ir.RunStatus
		order  []string
		want   []string
	}{
		{
			name:   "valid complete order",
			status: ir.RunOK,
			order:  []string{"X", "Y", "Z"},
		},
		{
			name:   "valid partial order",
			status: ir.RunUnresolved,
			order:  []string{"X"},
		},
		{
			name:   "duplicate emission",
			status: ir.RunUnresolved,
			order:  []string{"X", "X"},
			want:   []string{"property: X emitted twice"},
		},
		{
			name:   "prerequisite after dependent",
			status: ir.RunUnresolved,
			order:  []string{"Y", "X"},
			want:   []string{"property: Y emitted before its prerequisite X"},
		},
		{
			name:   "prerequisite never emitted",
			status: ir.RunUnresolved,
			order:  []string{"X", "Z"},
			want:   []string{"property: Z emitted before its prerequisite Y"},
		},
		{
			name:   "incomplete success",
			status: ir.RunOK,
			order:  []string{"X", "Y"},
			want:   []string{"property: 2 of 3 items emitted on success"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult()
			result.Status = tt.status
			result.Order = tt.order
			assert.Equal(t, tt.want, checkProperties(records, result))
		})
	}
}

func TestSameCycles(t *testing.T) {
	assert.True(t, sameCycles([][]string{{"B", "A"}, {"C"}}, [][]string{{"C"}, {"A", "B"}}))
	assert.False(t, sameCycles([][]string{{"A", "B"}}, [][]string{{"A", "B"}, {"C"}}))
	assert.False(t, sameCycles([][]string{{"A", "B"}}, [][]string{{"A", "C"}}))
}

func TestResult_AddError(t *testing.T) {
	result := NewResult()
	assert.True(t, result.Pass)

	result.AddError("boom")
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"boom"}, result.Errors)
}
