package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAssertions(t *testing.T) {
	order := []string{"A", "B", "C"}

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{name: "precedes holds", assertion: Assertion{Type: AssertPrecedes, Before: "A", After: "C"}},
		{
			name:      "precedes reversed",
			assertion: Assertion{Type: AssertPrecedes, Before: "C", After: "A"},
			wantErr:   "C (pos 3) emitted after A (pos 1)",
		},
		{
			name:      "precedes missing item",
			assertion: Assertion{Type: AssertPrecedes, Before: "A", After: "Z"},
			wantErr:   "A at 0, Z at -1",
		},
		{name: "emitted holds", assertion: Assertion{Type: AssertEmitted, Items: []string{"B", "C"}}},
		{
			name:      "emitted missing",
			assertion: Assertion{Type: AssertEmitted, Items: []string{"B", "Z"}},
			wantErr:   "Z not emitted",
		},
		{name: "not emitted holds", assertion: Assertion{Type: AssertNotEmitted, Items: []string{"Z"}}},
		{
			name:      "not emitted violated",
			assertion: Assertion{Type: AssertNotEmitted, Items: []string{"B"}},
			wantErr:   "B emitted at pos 2",
		},
		{name: "count holds", assertion: Assertion{Type: AssertCount, Count: 3}},
		{
			name:      "count wrong",
			assertion: Assertion{Type: AssertCount, Count: 2},
			wantErr:   "Actual: 3 items emitted",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "follows"},
			wantErr:   `unknown assertion type "follows"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult()
			result.Order = order

			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "assertions[0]")
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertionError_IncludesOrder(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCount,
		Expected: "1 items emitted",
		Actual:   "2 items emitted",
		Order:    []string{"A", "B"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: count")
	assert.Contains(t, msg, "[1] A")
	assert.Contains(t, msg, "[2] B")
}
