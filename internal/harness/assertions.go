package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the emitted order to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Order    []string // Full emitted order for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nEmitted order:\n")
	for i, item := range e.Order {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, item)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertPrecedes:
			err = assertPrecedes(result.Order, a)
		case AssertEmitted:
			err = assertEmitted(result.Order, a)
		case AssertNotEmitted:
			err = assertNotEmitted(result.Order, a)
		case AssertCount:
			err = assertCount(result.Order, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertPrecedes checks that Before is emitted earlier than After.
// Both must be emitted; other items may appear between them.
func assertPrecedes(order []string, a Assertion) error {
	before := slices.Index(order, a.Before)
	after := slices.Index(order, a.After)

	switch {
	case before < 0 || after < 0:
		return &AssertionError{
			Type:     AssertPrecedes,
			Expected: fmt.Sprintf("%s before %s", a.Before, a.After),
			Actual:   fmt.Sprintf("%s at %d, %s at %d (-1 = not emitted)", a.Before, before, a.After, after),
			Order:    order,
		}
	case before > after:
		return &AssertionError{
			Type:     AssertPrecedes,
			Expected: fmt.Sprintf("%s before %s", a.Before, a.After),
			Actual: fmt.Sprintf("%s (pos %d) emitted after %s (pos %d)",
				a.Before, before+1, a.After, after+1),
			Order: order,
		}
	}
	return nil
}

// assertEmitted checks that every listed item was emitted.
func assertEmitted(order []string, a Assertion) error {
	for _, item := range a.Items {
		if !slices.Contains(order, item) {
			return &AssertionError{
				Type:     AssertEmitted,
				Expected: fmt.Sprintf("all of %v emitted", a.Items),
				Actual:   fmt.Sprintf("%s not emitted", item),
				Order:    order,
			}
		}
	}
	return nil
}

// assertNotEmitted checks that no listed item was emitted.
func assertNotEmitted(order []string, a Assertion) error {
	for _, item := range a.Items {
		if pos := slices.Index(order, item); pos >= 0 {
			return &AssertionError{
				Type:     AssertNotEmitted,
				Expected: fmt.Sprintf("none of %v emitted", a.Items),
				Actual:   fmt.Sprintf("%s emitted at pos %d", item, pos+1),
				Order:    order,
			}
		}
	}
	return nil
}

// assertCount checks the exact number of emitted items.
func assertCount(order []string, a Assertion) error {
	if len(order) != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d items emitted", a.Count),
			Actual:   fmt.Sprintf("%d items emitted", len(order)),
			Order:    order,
		}
	}
	return nil
}
