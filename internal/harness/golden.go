package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/prereq/internal/ir"
)

// Snapshot renders a result as canonical JSON for golden comparison.
//
// The snapshot holds the scenario name, status and emitted order; the error
// code and diagnosis appear only when present. Run IDs and pass/fail state
// are excluded so a snapshot depends on the resolver's behaviour alone.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := map[string]any{
		"scenario_name": scenarioName,
		"status":        string(result.Status),
		"order":         nonNil(result.Order),
	}
	if result.ErrorCode != "" {
		snapshot["error"] = result.ErrorCode
	}
	if len(result.Unresolved) > 0 {
		items := make([]any, len(result.Unresolved))
		for i, u := range result.Unresolved {
			items[i] = map[string]any{
				"name":       u.Name,
				"kind":       string(u.Kind),
				"waiting_on": nonNil(u.WaitingOn),
			}
		}
		snapshot["unresolved"] = items
	}
	if len(result.Cycles) > 0 {
		cycles := make([]any, len(result.Cycles))
		for i, c := range result.Cycles {
			cycles[i] = nonNil(c)
		}
		snapshot["cycles"] = cycles
	}
	if len(result.Missing) > 0 {
		snapshot["missing"] = result.Missing
	}

	return ir.MarshalCanonical(snapshot)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
