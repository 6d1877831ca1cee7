package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const scenarioDir = "../../testdata/scenarios"

func TestGolden_Scenarios(t *testing.T) {
	files, err := FindScenarios(scenarioDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			// Regenerate with: go test ./internal/harness -run TestGolden -update
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			require.True(t, result.Pass, "scenario errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_SuccessOmitsDiagnosis(t *testing.T) {
	result := NewResult()
	result.Status = "ok"
	result.Order = []string{"X", "Y"}

	data, err := Snapshot("s", result)
	require.NoError(t, err)
	require.Equal(t, `{"order":["X","Y"],"scenario_name":"s","status":"ok"}`, string(data))
}

func TestSnapshot_NilOrderRendersEmpty(t *testing.T) {
	result := &Result{Status: "rejected", ErrorCode: "EMPTY_ITEM"}

	data, err := Snapshot("s", result)
	require.NoError(t, err)
	require.Equal(t, `{"error":"EMPTY_ITEM","order":[],"scenario_name":"s","status":"rejected"}`, string(data))
}
