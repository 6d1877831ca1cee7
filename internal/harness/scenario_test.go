package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prereq/internal/ir"
	"github.com/roach88/prereq/internal/source"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
records:
  - name: X
  - name: Y
    prerequisites: [X]
expect:
  order: [X, Y]
assertions:
  - type: precedes
    before: X
    after: Y
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Records, 2)
	assert.Equal(t, "Y", scenario.Records[1].Name)
	assert.Equal(t, []string{"X"}, scenario.Records[1].Prerequisites)
	assert.Equal(t, []string{"X", "Y"}, scenario.Expect.Order)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertPrecedes, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_EmptyOrderIsExpectation(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: empty
description: nothing in, nothing out
records: []
expect:
  order: []
`))
	require.NoError(t, err)
	assert.NotNil(t, scenario.Expect.Order)
	assert.Empty(t, scenario.Expect.Order)
}

func TestParseScenario_NormalizesRecords(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: normalized
description: identifiers are trimmed and composed like any other input
records:
  - name: " A"
  - name: "Cafe\u0301"
    prerequisites: ["A "]
expect:
  order: [A, "Caf\u00e9"]
`))
	require.NoError(t, err)

	assert.Equal(t, []ir.Record{
		{Name: "A", Prerequisites: []string{}},
		{Name: "Caf\u00e9", Prerequisites: []string{"A"}},
	}, scenario.Records)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"A", "Caf\u00e9"}, result.Order)
}

func TestParseScenario_HashMatchesLoadedInput(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: same_input
description: a scenario hashes like the same records read by the CLI
records:
  - name: " A"
  - name: B
    prerequisites: ["A"]
expect:
  order: [A, B]
`))
	require.NoError(t, err)

	loaded, err := source.Parse(strings.NewReader(`[{"name": "A"}, {"name": "B", "prerequisites": ["A"]}]`), source.FormatJSON, "in.json")
	require.NoError(t, err)

	want, err := ir.InputHash(loaded)
	require.NoError(t, err)
	got, err := ir.InputHash(scenario.Records)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: s\ndescription: d\nexpected:\n  order: []\n",
			wantErr: "field expected not found",
		},
		{
			name:    "missing name",
			content: "description: d\nexpect:\n  order: []\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: s\nexpect:\n  order: []\n",
			wantErr: "description is required",
		},
		{
			name:    "no expectation",
			content: "name: s\ndescription: d\n",
			wantErr: "order or error is required",
		},
		{
			name:    "order and error",
			content: "name: s\ndescription: d\nexpect:\n  order: [A]\n  error: UNRESOLVED_DEPENDENCY\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown error code",
			content: "name: s\ndescription: d\nexpect:\n  error: SINK_FAILED\n",
			wantErr: `unknown error code "SINK_FAILED"`,
		},
		{
			name:    "diagnosis without error",
			content: "name: s\ndescription: d\nexpect:\n  order: []\n  missing: [Q]\n",
			wantErr: "require error",
		},
		{
			name:    "assertion without type",
			content: "name: s\ndescription: d\nexpect:\n  order: []\nassertions:\n  - count: 1\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "precedes without after",
			content: "name: s\ndescription: d\nexpect:\n  order: []\nassertions:\n  - type: precedes\n    before: A\n",
			wantErr: "before and after are required",
		},
		{
			name:    "emitted without items",
			content: "name: s\ndescription: d\nexpect:\n  order: []\nassertions:\n  - type: emitted\n",
			wantErr: "items list is required for emitted",
		},
		{
			name:    "negative count",
			content: "name: s\ndescription: d\nexpect:\n  order: []\nassertions:\n  - type: count\n    count: -1\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "unknown assertion",
			content: "name: s\ndescription: d\nexpect:\n  order: []\nassertions:\n  - type: follows\n",
			wantErr: `unknown assertion type "follows"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0755))

	for _, name := range []string{
		filepath.Join(dir, "b_cycle.yaml"),
		filepath.Join(dir, "a_chain.yml"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(nested, "c_cycle.yaml"),
	} {
		require.NoError(t, os.WriteFile(name, []byte("name: x\n"), 0644))
	}

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_chain.yml"),
		filepath.Join(dir, "b_cycle.yaml"),
		filepath.Join(nested, "c_cycle.yaml"),
	}, files)

	files, err = FindScenarios(dir, "*_cycle")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b_cycle.yaml"),
		filepath.Join(nested, "c_cycle.yaml"),
	}, files)

	_, err = FindScenarios(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestFindScenarios_MissingDir(t *testing.T) {
	_, err := FindScenarios(filepath.Join(t.TempDir(), "absent"), "")
	require.Error(t, err)
}
