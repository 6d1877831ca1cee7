package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const coursesJSON = `[
  {"name": "Software Design", "prerequisites": ["Algorithms"]},
  {"name": "Intro to Programming", "prerequisites": []},
  {"name": "Algorithms", "prerequisites": ["Intro to Programming"]}
]`

const cycleJSON = `[
  {"name": "Base", "prerequisites": []},
  {"name": "A", "prerequisites": ["B"]},
  {"name": "B", "prerequisites": ["A"]}
]`

// writeInput writes content to a file in a fresh temp dir and returns its path.
func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func textOpts() *RootOptions {
	return &RootOptions{Format: "text", LogFormat: "text"}
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: "json", LogFormat: "text"}
}
