package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prereq/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRunInfo creates run metadata with a hash computed from records.
func createTestRunInfo(t *testing.T, id string, records ...ir.Record) RunInfo {
	t.Helper()
	hash, err := ir.InputHash(records)
	require.NoError(t, err)
	return RunInfo{
		ID:        id,
		InputHash: hash,
		Source:    "test.json",
		Records:   records,
	}
}

// recordCompletedRun writes a run that emitted items in order and finished ok.
func recordCompletedRun(t *testing.T, s *Store, info RunInfo, items ...string) {
	t.Helper()
	w, err := s.BeginRun(context.Background(), info)
	require.NoError(t, err)
	for i, item := range items {
		require.NoError(t, w.Emit(item, int64(i+1)))
	}
	require.NoError(t, w.Complete(Outcome{Status: ir.RunOK}))
}
