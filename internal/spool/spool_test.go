package spool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stavily/machine-data-extractor/internal/agentrpc"
)

func entry(msg string) agentrpc.LogEntry {
	return agentrpc.LogEntry{
		Level:     "INFO",
		Message:   msg,
		Timestamp: "2026-08-30T10:00:00Z",
	}
}

func TestStoreAndRetrieve(t *testing.T) {
	s, err := New(t.TempDir(), 5, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Store([]agentrpc.LogEntry{entry("first")}))
	require.NoError(t, s.Store([]agentrpc.LogEntry{entry("second")}))
	assert.Equal(t, 2, s.Count())

	batches, err := s.RetrieveAll()
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "first", batches[0][0].Message)
	assert.Equal(t, "second", batches[1][0].Message)
}

func TestRetrieveRemovesFiles(t *testing.T) {
	s, err := New(t.TempDir(), 5, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Store([]agentrpc.LogEntry{entry("once")}))
	_, err = s.RetrieveAll()
	require.NoError(t, err)

	assert.Equal(t, 0, s.Count())
	batches, err := s.RetrieveAll()
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestCorruptedFileIsDropped(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 5, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Store([]agentrpc.LogEntry{entry("good")}))
	bad := filepath.Join(dir, "logs-00000000T000000.000000000.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o640))

	batches, err := s.RetrieveAll()
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "good", batches[0][0].Message)

	_, err = os.Stat(bad)
	assert.True(t, os.IsNotExist(err), "corrupted files are removed")
}

func TestCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "spool")
	_, err := New(dir, 5, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
