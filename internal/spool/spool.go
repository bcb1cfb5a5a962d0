// Package spool provides a local file-based spool for agent log entries that
// could not be uploaded. Entries are written as timestamped JSON files and
// drained best-effort on later monitoring cycles, so they survive crashes
// and agent outages. Auto-cleanup enforces a size limit by dropping the
// oldest batch.
package spool

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stavily/machine-data-extractor/internal/agentrpc"
)

// Spool stores undelivered log entry batches on disk, one file per batch.
type Spool struct {
	dir       string
	maxSizeMB int
	logger    *zap.Logger
	mu        sync.Mutex
}

// New creates a spool at the given directory, creating it if needed.
func New(dir string, maxSizeMB int, logger *zap.Logger) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &Spool{
		dir:       dir,
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}, nil
}

// Store saves a batch of log entries to a timestamped file. When the spool
// exceeds its size limit the oldest batch is dropped first.
func (s *Spool) Store(entries []agentrpc.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentSizeMB() >= s.maxSizeMB {
		s.logger.Warn("Log spool full, dropping oldest batch")
		s.dropOldest()
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	name := filepath.Join(s.dir, "logs-"+time.Now().UTC().Format("20060102T150405.000000000")+".json")
	return os.WriteFile(name, data, 0o640)
}

// RetrieveAll reads every spooled batch in chronological order and removes
// the files. Corrupted files are removed and logged.
func (s *Spool) RetrieveAll() ([][]agentrpc.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.batchFiles()
	if err != nil {
		return nil, err
	}

	var batches [][]agentrpc.LogEntry
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Failed to read spool file",
				zap.String("file", path), zap.Error(err))
			continue
		}

		var batch []agentrpc.LogEntry
		if err := json.Unmarshal(data, &batch); err != nil {
			s.logger.Warn("Removing corrupted spool file",
				zap.String("file", path), zap.Error(err))
			os.Remove(path)
			continue
		}

		batches = append(batches, batch)
		os.Remove(path)
	}

	return batches, nil
}

// Count returns the number of spooled batch files.
func (s *Spool) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.batchFiles()
	if err != nil {
		return 0
	}
	return len(files)
}

// batchFiles lists spool files sorted by name, which is chronological order
// given the timestamped naming. Must be called with s.mu held.
func (s *Spool) batchFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	return files, nil
}

// currentSizeMB returns the total size of all spool files in megabytes.
// Must be called with s.mu held.
func (s *Spool) currentSizeMB() int {
	files, err := s.batchFiles()
	if err != nil {
		return 0
	}
	var total int64
	for _, path := range files {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return int(total / (1024 * 1024))
}

// dropOldest removes the oldest spool file. Must be called with s.mu held.
func (s *Spool) dropOldest() {
	files, err := s.batchFiles()
	if err != nil || len(files) == 0 {
		return
	}
	if err := os.Remove(files[0]); err != nil {
		s.logger.Warn("Failed to remove oldest spool file",
			zap.String("file", files[0]), zap.Error(err))
	}
}
