// Process extractor — gathers the most resource-intensive processes.
// Uses gopsutil for cross-platform process listing.
package extractor

import (
	"context"
	"sort"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/stavily/machine-data-extractor/internal/models"
)

// ProcessExtractor gathers the process count and the top-N processes by CPU
// usage.
type ProcessExtractor struct {
	topN int
}

// NewProcessExtractor creates a new process extractor limited to topN
// entries.
func NewProcessExtractor(topN int) *ProcessExtractor {
	return &ProcessExtractor{topN: topN}
}

// Name returns the extractor identifier.
func (e *ProcessExtractor) Name() string { return "processes" }

// Extract lists all processes and keeps the topN heaviest by CPU.
// Processes that disappear mid-listing are skipped.
func (e *ProcessExtractor) Extract(ctx context.Context) (any, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]models.Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}

		entry := models.Process{PID: p.Pid, Name: name}
		if v, err := p.CPUPercentWithContext(ctx); err == nil {
			entry.CPUPercent = v
		}
		if v, err := p.MemoryPercentWithContext(ctx); err == nil {
			entry.MemoryPercent = v
		}
		if v, err := p.UsernameWithContext(ctx); err == nil {
			entry.Username = v
		}
		if v, err := p.StatusWithContext(ctx); err == nil && len(v) > 0 {
			entry.Status = v[0]
		}
		entries = append(entries, entry)
	}

	return &models.ProcessInfo{
		Count: len(entries),
		Top:   topByCPU(entries, e.topN),
	}, nil
}

// topByCPU sorts entries by CPU usage descending and truncates to n.
func topByCPU(entries []models.Process, n int) []models.Process {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CPUPercent > entries[j].CPUPercent
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
