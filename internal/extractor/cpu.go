// CPU extractor — gathers logical CPU count and utilization.
// Uses gopsutil for cross-platform CPU metrics.
package extractor

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/stavily/machine-data-extractor/internal/models"
)

// cpuSampleWindow is how long the overall usage measurement blocks. Usage is
// a delta over this window; an instantaneous read would mostly return 0.
const cpuSampleWindow = time.Second

// CPUExtractor gathers CPU count and utilization.
type CPUExtractor struct{}

// NewCPUExtractor creates a new CPU extractor.
func NewCPUExtractor() *CPUExtractor {
	return &CPUExtractor{}
}

// Name returns the extractor identifier.
func (e *CPUExtractor) Name() string { return "cpu" }

// Extract gathers the logical CPU count and the overall utilization
// percentage. A failed usage reading leaves Percent nil rather than failing
// the whole section.
func (e *CPUExtractor) Extract(ctx context.Context) (any, error) {
	info := &models.CPUInfo{}
	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.Count = count
	}

	overall, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil && info.Count == 0 {
		return nil, err
	}
	if err == nil && len(overall) > 0 {
		info.Percent = &overall[0]
	}

	// Per-core snapshot is best-effort.
	if cores, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		info.PerCore = cores
	}

	return info, nil
}
