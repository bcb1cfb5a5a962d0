// Memory extractor — gathers virtual and swap memory usage.
// Uses gopsutil for cross-platform memory metrics.
package extractor

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/stavily/machine-data-extractor/internal/models"
)

// MemoryExtractor gathers RAM and swap usage.
type MemoryExtractor struct{}

// NewMemoryExtractor creates a new memory extractor.
func NewMemoryExtractor() *MemoryExtractor {
	return &MemoryExtractor{}
}

// Name returns the extractor identifier.
func (e *MemoryExtractor) Name() string { return "memory" }

// Extract gathers virtual memory usage; swap is best-effort.
func (e *MemoryExtractor) Extract(ctx context.Context) (any, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	info := &models.MemoryInfo{
		VirtualMemory: &models.VirtualMemory{
			Total:     v.Total,
			Available: v.Available,
			Used:      v.Used,
			Free:      v.Free,
			Percent:   v.UsedPercent,
		},
	}

	if s, err := mem.SwapMemoryWithContext(ctx); err == nil {
		info.SwapMemory = &models.SwapMemory{
			Total:   s.Total,
			Used:    s.Used,
			Free:    s.Free,
			Percent: s.UsedPercent,
		}
	}

	return info, nil
}
