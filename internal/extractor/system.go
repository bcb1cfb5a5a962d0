// General host information extractor.
// Uses gopsutil for cross-platform host details.
package extractor

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/stavily/machine-data-extractor/internal/models"
)

// SystemExtractor gathers hostname, OS, kernel, and uptime information.
type SystemExtractor struct{}

// NewSystemExtractor creates a new system information extractor.
func NewSystemExtractor() *SystemExtractor {
	return &SystemExtractor{}
}

// Name returns the extractor identifier.
func (e *SystemExtractor) Name() string { return "system" }

// Extract gathers general host information.
func (e *SystemExtractor) Extract(ctx context.Context) (any, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return &models.SystemInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		Architecture:    info.KernelArch,
		UptimeSeconds:   info.Uptime,
		BootTime:        time.Unix(int64(info.BootTime), 0).UTC(),
	}, nil
}
