// Disk extractor — gathers per-partition usage for local filesystems.
// Uses gopsutil for cross-platform disk metrics.
package extractor

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/stavily/machine-data-extractor/internal/models"
)

// pseudoFSTypes lists virtual, system, and network filesystems excluded from
// disk usage — they do not represent local storage.
var pseudoFSTypes = map[string]bool{
	"autofs":      true,
	"binfmt_misc": true,
	"bpf":         true,
	"cgroup":      true,
	"cgroup2":     true,
	"configfs":    true,
	"debugfs":     true,
	"devfs":       true,
	"devtmpfs":    true,
	"efivarfs":    true,
	"fusectl":     true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"nsfs":        true,
	"overlay":     true,
	"proc":        true,
	"pstore":      true,
	"ramfs":       true,
	"securityfs":  true,
	"squashfs":    true,
	"sysfs":       true,
	"tmpfs":       true,
	"tracefs":     true,

	"9p":         true,
	"cifs":       true,
	"fuse.sshfs": true,
	"glusterfs":  true,
	"nfs":        true,
	"nfs4":       true,
	"smbfs":      true,
}

// DiskExtractor gathers disk usage per mount point.
type DiskExtractor struct {
	logger *zap.Logger
}

// NewDiskExtractor creates a new disk extractor.
func NewDiskExtractor(logger *zap.Logger) *DiskExtractor {
	return &DiskExtractor{logger: logger}
}

// Name returns the extractor identifier.
func (e *DiskExtractor) Name() string { return "disk" }

// Extract gathers usage for all mounted real partitions. Inaccessible
// partitions are skipped.
func (e *DiskExtractor) Extract(ctx context.Context) (any, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	info := &models.DiskInfo{}
	for _, p := range partitions {
		if skipPartition(p.Fstype) {
			e.logger.Debug("Skipping pseudo/network filesystem",
				zap.String("mount", p.Mountpoint),
				zap.String("fstype", p.Fstype))
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		// Some virtual mounts report zero size.
		if usage.Total == 0 {
			continue
		}

		info.Partitions = append(info.Partitions, models.PartitionUsage{
			Device:      p.Device,
			Mountpoint:  p.Mountpoint,
			Fstype:      p.Fstype,
			Total:       usage.Total,
			Used:        usage.Used,
			Free:        usage.Free,
			UsedPercent: usage.UsedPercent,
		})
	}

	return info, nil
}

// skipPartition reports whether a filesystem type is excluded from disk
// usage extraction.
func skipPartition(fstype string) bool {
	return pseudoFSTypes[fstype]
}
