// Package models defines the machine data structures shared by the
// extractors, the monitor loop, and the agent client. These structures are
// serialized to JSON for trigger events and for the plugin's output envelope.
package models

import "time"

// Sample is one cycle's snapshot of extracted machine data. A Sample is
// produced fresh for each cycle and never mutated afterwards. Sections that
// were disabled or failed to extract are nil.
type Sample struct {
	Timestamp time.Time    `json:"timestamp"`
	System    *SystemInfo  `json:"system,omitempty"`
	CPU       *CPUInfo     `json:"cpu,omitempty"`
	Memory    *MemoryInfo  `json:"memory,omitempty"`
	Disk      *DiskInfo    `json:"disk,omitempty"`
	Processes *ProcessInfo `json:"processes,omitempty"`
}

// CPUPercent returns the sample's overall CPU utilization. ok is false when
// the CPU section is missing or the reading was unavailable.
func (s Sample) CPUPercent() (float64, bool) {
	if s.CPU == nil || s.CPU.Percent == nil {
		return 0, false
	}
	return *s.CPU.Percent, true
}

// MemoryPercent returns the sample's virtual memory utilization. ok is false
// when the memory section is missing or the reading was unavailable.
func (s Sample) MemoryPercent() (float64, bool) {
	if s.Memory == nil || s.Memory.VirtualMemory == nil {
		return 0, false
	}
	return s.Memory.VirtualMemory.Percent, true
}

// SystemInfo holds general host information. It is always included in a
// Sample regardless of the extraction selection.
type SystemInfo struct {
	Hostname        string    `json:"hostname"`
	OS              string    `json:"os"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platform_version,omitempty"`
	KernelVersion   string    `json:"kernel_version,omitempty"`
	Architecture    string    `json:"architecture,omitempty"`
	UptimeSeconds   uint64    `json:"uptime_seconds"`
	BootTime        time.Time `json:"boot_time"`
}

// CPUInfo holds CPU count and utilization. Percent is nil when the usage
// reading was unavailable.
type CPUInfo struct {
	Count   int       `json:"cpu_count"`
	Percent *float64  `json:"cpu_percent,omitempty"`
	PerCore []float64 `json:"per_core,omitempty"`
}

// MemoryInfo holds virtual and swap memory usage.
type MemoryInfo struct {
	VirtualMemory *VirtualMemory `json:"virtual_memory,omitempty"`
	SwapMemory    *SwapMemory    `json:"swap_memory,omitempty"`
}

// VirtualMemory holds RAM usage in bytes plus the utilization percentage.
type VirtualMemory struct {
	Total     uint64  `json:"total"`
	Available uint64  `json:"available"`
	Used      uint64  `json:"used"`
	Free      uint64  `json:"free"`
	Percent   float64 `json:"percent"`
}

// SwapMemory holds swap usage in bytes plus the utilization percentage.
type SwapMemory struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// DiskInfo holds per-partition usage for real (non-pseudo) filesystems.
type DiskInfo struct {
	Partitions []PartitionUsage `json:"partitions"`
}

// PartitionUsage is the usage of a single mounted partition.
type PartitionUsage struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

// ProcessInfo holds the total process count and the most resource-intensive
// processes, ordered by CPU usage descending.
type ProcessInfo struct {
	Count int       `json:"process_count"`
	Top   []Process `json:"processes"`
}

// Process is a single process's resource usage.
type Process struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	Username      string  `json:"username,omitempty"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float32 `json:"memory_percent"`
	Status        string  `json:"status,omitempty"`
}
