package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(v float64) *float64 { return &v }

func TestCPUPercent(t *testing.T) {
	var s Sample
	_, ok := s.CPUPercent()
	assert.False(t, ok, "missing section")

	s.CPU = &CPUInfo{Count: 4}
	_, ok = s.CPUPercent()
	assert.False(t, ok, "missing reading")

	s.CPU.Percent = pct(73.2)
	v, ok := s.CPUPercent()
	require.True(t, ok)
	assert.Equal(t, 73.2, v)
}

func TestMemoryPercent(t *testing.T) {
	var s Sample
	_, ok := s.MemoryPercent()
	assert.False(t, ok, "missing section")

	s.Memory = &MemoryInfo{}
	_, ok = s.MemoryPercent()
	assert.False(t, ok, "missing virtual memory")

	s.Memory.VirtualMemory = &VirtualMemory{Percent: 64.8}
	v, ok := s.MemoryPercent()
	require.True(t, ok)
	assert.Equal(t, 64.8, v)
}

func TestTriggerEventRoundTrip(t *testing.T) {
	// Wall-clock times only: the monotonic reading does not survive JSON.
	ts := time.Date(2026, 8, 30, 10, 15, 0, 123456789, time.UTC)

	ev := TriggerEvent{
		EventID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Data: Sample{
			Timestamp: ts,
			System: &SystemInfo{
				Hostname:      "box-1",
				OS:            "linux",
				Platform:      "debian",
				UptimeSeconds: 86400,
				BootTime:      ts.Add(-24 * time.Hour),
			},
			CPU:    &CPUInfo{Count: 8, Percent: pct(91.5)},
			Memory: &MemoryInfo{VirtualMemory: &VirtualMemory{Total: 1 << 34, Percent: 42.0}},
		},
		DateTriggered: ts.Add(time.Second),
	}

	data, err := json.MarshalIndent(ev, "", "  ")
	require.NoError(t, err)

	var decoded TriggerEvent
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, ev.Data, decoded.Data, "the data sub-object round-trips unchanged")
	assert.True(t, ev.DateTriggered.Equal(decoded.DateTriggered))
}

func TestSampleOmitsEmptySections(t *testing.T) {
	s := Sample{Timestamp: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "timestamp")
	assert.NotContains(t, m, "cpu")
	assert.NotContains(t, m, "memory")
	assert.NotContains(t, m, "disk")
	assert.NotContains(t, m, "processes")
}
