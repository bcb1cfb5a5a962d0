package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stavily/machine-data-extractor/internal/agentrpc"
	"github.com/stavily/machine-data-extractor/internal/config"
	"github.com/stavily/machine-data-extractor/internal/models"
)

// fakeClient records monitor-driven agent calls without any I/O.
type fakeClient struct {
	connectErr error
	reportErr  error
	uploadErr  error

	connected bool
	triggers  []string
	payloads  []map[string]any
	logs      []agentrpc.LogEntry
}

func (c *fakeClient) Connect(context.Context) error {
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeClient) Disconnect()       { c.connected = false }
func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) GetAgentInfo(context.Context) (agentrpc.AgentInfo, error) {
	return agentrpc.AgentInfo{AgentID: "agent-test", Version: "1.0.0", Environment: "dev"}, nil
}

func (c *fakeClient) ReportTrigger(_ context.Context, name string, payload map[string]any) (map[string]any, error) {
	c.triggers = append(c.triggers, name)
	c.payloads = append(c.payloads, payload)
	if c.reportErr != nil {
		return nil, c.reportErr
	}
	return map[string]any{}, nil
}

func (c *fakeClient) UploadLogs(_ context.Context, entries []agentrpc.LogEntry) (map[string]any, error) {
	if c.uploadErr != nil {
		return nil, c.uploadErr
	}
	c.logs = append(c.logs, entries...)
	return map[string]any{}, nil
}

func staticSampler(cpu, mem float64) SampleFunc {
	return func(context.Context) models.Sample {
		return sampleWith(f(cpu), f(mem))
	}
}

func singleShot(cpuT, memT int) config.MonitoringConfig {
	return config.MonitoringConfig{
		IntervalSeconds:      0,
		CPUTriggerPercentage: cpuT,
		MemTriggerPercentage: memT,
	}
}

func TestRunValidatesThresholds(t *testing.T) {
	sampled := false
	m := New(config.MonitoringConfig{CPUTriggerPercentage: 150},
		func(context.Context) models.Sample {
			sampled = true
			return models.Sample{}
		}, zap.NewNop())

	err := m.Run(context.Background())
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.False(t, sampled, "the loop must never start on invalid config")
}

func TestRunConnectFailureIsFatal(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("agent unreachable")}
	sampled := false
	m := New(singleShot(80, 85), func(context.Context) models.Sample {
		sampled = true
		return models.Sample{}
	}, zap.NewNop())
	m.SetClient(client)

	err := m.Run(context.Background())
	require.ErrorIs(t, err, client.connectErr)
	assert.False(t, sampled, "no cycle may run when the initial connect fails")
}

func TestSingleShotFiresTrigger(t *testing.T) {
	var events []models.TriggerEvent
	m := New(singleShot(80, 85), staticSampler(85.0, 50.0), zap.NewNop())
	m.OnTrigger(func(ev models.TriggerEvent) { events = append(events, ev) })

	require.NoError(t, m.Run(context.Background()))
	require.Len(t, events, 1)

	ev := events[0]
	assert.NotEmpty(t, ev.EventID)
	assert.False(t, ev.DateTriggered.IsZero())
	cpu, ok := ev.Data.CPUPercent()
	require.True(t, ok)
	assert.Equal(t, 85.0, cpu)
}

func TestSingleShotNoTriggerBelowThresholds(t *testing.T) {
	var events []models.TriggerEvent
	m := New(singleShot(80, 85), staticSampler(50.0, 60.0), zap.NewNop())
	m.OnTrigger(func(ev models.TriggerEvent) { events = append(events, ev) })

	require.NoError(t, m.Run(context.Background()))
	assert.Empty(t, events)
}

func TestTriggersReportedPerMetric(t *testing.T) {
	client := &fakeClient{}
	m := New(singleShot(80, 85), staticSampler(95.0, 95.0), zap.NewNop())
	m.SetClient(client)
	m.OnTrigger(func(models.TriggerEvent) {})

	require.NoError(t, m.Run(context.Background()))
	require.Equal(t, []string{"cpu_high", "memory_high"}, client.triggers)

	cpuPayload := client.payloads[0]
	assert.Equal(t, 95.0, cpuPayload["usage"])
	assert.Equal(t, 80, cpuPayload["threshold"])
	assert.NotEmpty(t, cpuPayload["timestamp"])
}

func TestReportFailureDoesNotAbort(t *testing.T) {
	client := &fakeClient{reportErr: errors.New("agent busy")}
	var events []models.TriggerEvent
	m := New(singleShot(80, 0), staticSampler(95.0, 10.0), zap.NewNop())
	m.SetClient(client)
	m.OnTrigger(func(ev models.TriggerEvent) { events = append(events, ev) })

	require.NoError(t, m.Run(context.Background()))
	assert.Len(t, client.triggers, 1, "the report was attempted")
	assert.Len(t, events, 1, "the event is still emitted")
}

func TestUploadFailureDoesNotAbort(t *testing.T) {
	client := &fakeClient{uploadErr: errors.New("agent busy")}
	m := New(singleShot(0, 0), staticSampler(10.0, 10.0), zap.NewNop())
	m.SetClient(client)

	require.NoError(t, m.Run(context.Background()))
}

func TestCycleLogsUploaded(t *testing.T) {
	client := &fakeClient{}
	m := New(singleShot(80, 85), staticSampler(42.5, 51.0), zap.NewNop())
	m.SetClient(client)

	require.NoError(t, m.Run(context.Background()))
	require.NotEmpty(t, client.logs)

	assert.Contains(t, client.logs[0].Message, "monitoring started")
	var cycleLog *agentrpc.LogEntry
	for i := range client.logs {
		if strings.Contains(client.logs[i].Message, "cycle #1") {
			cycleLog = &client.logs[i]
		}
	}
	require.NotNil(t, cycleLog, "every cycle uploads a status log")
	assert.Contains(t, cycleLog.Message, "CPU=42.5%")
	assert.Contains(t, cycleLog.Message, "Memory=51.0%")
	assert.Equal(t, "INFO", cycleLog.Level)
}

func TestCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cycles := 0
	m := New(config.MonitoringConfig{IntervalSeconds: 1, CPUTriggerPercentage: 80},
		func(context.Context) models.Sample {
			cycles++
			cancel()
			return sampleWith(f(10.0), nil)
		}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err, "cancellation is a normal stop")
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop on cancellation")
	}
	assert.Equal(t, 1, cycles)
}

func TestDefaultOutputFraming(t *testing.T) {
	var out bytes.Buffer
	m := New(singleShot(80, 0), staticSampler(90.0, 0), zap.NewNop())
	m.SetOutput(&out)

	require.NoError(t, m.Run(context.Background()))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Greater(t, len(lines), 2)
	assert.Equal(t, eventDelimiter, lines[0])
	assert.Equal(t, eventDelimiter, lines[len(lines)-1])

	body := strings.Join(lines[1:len(lines)-1], "\n")
	var ev models.TriggerEvent
	require.NoError(t, json.Unmarshal([]byte(body), &ev))

	cpu, ok := ev.Data.CPUPercent()
	require.True(t, ok)
	assert.Equal(t, 90.0, cpu, "the printed data sub-object round-trips")
	assert.NotEmpty(t, ev.EventID)
}
