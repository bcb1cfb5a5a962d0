// Package monitor implements the threshold monitoring loop. Each cycle pulls
// a Sample, uploads a status log to the agent, evaluates the trigger
// thresholds, reports any breaches, and sleeps for the configured interval.
//
// Agent communication inside a cycle is best-effort: a failed upload or
// report is logged locally and never aborts monitoring, since threshold
// detection does not depend on agent-link health. Fatal paths are limited to
// configuration validation, the initial connect, and unexpected errors from
// the cycle itself.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stavily/machine-data-extractor/internal/agentrpc"
	"github.com/stavily/machine-data-extractor/internal/config"
	"github.com/stavily/machine-data-extractor/internal/models"
	"github.com/stavily/machine-data-extractor/internal/spool"
)

// ErrLoopFailure marks an unexpected error that surfaced from a monitoring
// cycle.
var ErrLoopFailure = errors.New("monitoring loop failure")

// AgentClient is the subset of the agent RPC client the monitor drives.
type AgentClient interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	ReportTrigger(ctx context.Context, triggerName string, payload map[string]any) (map[string]any, error)
	UploadLogs(ctx context.Context, entries []agentrpc.LogEntry) (map[string]any, error)
	GetAgentInfo(ctx context.Context) (agentrpc.AgentInfo, error)
}

// SampleFunc pulls one cycle's Sample. Failures inside sampling must degrade
// to a partial Sample rather than an error; the monitor never retries a
// pull.
type SampleFunc func(ctx context.Context) models.Sample

// Monitor drives the periodic sample/evaluate/report cycle. A Monitor owns
// its agent client for the duration of Run and must not be shared across
// goroutines.
type Monitor struct {
	cfg    config.MonitoringConfig
	sample SampleFunc
	logger *zap.Logger

	client    AgentClient // nil when running without an agent
	spool     *spool.Spool
	out       io.Writer
	onTrigger func(models.TriggerEvent)

	cycles int
}

// New creates a Monitor. The default trigger destination is standard output;
// use OnTrigger to install a callback instead.
func New(cfg config.MonitoringConfig, sample SampleFunc, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		sample: sample,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetClient attaches the agent client used for log uploads and trigger
// reports. Without a client the monitor runs standalone.
func (m *Monitor) SetClient(c AgentClient) { m.client = c }

// SetSpool attaches a spool for log entries that fail to upload.
func (m *Monitor) SetSpool(s *spool.Spool) { m.spool = s }

// SetOutput redirects the default trigger event output.
func (m *Monitor) SetOutput(w io.Writer) { m.out = w }

// OnTrigger installs a callback invoked for each trigger event instead of
// printing it.
func (m *Monitor) OnTrigger(fn func(models.TriggerEvent)) { m.onTrigger = fn }

// Run validates the thresholds, connects to the agent when one is
// configured, and drives cycles until the context is cancelled. An interval
// of 0 runs exactly one cycle and returns. The initial connect is fail-fast:
// if it fails, no cycle ever runs.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	if m.client != nil {
		if err := m.client.Connect(ctx); err != nil {
			return err
		}
		defer m.client.Disconnect()

		if info, err := m.client.GetAgentInfo(ctx); err != nil {
			m.logger.Warn("Agent info unavailable", zap.Error(err))
		} else {
			m.logger.Info("Connected to agent",
				zap.String("agent_id", info.AgentID),
				zap.String("agent_version", info.Version),
				zap.String("environment", info.Environment))
		}
	}

	m.logger.Info("Starting monitoring loop",
		zap.Int("interval_seconds", m.cfg.IntervalSeconds),
		zap.Int("cpu_trigger", m.cfg.CPUTriggerPercentage),
		zap.Int("mem_trigger", m.cfg.MemTriggerPercentage))
	m.uploadLog(ctx, "INFO", fmt.Sprintf(
		"Machine data monitoring started with CPU trigger=%d%%, memory trigger=%d%%",
		m.cfg.CPUTriggerPercentage, m.cfg.MemTriggerPercentage))

	interval := time.Duration(m.cfg.IntervalSeconds) * time.Second
	for {
		if err := m.cycle(ctx); err != nil {
			m.logger.Error("Monitoring cycle failed",
				zap.Int("cycle", m.cycles), zap.Error(err))
			m.uploadLog(ctx, "ERROR", fmt.Sprintf(
				"Monitoring error after %d cycles: %v", m.cycles, err))
			return fmt.Errorf("%w: cycle %d: %w", ErrLoopFailure, m.cycles, err)
		}

		if interval == 0 {
			// Single shot.
			return nil
		}

		select {
		case <-ctx.Done():
			m.logger.Info("Monitoring stopped", zap.Int("cycles", m.cycles))
			// The loop context is already done; give the farewell log
			// its own brief window.
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			m.uploadLog(stopCtx, "INFO", fmt.Sprintf(
				"Machine data monitoring stopped after %d cycles", m.cycles))
			cancel()
			return nil
		case <-time.After(interval):
		}
	}
}

// cycle runs one sample/evaluate/report pass.
func (m *Monitor) cycle(ctx context.Context) error {
	m.cycles++

	s := m.sample(ctx)

	m.drainSpool(ctx)
	m.uploadLog(ctx, "INFO", fmt.Sprintf("Monitoring cycle #%d: CPU=%s, Memory=%s",
		m.cycles, formatReading(s.CPUPercent()), formatReading(s.MemoryPercent())))

	d := Evaluate(s, m.cfg.CPUTriggerPercentage, m.cfg.MemTriggerPercentage)

	if m.cfg.CPUTriggerPercentage > 0 {
		if _, ok := s.CPUPercent(); !ok {
			m.logger.Warn("CPU reading unavailable for trigger check",
				zap.Int("cycle", m.cycles))
		}
	}
	if m.cfg.MemTriggerPercentage > 0 {
		if _, ok := s.MemoryPercent(); !ok {
			m.logger.Warn("Memory reading unavailable for trigger check",
				zap.Int("cycle", m.cycles))
		}
	}

	if d.CPUFired {
		v, _ := s.CPUPercent()
		m.logger.Info("CPU trigger activated",
			zap.Float64("usage", v),
			zap.Int("threshold", m.cfg.CPUTriggerPercentage))
		m.reportTrigger(ctx, "cpu_high", map[string]any{
			"usage":     v,
			"threshold": m.cfg.CPUTriggerPercentage,
			"timestamp": s.Timestamp.Format(time.RFC3339Nano),
		})
	}
	if d.MemFired {
		v, _ := s.MemoryPercent()
		m.logger.Info("Memory trigger activated",
			zap.Float64("usage", v),
			zap.Int("threshold", m.cfg.MemTriggerPercentage))
		m.reportTrigger(ctx, "memory_high", map[string]any{
			"usage":     v,
			"threshold": m.cfg.MemTriggerPercentage,
			"timestamp": s.Timestamp.Format(time.RFC3339Nano),
		})
	}

	if d.Any() {
		ev := models.TriggerEvent{
			EventID:       uuid.NewString(),
			Data:          s,
			DateTriggered: time.Now().UTC(),
		}
		if m.onTrigger != nil {
			m.onTrigger(ev)
		} else if err := writeEvent(m.out, ev); err != nil {
			return err
		}
	}

	return nil
}

// reportTrigger reports a breach to the agent. Failures are logged locally
// and never abort the cycle.
func (m *Monitor) reportTrigger(ctx context.Context, name string, payload map[string]any) {
	if m.client == nil || !m.client.IsConnected() {
		return
	}
	if _, err := m.client.ReportTrigger(ctx, name, payload); err != nil {
		m.logger.Warn("Failed to report trigger to agent",
			zap.String("trigger", name), zap.Error(err))
	}
}

// uploadLog sends one log entry to the agent. On failure the entry is
// spooled for a later cycle when a spool is attached.
func (m *Monitor) uploadLog(ctx context.Context, level, message string) {
	if m.client == nil || !m.client.IsConnected() {
		return
	}

	entry := agentrpc.LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if _, err := m.client.UploadLogs(ctx, []agentrpc.LogEntry{entry}); err != nil {
		m.logger.Warn("Failed to upload log to agent", zap.Error(err))
		if m.spool != nil {
			if serr := m.spool.Store([]agentrpc.LogEntry{entry}); serr != nil {
				m.logger.Warn("Failed to spool log entry", zap.Error(serr))
			}
		}
	}
}

// drainSpool re-uploads previously spooled log batches. It stops at the
// first failure and re-spools that batch.
func (m *Monitor) drainSpool(ctx context.Context) {
	if m.spool == nil || m.client == nil || !m.client.IsConnected() {
		return
	}

	batches, err := m.spool.RetrieveAll()
	if err != nil {
		m.logger.Warn("Failed to read log spool", zap.Error(err))
		return
	}
	if len(batches) == 0 {
		return
	}

	m.logger.Info("Draining spooled log batches", zap.Int("batches", len(batches)))
	for i, batch := range batches {
		if _, err := m.client.UploadLogs(ctx, batch); err != nil {
			m.logger.Warn("Spool drain interrupted", zap.Error(err))
			for _, rest := range batches[i:] {
				if serr := m.spool.Store(rest); serr != nil {
					m.logger.Warn("Failed to re-spool log batch", zap.Error(serr))
				}
			}
			return
		}
	}
}

// formatReading renders an optional metric reading for the cycle status log.
func formatReading(v float64, ok bool) string {
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%.1f%%", v)
}
