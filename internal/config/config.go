// Package config loads plugin configuration from a YAML file, environment
// variables, and CLI flag overrides, and validates it once at startup.
// Precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/stavily/machine-data-extractor/internal/agentrpc"
)

// ErrInvalid marks configuration that fails validation. It is fatal: the
// plugin must exit non-zero without starting the monitor loop.
var ErrInvalid = errors.New("invalid configuration")

// Duration wraps time.Duration so YAML and environment values can use
// human-readable strings like "5s" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// UnmarshalText lets env overrides parse the same string format.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// Config holds all plugin configuration.
type Config struct {
	Agent      AgentConfig      `yaml:"agent"`
	Extract    ExtractConfig    `yaml:"extract"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AgentConfig holds agent socket connection settings.
type AgentConfig struct {
	SocketPath string   `yaml:"socket_path" env:"STAVILY_AGENT_SOCKET"`
	Timeout    Duration `yaml:"timeout" env:"MDE_AGENT_TIMEOUT"`
	MaxRetries int      `yaml:"max_retries" env:"MDE_AGENT_MAX_RETRIES"`
	RetryDelay Duration `yaml:"retry_delay" env:"MDE_AGENT_RETRY_DELAY"`
}

// ExtractConfig selects which optional machine data sections are extracted.
// System information is always included.
type ExtractConfig struct {
	CPU          bool `yaml:"cpu" env:"MDE_EXTRACT_CPU"`
	Memory       bool `yaml:"memory" env:"MDE_EXTRACT_MEMORY"`
	Disk         bool `yaml:"disk" env:"MDE_EXTRACT_DISK"`
	Processes    bool `yaml:"processes" env:"MDE_EXTRACT_PROCESSES"`
	TopProcesses int  `yaml:"top_processes" env:"MDE_TOP_PROCESSES"`
}

// MonitoringConfig holds the threshold and cadence settings for monitor
// mode. An interval of 0 means a single monitoring cycle with no loop; a
// trigger percentage of 0 disables that trigger.
type MonitoringConfig struct {
	IntervalSeconds      int    `yaml:"monitor_interval_seconds" env:"MDE_MONITOR_INTERVAL"`
	CPUTriggerPercentage int    `yaml:"cpu_trigger_percentage" env:"MDE_CPU_TRIGGER"`
	MemTriggerPercentage int    `yaml:"mem_trigger_percentage" env:"MDE_MEM_TRIGGER"`
	SpoolDir             string `yaml:"spool_dir" env:"MDE_SPOOL_DIR"`
	SpoolMaxMB           int    `yaml:"spool_max_mb" env:"MDE_SPOOL_MAX_MB"`
}

// LoggingConfig holds local logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" env:"MDE_LOG_LEVEL"`
	File  string `yaml:"file" env:"MDE_LOG_FILE"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Timeout:    Duration{agentrpc.DefaultTimeout},
			MaxRetries: agentrpc.DefaultMaxRetries,
			RetryDelay: Duration{agentrpc.DefaultRetryDelay},
		},
		Extract: ExtractConfig{
			TopProcesses: 50,
		},
		Monitoring: MonitoringConfig{
			SpoolMaxMB: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides on top of the defaults. An empty path or a missing file is not
// an error; defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment overrides: %w", err)
	}
	return cfg, nil
}

// Validate checks threshold ranges and the monitor interval. It is called
// once at startup; a failure prevents the monitor loop from ever running.
func (c *Config) Validate() error {
	if err := c.Monitoring.Validate(); err != nil {
		return err
	}
	if c.Extract.TopProcesses < 0 {
		return fmt.Errorf("%w: top_processes must be non-negative, got %d",
			ErrInvalid, c.Extract.TopProcesses)
	}
	if c.Agent.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be non-negative, got %d",
			ErrInvalid, c.Agent.MaxRetries)
	}
	return nil
}

// Validate checks the monitoring thresholds and interval.
func (m MonitoringConfig) Validate() error {
	if m.CPUTriggerPercentage < 0 || m.CPUTriggerPercentage > 100 {
		return fmt.Errorf("%w: cpu_trigger_percentage must be between 0 and 100, got %d",
			ErrInvalid, m.CPUTriggerPercentage)
	}
	if m.MemTriggerPercentage < 0 || m.MemTriggerPercentage > 100 {
		return fmt.Errorf("%w: mem_trigger_percentage must be between 0 and 100, got %d",
			ErrInvalid, m.MemTriggerPercentage)
	}
	if m.IntervalSeconds < 0 {
		return fmt.Errorf("%w: monitor_interval_seconds must be non-negative, got %d",
			ErrInvalid, m.IntervalSeconds)
	}
	return nil
}
