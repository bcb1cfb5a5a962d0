// Package main is the entry point for the machine data extractor plugin.
// In its default mode it extracts the selected machine data once and prints
// a JSON envelope; in monitor mode it runs the threshold monitoring loop and
// reports triggers and logs to the supervising agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stavily/machine-data-extractor/internal/agentrpc"
	"github.com/stavily/machine-data-extractor/internal/config"
	"github.com/stavily/machine-data-extractor/internal/extractor"
	"github.com/stavily/machine-data-extractor/internal/models"
	"github.com/stavily/machine-data-extractor/internal/monitor"
	"github.com/stavily/machine-data-extractor/internal/report"
	"github.com/stavily/machine-data-extractor/internal/spool"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		report.WriteError(os.Stdout, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string

		extractCPU       bool
		extractMemory    bool
		extractDisk      bool
		extractProcesses bool
	)

	root := &cobra.Command{
		Use:     "machine-data",
		Short:   "Extract machine resource data and monitor it against thresholds",
		Version: version,
		// Fatal errors are printed as a JSON error envelope by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("extract-cpu") {
				cfg.Extract.CPU = extractCPU
			}
			if cmd.Flags().Changed("extract-memory") {
				cfg.Extract.Memory = extractMemory
			}
			if cmd.Flags().Changed("extract-disk") {
				cfg.Extract.Disk = extractDisk
			}
			if cmd.Flags().Changed("extract-processes") {
				cfg.Extract.Processes = extractProcesses
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := initLogger(cfg)
			defer logger.Sync()

			set := extractor.Defaults(logger, cfg.Extract.TopProcesses)
			sample := set.Extract(cmd.Context(), selection(cfg))
			return report.WriteSuccess(os.Stdout, sample)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().BoolVar(&extractCPU, "extract-cpu", false, "Extract CPU information")
	root.PersistentFlags().BoolVar(&extractMemory, "extract-memory", false, "Extract memory information")
	root.PersistentFlags().BoolVar(&extractDisk, "extract-disk", false, "Extract disk information")
	root.PersistentFlags().BoolVar(&extractProcesses, "extract-processes", false, "Extract process information")

	root.AddCommand(newMonitorCmd(&configPath))
	return root
}

func newMonitorCmd(configPath *string) *cobra.Command {
	var (
		intervalSeconds int
		cpuTrigger      int
		memTrigger      int
		socketPath      string
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the threshold monitoring loop",
		Long: "Samples CPU and memory on a fixed cadence, evaluates the configured\n" +
			"thresholds, and reports trigger events and logs to the supervising agent\n" +
			"over its Unix socket. An interval of 0 runs a single cycle.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.Monitoring.IntervalSeconds = intervalSeconds
			}
			if cmd.Flags().Changed("cpu-trigger") {
				cfg.Monitoring.CPUTriggerPercentage = cpuTrigger
			}
			if cmd.Flags().Changed("mem-trigger") {
				cfg.Monitoring.MemTriggerPercentage = memTrigger
			}
			if cmd.Flags().Changed("socket") {
				cfg.Agent.SocketPath = socketPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := initLogger(cfg)
			defer logger.Sync()

			logger.Info("Starting machine data monitor",
				zap.String("version", version),
				zap.Int("interval_seconds", cfg.Monitoring.IntervalSeconds))

			set := extractor.Defaults(logger, cfg.Extract.TopProcesses)
			sel := selection(cfg)
			mon := monitor.New(cfg.Monitoring, func(ctx context.Context) models.Sample {
				return set.ExtractForMonitoring(ctx, sel)
			}, logger)

			if cfg.Agent.SocketPath != "" || os.Getenv(agentrpc.EnvSocketPath) != "" {
				client, err := agentrpc.New(agentrpc.Config{
					SocketPath: cfg.Agent.SocketPath,
					Timeout:    cfg.Agent.Timeout.Duration,
					MaxRetries: cfg.Agent.MaxRetries,
					RetryDelay: cfg.Agent.RetryDelay.Duration,
				}, logger)
				if err != nil {
					return err
				}
				mon.SetClient(client)

				if cfg.Monitoring.SpoolDir != "" {
					sp, err := spool.New(cfg.Monitoring.SpoolDir, cfg.Monitoring.SpoolMaxMB, logger)
					if err != nil {
						return fmt.Errorf("initializing log spool: %w", err)
					}
					mon.SetSpool(sp)
				}
			} else {
				logger.Warn("No agent socket configured, monitoring standalone")
			}

			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := mon.Run(ctx); err != nil {
				return err
			}
			logger.Info("Monitor stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&intervalSeconds, "interval", 0, "Seconds between monitoring cycles (0 = single cycle)")
	cmd.Flags().IntVar(&cpuTrigger, "cpu-trigger", 0, "CPU usage percentage that fires a trigger (0 = disabled)")
	cmd.Flags().IntVar(&memTrigger, "mem-trigger", 0, "Memory usage percentage that fires a trigger (0 = disabled)")
	cmd.Flags().StringVar(&socketPath, "socket", "", "Agent Unix socket path (default $"+agentrpc.EnvSocketPath+")")
	return cmd
}

// selection maps the extract configuration to an extractor selection.
func selection(cfg *config.Config) extractor.Selection {
	return extractor.Selection{
		CPU:       cfg.Extract.CPU,
		Memory:    cfg.Extract.Memory,
		Disk:      cfg.Extract.Disk,
		Processes: cfg.Extract.Processes,
	}
}

// initLogger builds the local zap logger. Console output goes to stderr —
// stdout is reserved for the JSON envelope and trigger events — with an
// optional structured JSON file core.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
