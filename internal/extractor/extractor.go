// Package extractor gathers machine data sections using gopsutil. Each
// extractor produces one typed section of a Sample; a Set assembles the
// sections the caller selected into a complete Sample.
//
// Extractors registered through Register are wrapped so that any failure
// degrades to a missing section with a local warning — a partial Sample
// never aborts an extraction or a monitoring cycle.
package extractor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stavily/machine-data-extractor/internal/models"
)

// Extractor produces one named section of a Sample. The returned value must
// be a pointer to one of the models section types.
type Extractor interface {
	// Name returns the unique section identifier.
	Name() string

	// Extract gathers the section data. The context allows cancellation
	// and timeout control.
	Extract(ctx context.Context) (any, error)
}

// Selection controls which optional sections Extract includes. The system
// section is always included.
type Selection struct {
	CPU       bool
	Memory    bool
	Disk      bool
	Processes bool
}

// Set holds the registered extractors and assembles Samples from them.
type Set struct {
	extractors map[string]Extractor
	logger     *zap.Logger
}

// NewSet creates an empty extractor set.
func NewSet(logger *zap.Logger) *Set {
	return &Set{
		extractors: make(map[string]Extractor),
		logger:     logger,
	}
}

// Defaults returns a Set with the standard extractors registered.
func Defaults(logger *zap.Logger, topProcesses int) *Set {
	s := NewSet(logger)
	s.Register(NewSystemExtractor())
	s.Register(NewCPUExtractor())
	s.Register(NewMemoryExtractor())
	s.Register(NewDiskExtractor(logger))
	s.Register(NewProcessExtractor(topProcesses))
	return s
}

// Register adds an extractor, wrapped so its failures degrade to a missing
// section instead of an error.
func (s *Set) Register(e Extractor) {
	s.extractors[e.Name()] = safe{inner: e, logger: s.logger}
	s.logger.Debug("Registered extractor", zap.String("name", e.Name()))
}

// Extract assembles a Sample containing the system section plus every
// section enabled in sel.
func (s *Set) Extract(ctx context.Context, sel Selection) models.Sample {
	sample := models.Sample{Timestamp: time.Now().UTC()}

	s.apply(ctx, &sample, "system")
	if sel.CPU {
		s.apply(ctx, &sample, "cpu")
	}
	if sel.Memory {
		s.apply(ctx, &sample, "memory")
	}
	if sel.Disk {
		s.apply(ctx, &sample, "disk")
	}
	if sel.Processes {
		s.apply(ctx, &sample, "processes")
	}
	return sample
}

// ExtractForMonitoring assembles a Sample for trigger evaluation. CPU and
// memory are always included so the thresholds have something to compare
// against; disk and processes follow sel.
func (s *Set) ExtractForMonitoring(ctx context.Context, sel Selection) models.Sample {
	sel.CPU = true
	sel.Memory = true
	return s.Extract(ctx, sel)
}

// apply runs one extractor and stores its section on the sample. Unknown
// names and failed extractors leave the section nil.
func (s *Set) apply(ctx context.Context, sample *models.Sample, name string) {
	e, ok := s.extractors[name]
	if !ok {
		return
	}
	data, err := e.Extract(ctx)
	if err != nil || data == nil {
		return
	}

	switch v := data.(type) {
	case *models.SystemInfo:
		sample.System = v
	case *models.CPUInfo:
		sample.CPU = v
	case *models.MemoryInfo:
		sample.Memory = v
	case *models.DiskInfo:
		sample.Disk = v
	case *models.ProcessInfo:
		sample.Processes = v
	default:
		s.logger.Warn("Extractor returned unexpected type",
			zap.String("extractor", name))
	}
}

// safe downgrades an extractor failure to an absent section. The warning is
// logged here so individual extractors stay free of degradation logic.
type safe struct {
	inner  Extractor
	logger *zap.Logger
}

func (s safe) Name() string { return s.inner.Name() }

func (s safe) Extract(ctx context.Context) (any, error) {
	data, err := s.inner.Extract(ctx)
	if err != nil {
		s.logger.Warn("Extractor failed, omitting section",
			zap.String("extractor", s.inner.Name()),
			zap.Error(err))
		return nil, nil
	}
	return data, nil
}
