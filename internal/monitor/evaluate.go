package monitor

import "github.com/stavily/machine-data-extractor/internal/models"

// Decision is the outcome of evaluating one Sample against the configured
// thresholds.
type Decision struct {
	CPUFired bool
	MemFired bool
}

// Any reports whether at least one metric fired.
func (d Decision) Any() bool { return d.CPUFired || d.MemFired }

// Evaluate maps a sample and the trigger thresholds to a per-metric fire
// decision. A threshold of 0 disables that check entirely; a missing reading
// never fires; the comparison is strict, so a reading equal to its threshold
// does not fire.
//
// Evaluate keeps no memory of prior cycles: a metric that stays above its
// threshold fires again every cycle.
func Evaluate(s models.Sample, cpuTrigger, memTrigger int) Decision {
	var d Decision
	if cpuTrigger > 0 {
		if v, ok := s.CPUPercent(); ok && v > float64(cpuTrigger) {
			d.CPUFired = true
		}
	}
	if memTrigger > 0 {
		if v, ok := s.MemoryPercent(); ok && v > float64(memTrigger) {
			d.MemFired = true
		}
	}
	return d
}
