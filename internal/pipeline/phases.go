package pipeline

import "time"

// Phase names used in logs and the phase duration metric.
const (
	PhaseFlatten  = "flatten"
	PhaseExtract  = "extract"
	PhaseSegment  = "segment"
	PhaseCleanup  = "cleanup"
	PhaseAssemble = "assemble"
)

// timePhase runs fn and records its duration under phase.
func (c *Converter) timePhase(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.metrics.ObservePhase(phase, time.Since(start))
	return err
}
