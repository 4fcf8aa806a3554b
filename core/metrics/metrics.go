package metrics

import "time"

// Outcome values of an OptimizationEvent.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeInfeasible = "optimization"
	OutcomeFailure    = "failure"
)

// OptimizationEvent summarises one solver run.
type OptimizationEvent struct {
	JobID       string
	Outcome     string
	Status      string
	Exams       int
	Correctors  int
	Unscheduled int
	Objective   float64
	Nodes       int
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records optimisation runs for observability purposes.
type MetricsSink interface {
	RecordOptimization(ev OptimizationEvent) error
}

// Job states reported through JobRecorder.
const (
	JobStarted  = "started"
	JobFinished = "finished"
	JobFailed   = "failed"
)

// JobEvent is a job lifecycle transition.
type JobEvent struct {
	JobID string
	State string
	Time  time.Time
}

// JobRecorder records job lifecycle transitions.
type JobRecorder interface {
	RecordJob(ev JobEvent) error
}

// DropRecorder records how many events the bus has failed to deliver.
type DropRecorder interface {
	RecordDropped(total uint64) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordOptimization(OptimizationEvent) error { return nil }
func (NopSink) RecordJob(JobEvent) error                   { return nil }
func (NopSink) RecordDropped(uint64) error                 { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOptimization forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordOptimization(ev OptimizationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordOptimization(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordJob forwards the transition to the sinks implementing JobRecorder.
func (m *MultiSink) RecordJob(ev JobEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(JobRecorder); ok {
			if err := rec.RecordJob(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDropped forwards the total to the sinks implementing DropRecorder.
func (m *MultiSink) RecordDropped(total uint64) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DropRecorder); ok {
			if err := rec.RecordDropped(total); err != nil {
				return err
			}
		}
	}
	return nil
}
