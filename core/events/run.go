package events

import "time"

// Event is implemented by every run event.
type Event interface {
	Job() string
}

// FailureKind classifies a failed run.
type FailureKind string

const (
	FailureValidation   FailureKind = "validation"
	FailureOptimization FailureKind = "optimization"
	FailureEngine       FailureKind = "failure"
)

// RunStarted is published when a job starts solving.
type RunStarted struct {
	JobID      string
	Exams      int
	Correctors int
	Time       time.Time
}

// RunFinished is published once per successful job.
type RunFinished struct {
	JobID       string
	Status      string
	Objective   float64
	Nodes       int
	Exams       int
	Correctors  int
	Unscheduled int
	Duration    time.Duration
	Time        time.Time
}

// RunFailed is published once per failed job. Status holds the raw solver
// status for optimisation failures.
type RunFailed struct {
	JobID    string
	Kind     FailureKind
	Status   string
	Err      error
	Duration time.Duration
	Time     time.Time
}

func (e RunStarted) Job() string  { return e.JobID }
func (e RunFinished) Job() string { return e.JobID }
func (e RunFailed) Job() string   { return e.JobID }
