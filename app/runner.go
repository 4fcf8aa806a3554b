package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/pvihk/core/events"
	"github.com/kilianp07/pvihk/core/logger"
	"github.com/kilianp07/pvihk/core/model"
	"github.com/kilianp07/pvihk/core/planner"
	"github.com/kilianp07/pvihk/core/report"
	"github.com/kilianp07/pvihk/internal/eventbus"
)

// ErrBusy is returned while another optimisation is running.
var ErrBusy = errors.New("an optimization is already running")

// ErrNotFound is returned for unknown job identifiers.
var ErrNotFound = errors.New("job not found")

// DefaultJobLimit is the number of jobs kept for retrieval.
const DefaultJobLimit = 50

// JobState is the lifecycle state of a job.
type JobState string

const (
	JobRunning  JobState = "running"
	JobFinished JobState = "finished"
	JobFailed   JobState = "failed"
)

// Job is a snapshot of one submitted optimisation.
type Job struct {
	ID        string
	State     JobState
	Submitted time.Time
	Finished  time.Time
	Result    *planner.Result
	Output    *planner.Output
	Err       error
}

// Runner executes optimisations, at most one at a time, and keeps the
// latest jobs in memory.
type Runner struct {
	planner *planner.Planner
	emitter report.Emitter
	report  report.Config
	bus     *eventbus.TypedBus[events.Event]
	log     logger.Logger
	now     func() time.Time
	newID   func() string
	limit   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active string
	jobs   map[string]*Job
	order  []string
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithBus publishes run events on bus.
func WithBus(bus *eventbus.TypedBus[events.Event]) RunnerOption {
	return func(r *Runner) { r.bus = bus }
}

// WithRunnerClock replaces the clock.
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithIDs replaces the job identifier generator.
func WithIDs(newID func() string) RunnerOption {
	return func(r *Runner) { r.newID = newID }
}

// WithJobLimit sets how many jobs are kept.
func WithJobLimit(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.limit = n
		}
	}
}

// NewRunner returns a Runner rendering results with emitter.
func NewRunner(pl *planner.Planner, emitter report.Emitter, rc report.Config, log logger.Logger, opts ...RunnerOption) *Runner {
	rc.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		planner: pl,
		emitter: emitter,
		report:  rc,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
		limit:   DefaultJobLimit,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run optimises in synchronously.
func (r *Runner) Run(ctx context.Context, in model.Input) (*planner.Output, *planner.Result, error) {
	id := r.newID()
	if err := r.acquire(id); err != nil {
		return nil, nil, err
	}
	defer r.release()
	return r.execute(ctx, id, r.now(), in)
}

// Submit validates in and starts the optimisation in the background. It
// returns the job identifier, a *model.ValidationError or ErrBusy.
func (r *Runner) Submit(in model.Input) (string, error) {
	if _, err := r.planner.Prepare(in); err != nil {
		return "", err
	}
	id := r.newID()
	if err := r.acquire(id); err != nil {
		return "", err
	}
	job := &Job{ID: id, State: JobRunning, Submitted: r.now()}
	r.store(job)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release()
		out, res, err := r.execute(r.ctx, id, job.Submitted, in)
		r.mu.Lock()
		defer r.mu.Unlock()
		job.Finished = r.now()
		job.Output, job.Result, job.Err = out, res, err
		job.State = JobFinished
		if err != nil {
			job.State = JobFailed
		}
	}()
	return id, nil
}

// Job returns a snapshot of the job with the given identifier.
func (r *Runner) Job(id string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// Busy reports whether an optimisation is running.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != ""
}

// Wait blocks until all submitted jobs are done.
func (r *Runner) Wait() { r.wg.Wait() }

// Close cancels running jobs and waits for them.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) acquire(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != "" {
		return ErrBusy
	}
	r.active = id
	return nil
}

func (r *Runner) release() {
	r.mu.Lock()
	r.active = ""
	r.mu.Unlock()
}

// store records job and evicts the oldest finished jobs beyond the limit.
func (r *Runner) store(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	for len(r.order) > r.limit {
		evicted := false
		for i, id := range r.order {
			if r.jobs[id].State != JobRunning {
				delete(r.jobs, id)
				r.order = append(r.order[:i], r.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

func (r *Runner) execute(ctx context.Context, id string, start time.Time, in model.Input) (*planner.Output, *planner.Result, error) {
	r.publish(events.RunStarted{JobID: id, Exams: len(in.Candidates), Correctors: len(in.Availability), Time: start})
	r.log.Infof("job %s started", id)

	plan, err := r.planner.Prepare(in)
	if err != nil {
		return nil, nil, r.fail(id, start, err)
	}
	res, err := r.planner.OptimizePlan(ctx, plan)
	if err != nil {
		return nil, nil, r.fail(id, start, err)
	}
	doc := report.FromResult(res, r.report.Meta(r.now()))
	pdf, err := r.emitter.Render(doc)
	if err != nil {
		return nil, nil, r.fail(id, start, fmt.Errorf("render report: %w", err))
	}
	out := &planner.Output{PDF: pdf, Distribution: res.Distribution(), Status: res.Status, ContentType: r.emitter.ContentType()}

	end := r.now()
	r.publish(events.RunFinished{
		JobID:       id,
		Status:      res.Status,
		Objective:   res.Objective,
		Nodes:       res.Nodes,
		Exams:       len(plan.Exams),
		Correctors:  len(plan.Correctors),
		Unscheduled: len(res.Unscheduled),
		Duration:    end.Sub(start),
		Time:        end,
	})
	r.log.Infof("job %s finished with status %s", id, res.Status)
	return out, res, nil
}

func (r *Runner) fail(id string, start time.Time, err error) error {
	end := r.now()
	ev := events.RunFailed{JobID: id, Kind: events.FailureEngine, Err: err, Duration: end.Sub(start), Time: end}
	var oe *planner.OptimizationError
	switch {
	case model.IsValidationError(err):
		ev.Kind = events.FailureValidation
	case errors.As(err, &oe):
		ev.Kind = events.FailureOptimization
		ev.Status = oe.Status
	}
	r.publish(ev)
	r.log.Errorf("job %s failed: %v", id, err)
	return err
}

func (r *Runner) publish(ev events.Event) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}
