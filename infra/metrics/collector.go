package metrics

import (
	"context"
	"errors"

	"github.com/kilianp07/pvihk/core/events"
	coremetrics "github.com/kilianp07/pvihk/core/metrics"
	"github.com/kilianp07/pvihk/infra/logger"
	"github.com/kilianp07/pvihk/internal/eventbus"
)

// StartEventCollector subscribes to bus and records every run event in
// sink. Sinks implementing DropRecorder also receive the bus drop total
// after each event. It stops when ctx is canceled or the bus is closed; the returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Errorf("record %T for job %s: %v", ev, ev.Job(), err)
				}
				if drops, ok := sink.(coremetrics.DropRecorder); ok {
					if err := drops.RecordDropped(bus.Dropped()); err != nil {
						log.Errorf("record dropped events: %v", err)
					}
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	jobs, _ := sink.(coremetrics.JobRecorder)
	switch e := ev.(type) {
	case events.RunStarted:
		if jobs != nil {
			return jobs.RecordJob(coremetrics.JobEvent{JobID: e.JobID, State: coremetrics.JobStarted, Time: e.Time})
		}
	case events.RunFinished:
		err := sink.RecordOptimization(coremetrics.OptimizationEvent{
			JobID:       e.JobID,
			Outcome:     coremetrics.OutcomeSuccess,
			Status:      e.Status,
			Exams:       e.Exams,
			Correctors:  e.Correctors,
			Unscheduled: e.Unscheduled,
			Objective:   e.Objective,
			Nodes:       e.Nodes,
			Duration:    e.Duration,
			Time:        e.Time,
		})
		if jobs != nil {
			err = errors.Join(err, jobs.RecordJob(coremetrics.JobEvent{JobID: e.JobID, State: coremetrics.JobFinished, Time: e.Time}))
		}
		return err
	case events.RunFailed:
		err := sink.RecordOptimization(coremetrics.OptimizationEvent{
			JobID:    e.JobID,
			Outcome:  outcome(e.Kind),
			Status:   e.Status,
			Duration: e.Duration,
			Time:     e.Time,
		})
		if jobs != nil {
			err = errors.Join(err, jobs.RecordJob(coremetrics.JobEvent{JobID: e.JobID, State: coremetrics.JobFailed, Time: e.Time}))
		}
		return err
	}
	return nil
}

func outcome(k events.FailureKind) string {
	switch k {
	case events.FailureValidation:
		return coremetrics.OutcomeValidation
	case events.FailureOptimization:
		return coremetrics.OutcomeInfeasible
	default:
		return coremetrics.OutcomeFailure
	}
}
