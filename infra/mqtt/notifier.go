package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/pvihk/core/events"
	"github.com/kilianp07/pvihk/infra/logger"
	"github.com/kilianp07/pvihk/internal/eventbus"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic, kind string, payload []byte) error
}

// JobStatus is the payload published on <prefix>/jobs/<id>/status.
type JobStatus struct {
	JobID       string    `json:"job_id"`
	State       string    `json:"state"`
	Status      string    `json:"status,omitempty"`
	Objective   float64   `json:"objective,omitempty"`
	Nodes       int       `json:"nodes,omitempty"`
	Unscheduled int       `json:"unscheduled,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
	Time        time.Time `json:"time"`
}

// StatusTopic returns the status topic of a job.
func StatusTopic(prefix, jobID string) string {
	return fmt.Sprintf("%s/jobs/%s/status", prefix, jobID)
}

// StartNotifier publishes every run event of bus as a JobStatus until ctx
// is canceled or the bus is closed.
func StartNotifier(ctx context.Context, bus *eventbus.TypedBus[events.Event], pub Publisher, prefix string, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
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
				payload, err := json.Marshal(statusOf(ev))
				if err != nil {
					log.Errorf("encode status of job %s: %v", ev.Job(), err)
					continue
				}
				if err := pub.Publish(StatusTopic(prefix, ev.Job()), QoSStatus, payload); err != nil {
					log.Errorf("publish status of job %s: %v", ev.Job(), err)
				}
			}
		}
	}()
	return done
}

func statusOf(ev events.Event) JobStatus {
	switch e := ev.(type) {
	case events.RunStarted:
		return JobStatus{JobID: e.JobID, State: "started", Time: e.Time}
	case events.RunFinished:
		return JobStatus{
			JobID:       e.JobID,
			State:       "finished",
			Status:      e.Status,
			Objective:   e.Objective,
			Nodes:       e.Nodes,
			Unscheduled: e.Unscheduled,
			DurationMS:  e.Duration.Milliseconds(),
			Time:        e.Time,
		}
	case events.RunFailed:
		s := JobStatus{
			JobID:      e.JobID,
			State:      "failed",
			Status:     e.Status,
			Kind:       string(e.Kind),
			DurationMS: e.Duration.Milliseconds(),
			Time:       e.Time,
		}
		if e.Err != nil {
			s.Error = e.Err.Error()
		}
		return s
	}
	return JobStatus{JobID: ev.Job(), State: "unknown", Time: time.Now()}
}
