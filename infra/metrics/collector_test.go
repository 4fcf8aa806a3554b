package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pvihk/core/events"
	coremetrics "github.com/kilianp07/pvihk/core/metrics"
	"github.com/kilianp07/pvihk/internal/eventbus"
)

type captureSink struct {
	mu   sync.Mutex
	runs []coremetrics.OptimizationEvent
	jobs []coremetrics.JobEvent
}

func (c *captureSink) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, ev)
	return nil
}

func (c *captureSink) RecordJob(ev coremetrics.JobEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, ev)
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink, nil)

	now := time.Now()
	bus.Publish(events.RunStarted{JobID: "a", Time: now})
	bus.Publish(events.RunFinished{JobID: "a", Status: "Optimal", Objective: 1.5, Nodes: 3, Time: now})
	bus.Publish(events.RunFailed{JobID: "b", Kind: events.FailureOptimization, Status: "Infeasible", Err: errors.New("x"), Time: now})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}

	require.Len(t, sink.runs, 2)
	assert.Equal(t, coremetrics.OutcomeSuccess, sink.runs[0].Outcome)
	assert.Equal(t, 1.5, sink.runs[0].Objective)
	assert.Equal(t, coremetrics.OutcomeInfeasible, sink.runs[1].Outcome)
	assert.Equal(t, "Infeasible", sink.runs[1].Status)

	states := make([]string, len(sink.jobs))
	for i, j := range sink.jobs {
		states[i] = j.State
	}
	assert.Equal(t, []string{coremetrics.JobStarted, coremetrics.JobFinished, coremetrics.JobFailed}, states)
}

type dropSink struct {
	coremetrics.NopSink
	mu      sync.Mutex
	dropped []uint64
}

func (d *dropSink) RecordDropped(total uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropped = append(d.dropped, total)
	return nil
}

func TestStartEventCollectorReportsDrops(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	idle := bus.Subscribe()
	for i := 0; i <= eventbus.DefaultBuffer; i++ {
		bus.Publish(events.RunStarted{JobID: "fill"})
	}
	require.Equal(t, uint64(1), bus.Dropped())
	require.Len(t, idle, eventbus.DefaultBuffer)

	sink := &dropSink{}
	done := StartEventCollector(context.Background(), bus, sink, nil)
	bus.Publish(events.RunStarted{JobID: "a"})
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []uint64{2}, sink.dropped)
}

func TestStartEventCollectorStopsOnCancel(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, coremetrics.NopSink{}, nil)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after cancel")
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, coremetrics.OutcomeValidation, outcome(events.FailureValidation))
	assert.Equal(t, coremetrics.OutcomeInfeasible, outcome(events.FailureOptimization))
	assert.Equal(t, coremetrics.OutcomeFailure, outcome(events.FailureEngine))
}
