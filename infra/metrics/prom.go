package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/pvihk/core/metrics"
)

// PromSink records optimisation runs in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective prometheus.Gauge
	nodes     prometheus.Counter
	jobs      *prometheus.CounterVec
	inFlight  prometheus.Gauge
	dropped   prometheus.Gauge
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on reg. A nil registerer
// defaults to the global one. Collectors already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimizations_total",
			Help: "Total number of optimisation runs",
		}, []string{"outcome", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "optimization_duration_seconds",
			Help:    "Wall time of an optimisation run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		objective: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optimization_objective",
			Help: "Objective value of the last successful run",
		}),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optimization_nodes_total",
			Help: "Branch-and-bound nodes explored",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimization_jobs_total",
			Help: "Job lifecycle transitions",
		}, []string{"state"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optimization_jobs_in_flight",
			Help: "Jobs currently solving",
		}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optimization_events_dropped",
			Help: "Run events skipped because a subscriber was full",
		}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.objective, err = register(reg, s.objective); err != nil {
		return nil, err
	}
	if s.nodes, err = register(reg, s.nodes); err != nil {
		return nil, err
	}
	if s.jobs, err = register(reg, s.jobs); err != nil {
		return nil, err
	}
	if s.inFlight, err = register(reg, s.inFlight); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, s.dropped); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordOptimization counts the run and observes its duration.
func (s *PromSink) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	s.runs.WithLabelValues(ev.Outcome, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Outcome).Observe(ev.Duration.Seconds())
	if ev.Outcome == coremetrics.OutcomeSuccess {
		s.objective.Set(ev.Objective)
	}
	if ev.Nodes > 0 {
		s.nodes.Add(float64(ev.Nodes))
	}
	return nil
}

// RecordJob counts the transition and tracks the jobs in flight.
func (s *PromSink) RecordJob(ev coremetrics.JobEvent) error {
	s.jobs.WithLabelValues(ev.State).Inc()
	switch ev.State {
	case coremetrics.JobStarted:
		s.inFlight.Inc()
	case coremetrics.JobFinished, coremetrics.JobFailed:
		s.inFlight.Dec()
	}
	return nil
}

// RecordDropped sets the dropped events gauge to the bus total.
func (s *PromSink) RecordDropped(total uint64) error {
	s.dropped.Set(float64(total))
	return nil
}
