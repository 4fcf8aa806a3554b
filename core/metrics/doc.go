// Package metrics defines the sinks that record optimisation runs.
//
// Every sink implements MetricsSink. Sinks that also want job lifecycle
// data implement JobRecorder. Several sinks are combined with MultiSink;
// NewMetricsSink returns one automatically when more than one sink is
// configured. Concrete sinks register themselves from infra/metrics.
package metrics
