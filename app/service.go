// Package app runs optimisation jobs and wires the service around them.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/pvihk/config"
	"github.com/kilianp07/pvihk/core/events"
	coremetrics "github.com/kilianp07/pvihk/core/metrics"
	"github.com/kilianp07/pvihk/core/planner"
	"github.com/kilianp07/pvihk/infra/logger"
	"github.com/kilianp07/pvihk/infra/metrics"
	"github.com/kilianp07/pvihk/infra/mqtt"
	"github.com/kilianp07/pvihk/infra/report"
	"github.com/kilianp07/pvihk/internal/eventbus"
)

// HandlerFactory builds the HTTP handler serving a Runner.
type HandlerFactory func(r *Runner, log logger.Logger) http.Handler

// Service owns the runner and the infrastructure reporting on it.
type Service struct {
	Runner *Runner
	cfg    *config.Config
	bus    *eventbus.TypedBus[events.Event]
	sink   coremetrics.MetricsSink
	mqtt   *mqtt.Client
	log    logger.Logger
	routes HandlerFactory
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithHTTP serves the handler built by f on the configured address.
func WithHTTP(f HandlerFactory) ServiceOption {
	return func(s *Service) { s.routes = f }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	log := logger.New("service")
	pl, err := planner.New(cfg.Planner, logger.New("planner"))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	bus := eventbus.NewTyped[events.Event]()
	s := &Service{
		cfg:  cfg,
		bus:  bus,
		sink: sink,
		log:  log,
		Runner: NewRunner(pl, report.NewPDFEmitter(), cfg.Report, logger.New("runner"),
			WithBus(bus)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.MQTT.Enabled() {
		client, err := mqtt.NewClient(cfg.MQTT, logger.New("mqtt_client"))
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = client
	}
	return s, nil
}

// Run starts the collectors, the MQTT listener and the HTTP servers and
// blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("collector"))
	if s.mqtt != nil {
		prefix := s.cfg.MQTT.Prefix()
		mqtt.StartNotifier(ctx, s.bus, s.mqtt, prefix, logger.New("mqtt_notifier"))
		if err := mqtt.ListenRequests(s.mqtt, prefix, s.Runner, logger.New("mqtt_requests")); err != nil {
			return err
		}
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, nil, logger.New("prometheus")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.routes == nil {
		<-ctx.Done()
		return nil
	}

	srv := &http.Server{
		Addr:         s.cfg.HTTP.Addr,
		Handler:      s.routes(s.Runner, logger.New("http")),
		ReadTimeout:  time.Duration(s.cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.HTTP.WriteTimeoutSeconds) * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops running jobs and releases the connections.
func (s *Service) Close() error {
	s.Runner.Close()
	s.bus.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	return nil
}
