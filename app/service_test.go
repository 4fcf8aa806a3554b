package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pvihk/config"
	coremetrics "github.com/kilianp07/pvihk/core/metrics"
	"github.com/kilianp07/pvihk/infra/logger"
)

func TestServiceRunAndClose(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.HTTP.Addr = "127.0.0.1:0"

	built := false
	svc, err := New(cfg, WithHTTP(func(r *Runner, _ logger.Logger) http.Handler {
		built = r != nil
		return http.NotFoundHandler()
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
	assert.True(t, built)
	assert.NoError(t, svc.Close())
}

func TestServiceRejectsUnknownSink(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Metrics.Sinks = append(cfg.Metrics.Sinks, coremetrics.SinkConfig{Type: "missing"})
	_, err = New(cfg)
	assert.ErrorContains(t, err, "metrics sink")
}
