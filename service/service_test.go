package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzHandle(t *testing.T) {
	h := &HealthzServer{}
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHealthzRouting(t *testing.T) {
	srv := httptest.NewServer((&HealthzServer{}).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Post(srv.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "browser_acceptor_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := httptest.NewServer((&MetricsServer{Gatherer: reg}).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "browser_acceptor_test_total 1")
}

func TestConfigFromMetricsFlags(t *testing.T) {
	cfg := ConfigFromMetrics(opmetrics.CLIConfig{Enabled: true, ListenAddr: "127.0.0.1", ListenPort: 9191})
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "127.0.0.1:9191", cfg.MetricsAddr)
	assert.Equal(t, "0.0.0.0:8080", cfg.HealthzAddr)

	s := New(cfg)
	assert.Equal(t, cfg, s.Config())

	disabled := ConfigFromMetrics(opmetrics.CLIConfig{})
	assert.False(t, disabled.MetricsEnabled)
	assert.Equal(t, "0.0.0.0:7300", disabled.MetricsAddr)
}

func TestMetricsServerDisabled(t *testing.T) {
	s := New(Config{HealthzAddr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Shutdown()

	s.Metrics.mu.Lock()
	defer s.Metrics.mu.Unlock()
	assert.Nil(t, s.Metrics.server, "a disabled metrics server is never started")
}

func TestShutdownBeforeStart(t *testing.T) {
	s := New(DefaultConfig())
	assert.NoError(t, s.Healthz.Shutdown())
	assert.NoError(t, s.Metrics.Shutdown())
}
