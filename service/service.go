package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/browser-acceptor/metrics"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"
)

// Config selects where the service listens. The metrics server only runs
// when MetricsEnabled is set.
type Config struct {
	HealthzAddr    string
	MetricsEnabled bool
	MetricsAddr    string
}

// DefaultConfig serves healthz on 0.0.0.0:8080 with metrics disabled.
func DefaultConfig() Config {
	return Config{
		HealthzAddr: net.JoinHostPort(HealthzHost, HealthzPort),
		MetricsAddr: net.JoinHostPort(MetricsHost, MetricsPort),
	}
}

// ConfigFromMetrics applies the --metrics.* flags to the default config.
func ConfigFromMetrics(m opmetrics.CLIConfig) Config {
	cfg := DefaultConfig()
	cfg.MetricsEnabled = m.Enabled
	if m.ListenAddr != "" && m.ListenPort != 0 {
		cfg.MetricsAddr = net.JoinHostPort(m.ListenAddr, strconv.Itoa(m.ListenPort))
	}
	return cfg
}

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer

	config Config
}

func New(cfg Config) *Service {
	if cfg.HealthzAddr == "" {
		cfg.HealthzAddr = net.JoinHostPort(HealthzHost, HealthzPort)
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = net.JoinHostPort(MetricsHost, MetricsPort)
	}
	return &Service{
		Healthz: &HealthzServer{},
		Metrics: &MetricsServer{},
		config:  cfg,
	}
}

// Config returns the addresses the service listens on.
func (s *Service) Config() Config {
	return s.config
}

func (s *Service) Start(ctx context.Context) {
	log.Info("service starting")

	healthzAddr := s.config.HealthzAddr
	go func() {
		log.Info("starting healthz server", "addr", healthzAddr)
		if err := s.Healthz.Start(ctx, healthzAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting healthz server", "err", err)
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	if !s.config.MetricsEnabled {
		log.Info("metrics server disabled")
	} else {
		metricsAddr := s.config.MetricsAddr
		go func() {
			log.Info("starting metrics server", "addr", metricsAddr)
			if err := s.Metrics.Start(ctx, metricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	log.Info("service started")
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	log.Info("metrics stopped")

	log.Info("service stopped")
}
