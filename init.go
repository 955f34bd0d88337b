package main

import (
	"context"
	"time"

	"github.com/tournevent/ratebridge/internal/config"
	"github.com/tournevent/ratebridge/internal/ratecache"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/mock"
	"github.com/tournevent/ratebridge/pkg/carrier/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initMetrics() *telemetry.Metrics {
	return telemetry.NewMetrics()
}

func initCache(cfg *config.Config) *ratecache.Cache {
	return ratecache.New(cfg.CacheTTL())
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) *carrier.Registry {
	registry := carrier.NewRegistry()

	if cfg.UPSEnabled {
		upsClient := ups.New(ups.Config{
			ClientID:      cfg.UPSClientID,
			ClientSecret:  cfg.UPSClientSecret,
			BaseURL:       cfg.UPSBaseURL,
			AuthURL:       cfg.UPSAuthURL,
			AccountNumber: cfg.UPSAccountNumber,
			Timeout:       cfg.UPSTimeout(),
			Retry:         cfg.RetryPolicy(),
			Breaker:       cfg.BreakerConfig(),
			UseMock:       cfg.UPSUseMock,
			OnRetry: func(attempt int, delay time.Duration, err error) {
				metrics.RecordRetry("ups")
			},
			OnBreakerTransition: func(from, to carrier.BreakerState) {
				metrics.RecordBreakerTransition("ups", string(to))
			},
			OnTokenRefresh: func(err error) {
				status := "ok"
				if err != nil {
					status = "error"
				}
				metrics.RecordTokenRefresh("ups", status)
			},
		}, logger, tracer)
		registry.Register(upsClient)
	}

	if cfg.MockEnabled {
		registry.Register(mock.New("mock"))
	}

	return registry
}
