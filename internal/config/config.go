package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// UPS
	UPSClientID      string `envconfig:"UPS_CLIENT_ID"`
	UPSClientSecret  string `envconfig:"UPS_CLIENT_SECRET"`
	UPSBaseURL       string `envconfig:"UPS_BASE_URL" default:"https://onlinetools.ups.com"`
	UPSAuthURL       string `envconfig:"UPS_AUTH_URL" default:"https://onlinetools.ups.com/security/v1/oauth/token"`
	UPSAccountNumber string `envconfig:"UPS_ACCOUNT_NUMBER"`
	UPSTimeoutMs     int    `envconfig:"UPS_TIMEOUT_MS" default:"30000"`
	UPSEnabled       bool   `envconfig:"UPS_ENABLED" default:"true"`
	UPSUseMock       bool   `envconfig:"UPS_USE_MOCK" default:"false"`

	// Resilience
	RetryMaxAttempts        int     `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelayMs        int     `envconfig:"RETRY_BASE_DELAY_MS" default:"250"`
	RetryMaxDelayMs         int     `envconfig:"RETRY_MAX_DELAY_MS" default:"5000"`
	RetryJitterRatio        float64 `envconfig:"RETRY_JITTER_RATIO" default:"0.2"`
	BreakerFailureThreshold int     `envconfig:"BREAKER_FAILURE_THRESHOLD" default:"5"`
	BreakerOpenDurationMs   int     `envconfig:"BREAKER_OPEN_DURATION_MS" default:"30000"`

	// Rate cache
	CacheTTLSeconds int `envconfig:"CACHE_TTL_SECONDS" default:"300"`

	// Extra mock carrier for local runs
	MockEnabled bool `envconfig:"MOCK_ENABLED" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"ratebridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for combinations that cannot work.
func (c *Config) Validate() error {
	if c.UPSEnabled && !c.UPSUseMock && (c.UPSClientID == "" || c.UPSClientSecret == "") {
		return carrier.NewError(carrier.SystemCarrier, carrier.CodeConfig,
			"UPS_CLIENT_ID and UPS_CLIENT_SECRET are required when UPS is enabled")
	}
	return nil
}

// UPSTimeout returns the per-call transport timeout.
func (c *Config) UPSTimeout() time.Duration {
	return time.Duration(c.UPSTimeoutMs) * time.Millisecond
}

// RetryPolicy returns the configured retry policy.
func (c *Config) RetryPolicy() carrier.RetryPolicy {
	return carrier.RetryPolicy{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		JitterRatio: c.RetryJitterRatio,
	}
}

// BreakerConfig returns the configured circuit breaker settings.
func (c *Config) BreakerConfig() carrier.BreakerConfig {
	return carrier.BreakerConfig{
		FailureThreshold: c.BreakerFailureThreshold,
		OpenDuration:     time.Duration(c.BreakerOpenDurationMs) * time.Millisecond,
	}
}

// CacheTTL returns the rate cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("ups.enabled", c.UPSEnabled),
		attribute.Bool("mock.enabled", c.MockEnabled),
	}
}
