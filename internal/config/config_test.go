package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/internal/config"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("UPS_USE_MOCK", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.UPSEnabled)
	assert.Equal(t, 30*time.Second, cfg.UPSTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())

	policy := cfg.RetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.BaseDelay)
	assert.Equal(t, 5*time.Second, policy.MaxDelay)
	assert.Equal(t, 0.2, policy.JitterRatio)

	breaker := cfg.BreakerConfig()
	assert.Equal(t, 5, breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, breaker.OpenDuration)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("UPS_ENABLED", "true")
	t.Setenv("UPS_USE_MOCK", "false")
	t.Setenv("UPS_CLIENT_ID", "")
	t.Setenv("UPS_CLIENT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)

	e, ok := carrier.AsError(err)
	require.True(t, ok)
	assert.Equal(t, carrier.CodeConfig, e.Code)
	assert.False(t, e.Retryable)
}

func TestLoad_CredentialsProvided(t *testing.T) {
	t.Setenv("UPS_CLIENT_ID", "id")
	t.Setenv("UPS_CLIENT_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.UPSClientID)
}

func TestLoad_MockModeNeedsNoCredentials(t *testing.T) {
	t.Setenv("UPS_ENABLED", "true")
	t.Setenv("UPS_USE_MOCK", "true")
	t.Setenv("UPS_CLIENT_ID", "")
	t.Setenv("UPS_CLIENT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.UPSUseMock)
}

func TestLoad_DisabledUPSNeedsNoCredentials(t *testing.T) {
	t.Setenv("UPS_ENABLED", "false")
	t.Setenv("UPS_CLIENT_ID", "")
	t.Setenv("UPS_CLIENT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.False(t, cfg.UPSEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("UPS_USE_MOCK", "true")
	t.Setenv("PORT", "8080")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("CACHE_TTL_SECONDS", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5, cfg.RetryPolicy().MaxAttempts)
	assert.Equal(t, 2, cfg.BreakerConfig().FailureThreshold)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
}
