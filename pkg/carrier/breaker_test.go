package carrier_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

var errDownstream = errors.New("downstream failure")

func failingOp() error { return errDownstream }

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	b := carrier.NewBreaker(carrier.BreakerConfig{FailureThreshold: 2, OpenDuration: time.Minute})

	require.Error(t, b.Do(failingOp))
	assert.Equal(t, carrier.BreakerClosed, b.State())
	assert.Equal(t, 1, b.ConsecutiveFailures())
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := carrier.NewBreaker(carrier.BreakerConfig{FailureThreshold: 2, OpenDuration: time.Minute})

	require.Error(t, b.Do(failingOp))
	require.Error(t, b.Do(failingOp))
	assert.Equal(t, carrier.BreakerOpen, b.State())
}

func TestBreaker_FastFailsWhileOpen(t *testing.T) {
	b := carrier.NewBreaker(carrier.BreakerConfig{FailureThreshold: 1, OpenDuration: time.Minute})
	require.Error(t, b.Do(failingOp))

	invoked := false
	err := b.Do(func() error {
		invoked = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, invoked, "wrapped operation must not run while open")

	e, ok := carrier.AsError(err)
	require.True(t, ok)
	assert.Equal(t, carrier.CodeCircuitOpen, e.Code)
	assert.True(t, e.Retryable)
}

func TestBreaker_ClosesAfterSuccessfulProbe(t *testing.T) {
	b := carrier.NewBreaker(carrier.BreakerConfig{FailureThreshold: 1, OpenDuration: 50 * time.Millisecond})
	require.Error(t, b.Do(failingOp))
	assert.Equal(t, carrier.BreakerOpen, b.State())

	time.Sleep(60 * time.Millisecond)

	invoked := false
	err := b.Do(func() error {
		invoked = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, invoked)
	assert.Equal(t, carrier.BreakerClosed, b.State())
	assert.Equal(t, 0, b.ConsecutiveFailures())
}

func TestBreaker_ReopensOnFailedProbe(t *testing.T) {
	b := carrier.NewBreaker(carrier.BreakerConfig{FailureThreshold: 1, OpenDuration: 50 * time.Millisecond})
	require.Error(t, b.Do(failingOp))

	time.Sleep(60 * time.Millisecond)

	// A single failure while half-open reopens the breaker even though the
	// failure threshold is not reached again.
	require.Error(t, b.Do(failingOp))
	assert.Equal(t, carrier.BreakerOpen, b.State())

	// The cooldown restarts from the failed probe.
	err := b.Do(func() error { return nil })
	e, ok := carrier.AsError(err)
	require.True(t, ok)
	assert.Equal(t, carrier.CodeCircuitOpen, e.Code)
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b := carrier.NewBreaker(carrier.BreakerConfig{FailureThreshold: 3, OpenDuration: time.Minute})

	require.Error(t, b.Do(failingOp))
	require.Error(t, b.Do(failingOp))
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, 0, b.ConsecutiveFailures())

	// Two more failures don't trip it: the streak restarted.
	require.Error(t, b.Do(failingOp))
	require.Error(t, b.Do(failingOp))
	assert.Equal(t, carrier.BreakerClosed, b.State())
}

func TestBreaker_NotifiesTransitions(t *testing.T) {
	var transitions []string
	b := carrier.NewBreaker(carrier.BreakerConfig{
		FailureThreshold: 1,
		OpenDuration:     50 * time.Millisecond,
		OnStateChange: func(from, to carrier.BreakerState) {
			transitions = append(transitions, string(from)+"->"+string(to))
		},
	})

	require.Error(t, b.Do(failingOp))
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, b.Do(func() error { return nil }))

	assert.Equal(t, []string{
		"closed->open",
		"open->half_open",
		"half_open->closed",
	}, transitions)
}
