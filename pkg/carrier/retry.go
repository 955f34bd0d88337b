package carrier

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy decides whether a failed call is retried and how long to back
// off before the next attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterRatio float64 // 0..1, fraction of the delay randomized in both directions
}

// DefaultRetryPolicy returns the policy used when a carrier is constructed
// without explicit retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		JitterRatio: 0.2,
	}
}

// ShouldRetry reports whether another attempt is allowed after attempt
// failed with err. Only typed errors marked retryable qualify.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	return attempt < p.MaxAttempts && IsRetryable(err)
}

// Delay returns the jittered backoff before the nth retry (n >= 1):
// min(BaseDelay * 2^(n-1), MaxDelay), then drawn uniformly from
// [d*(1-JitterRatio), d*(1+JitterRatio)] and floored at zero.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := p.BaseDelay
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.JitterRatio > 0 {
		spread := float64(delay) * p.JitterRatio
		delay = time.Duration(float64(delay) - spread + rand.Float64()*2*spread)
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// RetryObserver is invoked before each backoff sleep with the attempt that
// just failed, the computed delay, and the failure.
type RetryObserver func(attempt int, delay time.Duration, err error)

// Retry runs op with the given policy. op receives the attempt number,
// starting at 1. When retries are exhausted or the failure is not
// retryable, the original error is returned unchanged.
func Retry(ctx context.Context, policy RetryPolicy, observe RetryObserver, op func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := op(attempt)
		if err == nil {
			return nil
		}
		if !policy.ShouldRetry(err, attempt) {
			return err
		}

		delay := policy.Delay(attempt)
		if observe != nil {
			observe(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
