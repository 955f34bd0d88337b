package carrier

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker state.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// BreakerConfig controls the breaker thresholds.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips the
	// breaker from closed to open. Defaults to 5.
	FailureThreshold int
	// OpenDuration is how long the breaker rejects calls before admitting a
	// probe. Defaults to 30s.
	OpenDuration time.Duration
	// OnStateChange, when set, is invoked after every state transition.
	OnStateChange func(from, to BreakerState)
}

// Breaker is a per-carrier, per-process circuit breaker. It fast-fails
// calls to a degraded carrier for OpenDuration after FailureThreshold
// consecutive failures. The open-to-half-open transition happens at call
// time, never via a timer.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	openedAt            time.Time
	probing             bool
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = 30 * time.Second
	}
	return &Breaker{
		cfg:   cfg,
		now:   time.Now,
		state: BreakerClosed,
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ConsecutiveFailures returns the current failure streak.
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}

// Do runs op through the breaker. While open it fails fast with a
// retryable CIRCUIT_OPEN error without invoking op; after OpenDuration a
// single probe call is admitted.
func (b *Breaker) Do(op func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := op()
	b.record(err == nil)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.OpenDuration {
			return NewError("", CodeCircuitOpen, "circuit breaker is open").WithRetryable(true)
		}
		b.transition(BreakerHalfOpen)
		b.probing = true
		return nil
	default: // half-open: one probe at a time
		if b.probing {
			return NewError("", CodeCircuitOpen, "circuit breaker probe in flight").WithRetryable(true)
		}
		b.probing = true
		return nil
	}
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.consecutiveFailures = 0
		b.probing = false
		if b.state != BreakerClosed {
			b.transition(BreakerClosed)
		}
		return
	}

	if b.state == BreakerHalfOpen {
		// A single failure while half-open reopens the breaker.
		b.probing = false
		b.openedAt = b.now()
		b.transition(BreakerOpen)
		return
	}

	b.consecutiveFailures++
	if b.state == BreakerClosed && b.consecutiveFailures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		b.transition(BreakerOpen)
	}
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
