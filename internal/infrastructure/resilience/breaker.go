package resilience

import (
	"sync"
	"time"
)

// BreakerState describes the circuit breaker position
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// CircuitBreaker guards identity provider calls. After Threshold consecutive
// recorded failures the breaker opens and calls fail fast; after OpenTimeout
// has elapsed since the last failure it admits a single probe (half-open).
// Any recorded success closes the breaker and clears the failure count.
type CircuitBreaker struct {
	mu              sync.Mutex
	failureCount    int
	lastFailureTime time.Time
	state           BreakerState

	threshold   int
	openTimeout time.Duration
	now         func() time.Time
}

// BreakerConfig configures circuit breaker behavior
type BreakerConfig struct {
	FailureThreshold int           `json:"failureThreshold"`
	OpenTimeout      time.Duration `json:"openTimeout"`
}

// DefaultBreakerConfig returns the breaker defaults: trip after 5 consecutive
// failures, re-probe after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = DefaultBreakerConfig().OpenTimeout
	}

	return &CircuitBreaker{
		state:       BreakerClosed,
		threshold:   config.FailureThreshold,
		openTimeout: config.OpenTimeout,
		now:         time.Now,
	}
}

// SetClock overrides the breaker's time source. Intended for tests.
func (cb *CircuitBreaker) SetClock(now func() time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = now
}

// CanExecuteOperation reports whether a call may proceed. When the breaker is
// open and the open timeout has elapsed it transitions to half-open and
// admits the call as a probe.
func (cb *CircuitBreaker) CanExecuteOperation() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed, BreakerHalfOpen:
		return true
	case BreakerOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.openTimeout {
			cb.state = BreakerHalfOpen
			return true
		}
		return false
	}
	return true
}

// RecordSuccess clears failure bookkeeping and closes the breaker
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.state = BreakerClosed
}

// RecordFailure notes a failed call; the breaker opens once the consecutive
// failure count reaches the threshold. A failed half-open probe re-opens
// immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	if cb.state == BreakerHalfOpen || cb.failureCount >= cb.threshold {
		cb.state = BreakerOpen
	}
}

// State returns the current breaker position
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the consecutive failure count
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}
