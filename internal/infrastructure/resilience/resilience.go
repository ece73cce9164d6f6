package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

// ErrCircuitOpen is returned without touching the network while the breaker
// is open.
var ErrCircuitOpen = errors.New("service temporarily unavailable")

// TimeoutError marks an operation that exceeded its per-operation time limit.
// The caller-facing result is abandoned; the underlying call is not cancelled.
type TimeoutError struct {
	Op    string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Limit)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Policy bundles the failure-handling wrappers applied to one operation kind.
// A zero field disables that wrapper.
type Policy struct {
	Op             string
	Timeout        time.Duration
	Retry          RetryConfig
	RetryOnTimeout bool
	Breaker        *CircuitBreaker
	IsRetryable    func(error) bool
}

// Execute runs op under the policy: breaker fail-fast, then hard timeout,
// then backoff retries of retryable failures. Breaker bookkeeping is fed by
// every attempt's outcome.
func Execute(ctx context.Context, policy Policy, op func(context.Context) error, logger *logging.ChanneledLogger) error {
	attempt := func() error {
		if policy.Breaker != nil && !policy.Breaker.CanExecuteOperation() {
			return ErrCircuitOpen
		}

		err := runWithTimeout(ctx, policy, op)

		if policy.Breaker != nil && !errors.Is(err, ErrCircuitOpen) {
			if err != nil {
				policy.Breaker.RecordFailure()
			} else {
				policy.Breaker.RecordSuccess()
			}
		}
		return err
	}

	retryable := func(err error) bool {
		if errors.Is(err, ErrCircuitOpen) {
			return false
		}
		if IsTimeout(err) {
			return policy.RetryOnTimeout
		}
		if policy.IsRetryable != nil {
			return policy.IsRetryable(err)
		}
		return false
	}

	if policy.Retry.MaxRetries <= 0 {
		return attempt()
	}

	result := RetryWithBackoff(ctx, policy.Retry, attempt, retryable, logger)
	if result.Success {
		return nil
	}
	return result.LastError
}

// runWithTimeout bounds op by the policy timeout. On expiry the caller gets a
// TimeoutError immediately; the op goroutine finishes into a buffered channel.
func runWithTimeout(ctx context.Context, policy Policy, op func(context.Context) error) error {
	if policy.Timeout <= 0 {
		return op(ctx)
	}

	opCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(opCtx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{Op: policy.Op, Limit: policy.Timeout}
		}
		return err
	case <-opCtx.Done():
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Op: policy.Op, Limit: policy.Timeout}
		}
		return opCtx.Err()
	}
}
