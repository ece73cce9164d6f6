package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteTimeoutProducesTimeoutError(t *testing.T) {
	policy := Policy{Op: "sign-in", Timeout: 20 * time.Millisecond}

	err := Execute(context.Background(), policy, func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, nil)

	if !IsTimeout(err) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}

	var te *TimeoutError
	errors.As(err, &te)
	if te.Op != "sign-in" {
		t.Fatalf("timeout error should carry the operation name, got %q", te.Op)
	}
}

func TestExecuteFailsFastWhenBreakerOpen(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})
	cb.RecordFailure()

	called := false
	err := Execute(context.Background(), Policy{Op: "refresh", Breaker: cb}, func(ctx context.Context) error {
		called = true
		return nil
	}, nil)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatal("operation must not run while the breaker is open")
	}
}

func TestExecuteFeedsBreaker(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})
	policy := Policy{Op: "sign-in", Breaker: cb}

	boom := errors.New("provider down")
	for i := 0; i < 2; i++ {
		Execute(context.Background(), policy, func(ctx context.Context) error { return boom }, nil)
	}
	if cb.State() != BreakerOpen {
		t.Fatalf("two failures with threshold 2 should open, got %s", cb.State())
	}
}

func TestExecuteRetriesTimeoutWhenConfigured(t *testing.T) {
	attempts := 0
	policy := Policy{
		Op:             "refresh",
		Timeout:        10 * time.Millisecond,
		Retry:          RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0},
		RetryOnTimeout: true,
	}

	err := Execute(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}, nil)

	if err != nil {
		t.Fatalf("expected recovery on retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryTimeoutWhenForbidden(t *testing.T) {
	attempts := 0
	policy := Policy{
		Op:             "sign-out",
		Timeout:        10 * time.Millisecond,
		Retry:          RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0},
		RetryOnTimeout: false,
	}

	err := Execute(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	}, nil)

	if !IsTimeout(err) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("sign-out timeout must not be retried, got %d attempts", attempts)
	}
}

func TestExecuteSuccessClosesBreakerProbe(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)

	err := Execute(context.Background(), Policy{Op: "refresh", Breaker: cb}, func(ctx context.Context) error {
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("probe should run and succeed, got %v", err)
	}
	if cb.State() != BreakerClosed {
		t.Fatalf("successful probe should close the breaker, got %s", cb.State())
	}
}
