package resilience

import (
	"testing"
	"time"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 5, OpenTimeout: 30 * time.Second})

	now := time.Now()
	cb.SetClock(func() time.Time { return now })

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
		if !cb.CanExecuteOperation() {
			t.Fatalf("breaker opened after %d failures, threshold is 5", i+1)
		}
	}

	cb.RecordFailure()
	if cb.State() != BreakerOpen {
		t.Fatalf("expected open after 5 failures, got %s", cb.State())
	}
	if cb.CanExecuteOperation() {
		t.Fatal("open breaker admitted a call before the timeout elapsed")
	}
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 5, OpenTimeout: 30 * time.Second})

	now := time.Now()
	cb.SetClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	if cb.CanExecuteOperation() {
		t.Fatal("breaker should be open")
	}

	now = now.Add(30 * time.Second)
	if !cb.CanExecuteOperation() {
		t.Fatal("breaker should admit a probe after the open timeout")
	}
	if cb.State() != BreakerHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != BreakerClosed {
		t.Fatalf("success in half-open should close, got %s", cb.State())
	}
	if cb.FailureCount() != 0 {
		t.Fatalf("success should reset failure count, got %d", cb.FailureCount())
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})

	now := time.Now()
	cb.SetClock(func() time.Time { return now })

	cb.RecordFailure()
	cb.RecordFailure()

	now = now.Add(time.Minute)
	if !cb.CanExecuteOperation() {
		t.Fatal("expected probe admission")
	}

	cb.RecordFailure()
	if cb.State() != BreakerOpen {
		t.Fatalf("failed probe should reopen, got %s", cb.State())
	}
	if cb.CanExecuteOperation() {
		t.Fatal("breaker should be open again right after a failed probe")
	}
}

func TestBreakerSuccessResetsCountWhileClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultBreakerConfig())

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if cb.FailureCount() != 0 {
		t.Fatalf("expected count 0 after success, got %d", cb.FailureCount())
	}

	// Four more failures should not trip a threshold of five.
	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	if cb.State() != BreakerClosed {
		t.Fatalf("expected closed, got %s", cb.State())
	}
}
