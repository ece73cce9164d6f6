package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateDelayExponential(t *testing.T) {
	config := RetryConfig{
		BaseDelay:  1000 * time.Millisecond,
		MaxDelay:   10000 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     false,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second}, // capped at MaxDelay
		{8, 10 * time.Second},
	}

	for _, tc := range cases {
		if got := calculateDelay(config, tc.attempt); got != tc.want {
			t.Errorf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestCalculateDelayJitterBounds(t *testing.T) {
	config := RetryConfig{
		BaseDelay:  1000 * time.Millisecond,
		MaxDelay:   10000 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     true,
	}

	// ±50% jitter around the 2s second-attempt delay.
	for i := 0; i < 100; i++ {
		got := calculateDelay(config, 1)
		if got < 1*time.Second || got > 3*time.Second {
			t.Fatalf("jittered delay %v outside [1s, 3s]", got)
		}
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	result := RetryWithBackoff(context.Background(), config, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(error) bool { return true }, nil)

	if !result.Success {
		t.Fatalf("expected success, got %v", result.LastError)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	terminal := errors.New("invalid credentials")
	attempts := 0
	result := RetryWithBackoff(context.Background(), config, func() error {
		attempts++
		return terminal
	}, func(error) bool { return false }, nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if attempts != 1 {
		t.Fatalf("non-retryable error should not be retried, got %d attempts", attempts)
	}
	if !errors.Is(result.LastError, terminal) {
		t.Fatalf("expected terminal error, got %v", result.LastError)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	result := RetryWithBackoff(context.Background(), config, func() error {
		attempts++
		return errors.New("still down")
	}, func(error) bool { return true }, nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if attempts != 4 { // initial try + 3 retries
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	config := RetryConfig{MaxRetries: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := RetryWithBackoff(ctx, config, func() error {
		attempts++
		return errors.New("down")
	}, func(error) bool { return true }, nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(result.LastError, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", result.LastError)
	}
}
