// Package resilience provides the failure-handling building blocks used around
// identity provider and status queries: exponential-backoff retries, a
// circuit breaker, hard per-operation timeouts, and query deduplication.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

// RetryConfig configures retry behavior with exponential backoff
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"` // Maximum number of retry attempts
	BaseDelay  time.Duration `json:"baseDelay"`  // Base delay between retries
	MaxDelay   time.Duration `json:"maxDelay"`   // Maximum delay between retries
	Multiplier float64       `json:"multiplier"` // Exponential backoff multiplier
	Jitter     bool          `json:"jitter"`     // Add random jitter to spread retry storms
}

// RetryResult contains information about the retry operation
type RetryResult struct {
	Attempts      int           `json:"attempts"`
	TotalDuration time.Duration `json:"totalDuration"`
	LastError     error         `json:"-"`
	Success       bool          `json:"success"`
}

// DefaultRetryConfig returns the retry configuration used for identity
// provider calls: 1s base delay doubling up to 10s, three retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1000 * time.Millisecond,
		MaxDelay:   10000 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// RetryWithBackoff executes an operation with exponential backoff retry logic.
// isRetryable decides whether a given failure is worth another attempt;
// non-retryable failures are returned immediately.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation func() error, isRetryable func(error) bool, logger *logging.ChanneledLogger) RetryResult {
	startTime := time.Now()

	result := RetryResult{}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		err := operation()
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)
			if logger != nil && attempt > 0 {
				logger.Auth().Info("Operation succeeded after retries", "attempts", result.Attempts, "duration", result.TotalDuration)
			}
			return result
		}

		result.LastError = err

		if isRetryable != nil && !isRetryable(err) {
			result.TotalDuration = time.Since(startTime)
			return result
		}

		if attempt >= config.MaxRetries {
			result.TotalDuration = time.Since(startTime)
			if logger != nil {
				logger.Auth().Warn("Operation failed after exhausting retries", "attempts", result.Attempts, "duration", result.TotalDuration, "error", err.Error())
			}
			return result
		}

		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			return result
		}

		delay := calculateDelay(config, attempt)
		if logger != nil {
			logger.Auth().Debug("Retrying operation after backoff", "attempt", attempt+1, "maxRetries", config.MaxRetries, "delay", delay, "error", err.Error())
		}

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			return result
		case <-time.After(delay):
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result
}

// calculateDelay computes the backoff delay for the next attempt:
// min(baseDelay * multiplier^attempt, maxDelay), optionally with ±50% jitter.
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		jitter := (rand.Float64() - 0.5) * delay // ±50%
		delay += jitter

		if delay < 0 {
			delay = float64(config.BaseDelay)
		}
	}

	return time.Duration(delay)
}
