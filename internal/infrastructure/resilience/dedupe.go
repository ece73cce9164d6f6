package resilience

import (
	"context"
	"sync"
	"time"
)

// Deduplicator collapses concurrent identical queries into one underlying
// call, reuses a just-completed result for a short interval, and breaks
// refresh loops by capping consecutive queries inside a rolling window.
// One Deduplicator guards one logical query (e.g. the current-session
// lookup); it is not keyed.
type Deduplicator[T any] struct {
	mu       sync.Mutex
	inflight *inflightCall[T]

	lastValue     T
	lastErr       error
	hasResult     bool
	lastCompleted time.Time

	everCalled  bool
	consecutive int
	windowStart time.Time

	minInterval    time.Duration
	maxConsecutive int
	forcedWindow   time.Duration
	now            func() time.Time
}

type inflightCall[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// DedupeConfig configures query deduplication behavior
type DedupeConfig struct {
	MinInterval    time.Duration `json:"minInterval"`    // Reuse a completed result younger than this
	MaxConsecutive int           `json:"maxConsecutive"` // Consecutive-query cap inside the window
	ForcedWindow   time.Duration `json:"forcedWindow"`   // Rolling window for the cap
}

// DefaultDedupeConfig returns the deduplication defaults: 1s result reuse,
// at most 5 consecutive queries per 10s window.
func DefaultDedupeConfig() DedupeConfig {
	return DedupeConfig{
		MinInterval:    1 * time.Second,
		MaxConsecutive: 5,
		ForcedWindow:   10 * time.Second,
	}
}

// NewDeduplicator creates a deduplicator for one logical query
func NewDeduplicator[T any](config DedupeConfig) *Deduplicator[T] {
	if config.MinInterval <= 0 {
		config.MinInterval = DefaultDedupeConfig().MinInterval
	}
	if config.MaxConsecutive <= 0 {
		config.MaxConsecutive = DefaultDedupeConfig().MaxConsecutive
	}
	if config.ForcedWindow <= 0 {
		config.ForcedWindow = DefaultDedupeConfig().ForcedWindow
	}

	return &Deduplicator[T]{
		minInterval:    config.MinInterval,
		maxConsecutive: config.MaxConsecutive,
		forcedWindow:   config.ForcedWindow,
		now:            time.Now,
	}
}

// SetClock overrides the deduplicator's time source. Intended for tests.
func (d *Deduplicator[T]) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Execute runs query, subject to deduplication:
//   - a call arriving while another is in flight waits for and shares that
//     call's outcome (value or error);
//   - a call arriving within MinInterval of the last completion returns the
//     cached outcome, except for the very first call ever made;
//   - once MaxConsecutive queries have been issued inside ForcedWindow,
//     further calls return the last known outcome without querying, until a
//     success or an explicit Reset clears the counter.
func (d *Deduplicator[T]) Execute(ctx context.Context, query func(context.Context) (T, error)) (T, error) {
	d.mu.Lock()

	if d.inflight != nil {
		call := d.inflight
		d.mu.Unlock()
		select {
		case <-call.done:
			return call.value, call.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	now := d.now()

	if d.everCalled && d.hasCompleted() && now.Sub(d.lastCompleted) < d.minInterval {
		value, err := d.lastValue, d.lastErr
		d.mu.Unlock()
		return value, err
	}

	// Rolling loop-breaker window.
	if now.Sub(d.windowStart) > d.forcedWindow {
		d.consecutive = 0
		d.windowStart = now
	}
	if d.everCalled && d.consecutive >= d.maxConsecutive {
		value, err := d.lastValue, d.lastErr
		d.mu.Unlock()
		return value, err
	}

	call := &inflightCall[T]{done: make(chan struct{})}
	d.inflight = call
	if d.consecutive == 0 {
		d.windowStart = now
	}
	d.consecutive++
	d.everCalled = true
	d.mu.Unlock()

	value, err := query(ctx)

	d.mu.Lock()
	call.value = value
	call.err = err
	d.lastValue = value
	d.lastErr = err
	d.hasResult = err == nil
	// Timestamp advances on error too, so failures are not retried
	// back-to-back; the consecutive counter only clears on success.
	d.lastCompleted = d.now()
	if err == nil {
		d.consecutive = 0
	}
	d.inflight = nil
	d.mu.Unlock()

	close(call.done)
	return value, err
}

// hasCompleted reports whether any call has finished. Caller holds d.mu.
func (d *Deduplicator[T]) hasCompleted() bool {
	return !d.lastCompleted.IsZero()
}

// Reset clears the consecutive-query counter. Called after an external event
// (such as a token refresh) that makes immediate follow-up queries legitimate.
func (d *Deduplicator[T]) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.consecutive = 0
	d.windowStart = d.now()
}

// LastResult returns the most recent successful value, if any
func (d *Deduplicator[T]) LastResult() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastValue, d.hasResult
}
