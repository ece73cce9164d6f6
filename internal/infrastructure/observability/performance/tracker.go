package performance

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers map[string]*Marker
	mu      sync.RWMutex
	started time.Time
	config  *TrackerConfig
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers             int           `json:"maxMarkers"`
	SlowOperationThreshold time.Duration `json:"slowOperationThreshold"`
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:             10000,
		SlowOperationThreshold: 500 * time.Millisecond,
	}
}

// OperationStats aggregates completed markers for one operation kind
type OperationStats struct {
	Operation    string        `json:"operation"`
	Count        int           `json:"count"`
	Failures     int           `json:"failures"`
	TotalTime    time.Duration `json:"totalTime"`
	AverageTime  time.Duration `json:"averageTime"`
	SlowestTime  time.Duration `json:"slowestTime"`
	LastObserved time.Time     `json:"lastObserved"`
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}

	return &Tracker{
		markers: make(map[string]*Marker),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation string) *Marker {
	marker := &Marker{
		Operation: operation,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true, // Assume success until proven otherwise
	}

	markerID := fmt.Sprintf("%s_%d", operation, time.Now().UnixNano())

	t.mu.Lock()
	if len(t.markers) >= t.config.MaxMarkers {
		t.evictOldestLocked()
	}
	t.markers[markerID] = marker
	t.mu.Unlock()

	return marker
}

// evictOldestLocked drops the oldest completed marker. Caller holds t.mu.
func (t *Tracker) evictOldestLocked() {
	var oldestID string
	var oldestStart time.Time
	for id, m := range t.markers {
		if !m.Completed {
			continue
		}
		if oldestID == "" || m.StartTime.Before(oldestStart) {
			oldestID = id
			oldestStart = m.StartTime
		}
	}
	if oldestID != "" {
		delete(t.markers, oldestID)
	}
}

// Stats returns aggregated statistics for all completed operations
func (t *Tracker) Stats() []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byOp := make(map[string]*OperationStats)
	for _, m := range t.markers {
		if !m.Completed {
			continue
		}
		stats, ok := byOp[m.Operation]
		if !ok {
			stats = &OperationStats{Operation: m.Operation}
			byOp[m.Operation] = stats
		}
		stats.Count++
		if !m.Success {
			stats.Failures++
		}
		stats.TotalTime += m.Duration
		if m.Duration > stats.SlowestTime {
			stats.SlowestTime = m.Duration
		}
		if m.EndTime.After(stats.LastObserved) {
			stats.LastObserved = m.EndTime
		}
	}

	out := make([]OperationStats, 0, len(byOp))
	for _, stats := range byOp {
		if stats.Count > 0 {
			stats.AverageTime = stats.TotalTime / time.Duration(stats.Count)
		}
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// IsSlow reports whether a completed marker exceeded the slow threshold
func (t *Tracker) IsSlow(m *Marker) bool {
	return m.Completed && m.Duration > t.config.SlowOperationThreshold
}

// Uptime returns how long this tracker has been running
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
