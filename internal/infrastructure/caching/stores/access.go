package stores

import (
	"sync"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/types"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// AccessStore caches computed access snapshots and the per-day set of terms
// each user has already unlocked.
type AccessStore struct {
	snapshots map[string]*types.AccessSnapshot
	viewed    map[string]*types.TermAccessEntry
	mu        sync.RWMutex
	logger    *logging.ChanneledLogger
}

func NewAccessStore(logger *logging.ChanneledLogger) *AccessStore {
	if logger != nil {
		logger.Cache().Info("Initializing access cache store")
	}
	return &AccessStore{
		snapshots: make(map[string]*types.AccessSnapshot),
		viewed:    make(map[string]*types.TermAccessEntry),
		logger:    logger,
	}
}

func (as *AccessStore) GetAccessSnapshot(userID string) (*types.AccessSnapshot, bool) {
	start := time.Now()
	as.mu.RLock()
	snap, found := as.snapshots[userID]
	as.mu.RUnlock()

	if found && snap.Expired(time.Now().UTC(), config.AccessStatusTTL) {
		as.InvalidateAccess(userID)
		found = false
		snap = nil
	}
	if as.logger != nil {
		as.logger.Cache().Debug("Cache operation", "operation", "get", "type", "access_snapshot", "userId", userID, "hit", found, "duration", time.Since(start))
	}
	return snap, found
}

func (as *AccessStore) SetAccessSnapshot(userID string, status access.Status) {
	as.mu.Lock()
	as.snapshots[userID] = &types.AccessSnapshot{Status: status, LoadedAt: time.Now().UTC()}
	as.mu.Unlock()
}

func (as *AccessStore) InvalidateAccess(userID string) {
	as.mu.Lock()
	delete(as.snapshots, userID)
	delete(as.viewed, userID)
	as.mu.Unlock()

	if as.logger != nil {
		as.logger.Cache().Debug("Cache operation", "operation", "invalidate", "type", "access", "userId", userID)
	}
}

// GetViewedToday returns the viewed-term set for userID on dayKey. A stale
// entry from a previous day, or one past its TTL, counts as a miss.
func (as *AccessStore) GetViewedToday(userID, dayKey string) (map[string]bool, bool) {
	as.mu.RLock()
	entry, found := as.viewed[userID]
	as.mu.RUnlock()

	if !found {
		return nil, false
	}
	if entry.DayKey != dayKey || time.Now().UTC().Sub(entry.LoadedAt) > config.TermAccessTTL {
		as.mu.Lock()
		delete(as.viewed, userID)
		as.mu.Unlock()
		return nil, false
	}
	return entry.Viewed, true
}

func (as *AccessStore) SetViewedToday(userID, dayKey string, viewed map[string]bool) {
	as.mu.Lock()
	as.viewed[userID] = &types.TermAccessEntry{
		DayKey:   dayKey,
		Viewed:   viewed,
		LoadedAt: time.Now().UTC(),
	}
	as.mu.Unlock()
}

func (as *AccessStore) MarkViewed(userID, dayKey, termID string) {
	as.mu.Lock()
	entry, found := as.viewed[userID]
	if found && entry.DayKey == dayKey {
		entry.Viewed[termID] = true
	}
	as.mu.Unlock()
}

// InvalidateAllAccess drops every snapshot and viewed set. Used by the
// nightly quota reset so stale remaining-view counts never survive the day
// boundary.
func (as *AccessStore) InvalidateAllAccess() {
	as.mu.Lock()
	dropped := len(as.snapshots) + len(as.viewed)
	as.snapshots = make(map[string]*types.AccessSnapshot)
	as.viewed = make(map[string]*types.TermAccessEntry)
	as.mu.Unlock()

	if as.logger != nil {
		as.logger.Cache().Info("Invalidated all access entries", "dropped", dropped)
	}
}

// Cleanup evicts expired snapshots and day-stale viewed sets.
func (as *AccessStore) Cleanup() types.StoreStats {
	now := time.Now().UTC()
	as.mu.Lock()
	defer as.mu.Unlock()

	var evicted int
	for userID, snap := range as.snapshots {
		if snap.Expired(now, config.AccessStatusTTL) {
			delete(as.snapshots, userID)
			evicted++
		}
	}
	for userID, entry := range as.viewed {
		if now.Sub(entry.LoadedAt) > config.TermAccessTTL {
			delete(as.viewed, userID)
			evicted++
		}
	}
	return types.StoreStats{Name: "access", Entries: len(as.snapshots) + len(as.viewed), Evicted: evicted}
}
