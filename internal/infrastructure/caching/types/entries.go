// Package types defines cache entry shapes shared by the cache stores
package types

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
)

// AccessSnapshot caches a user's computed access status. Snapshots are
// short-lived so tier changes and quota consumption stay fresh.
type AccessSnapshot struct {
	Status   access.Status
	LoadedAt time.Time
}

func (s *AccessSnapshot) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LoadedAt) > ttl
}

// TermAccessEntry caches per-term allow decisions for a user on a given day,
// so repeat views of an already-unlocked term skip the database.
type TermAccessEntry struct {
	DayKey   string
	Viewed   map[string]bool
	LoadedAt time.Time
}

// TermEntry caches a full term node.
type TermEntry struct {
	Term     *content.TermNode
	LoadedAt time.Time
}

func (e *TermEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.LoadedAt) > ttl
}

// CatalogEntry caches the full listing surfaces: summaries and categories
// are always served together and invalidated together.
type CatalogEntry struct {
	Summaries  []content.TermSummary
	Categories []content.CategoryNode
	LoadedAt   time.Time
}

func (e *CatalogEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.LoadedAt) > ttl
}

// StoreStats summarizes one store for the cleanup reporter.
type StoreStats struct {
	Name    string
	Entries int
	Evicted int
}
