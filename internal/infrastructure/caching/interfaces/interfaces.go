// Package interfaces declares the cache contracts consumed by the
// application services, so services never depend on concrete stores.
package interfaces

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/types"
)

// GuestSessionCache holds anonymous preview sessions in memory. Guests are
// never written to the database; expiry makes the whole record disappear.
type GuestSessionCache interface {
	GetGuestSession(sessionID string) (*session.GuestSession, bool)
	SetGuestSession(sess *session.GuestSession)
	RemoveGuestSession(sessionID string)
	SweepExpiredGuests(now time.Time, maxAge time.Duration) int
	GuestSessionCount() int
}

// AccessCache holds computed access snapshots and per-day viewed-term sets.
type AccessCache interface {
	GetAccessSnapshot(userID string) (*types.AccessSnapshot, bool)
	SetAccessSnapshot(userID string, status access.Status)
	InvalidateAccess(userID string)
	GetViewedToday(userID, dayKey string) (map[string]bool, bool)
	SetViewedToday(userID, dayKey string, viewed map[string]bool)
	MarkViewed(userID, dayKey, termID string)
	InvalidateAllAccess()
}

// ContentCache holds glossary terms and the listing catalog.
type ContentCache interface {
	GetTerm(id string) (*content.TermNode, bool)
	SetTerm(term *content.TermNode)
	GetTermBySlug(slug string) (*content.TermNode, bool)
	GetCatalog() (*types.CatalogEntry, bool)
	SetCatalog(summaries []content.TermSummary, categories []content.CategoryNode)
	InvalidateContent()
}

// Cleaner is implemented by stores that can evict expired entries.
type Cleaner interface {
	Cleanup() []types.StoreStats
}

// Cache is the full surface the dependency container wires in.
type Cache interface {
	GuestSessionCache
	AccessCache
	ContentCache
	Cleaner
}
