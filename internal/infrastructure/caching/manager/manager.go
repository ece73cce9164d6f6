// Package manager provides centralized cache operations by delegating to
// specialized stores.
package manager

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/interfaces"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/stores"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/types"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

var _ interfaces.Cache = (*Manager)(nil)

// Manager composes the session, access, and content stores behind the
// interfaces the services consume.
type Manager struct {
	sessionsStore *stores.SessionsStore
	accessStore   *stores.AccessStore
	contentStore  *stores.ContentStore
	logger        *logging.ChanneledLogger
}

func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "stores", []string{"sessions", "access", "content"})
	}
	return &Manager{
		sessionsStore: stores.NewSessionsStore(logger),
		accessStore:   stores.NewAccessStore(logger),
		contentStore:  stores.NewContentStore(logger),
		logger:        logger,
	}
}

// Guest sessions

func (m *Manager) GetGuestSession(sessionID string) (*session.GuestSession, bool) {
	return m.sessionsStore.GetGuestSession(sessionID)
}

func (m *Manager) SetGuestSession(sess *session.GuestSession) {
	m.sessionsStore.SetGuestSession(sess)
}

func (m *Manager) RemoveGuestSession(sessionID string) {
	m.sessionsStore.RemoveGuestSession(sessionID)
}

func (m *Manager) SweepExpiredGuests(now time.Time, maxAge time.Duration) int {
	return m.sessionsStore.SweepExpiredGuests(now, maxAge)
}

func (m *Manager) GuestSessionCount() int {
	return m.sessionsStore.GuestSessionCount()
}

// Access

func (m *Manager) GetAccessSnapshot(userID string) (*types.AccessSnapshot, bool) {
	return m.accessStore.GetAccessSnapshot(userID)
}

func (m *Manager) SetAccessSnapshot(userID string, status access.Status) {
	m.accessStore.SetAccessSnapshot(userID, status)
}

func (m *Manager) InvalidateAccess(userID string) {
	m.accessStore.InvalidateAccess(userID)
}

func (m *Manager) GetViewedToday(userID, dayKey string) (map[string]bool, bool) {
	return m.accessStore.GetViewedToday(userID, dayKey)
}

func (m *Manager) SetViewedToday(userID, dayKey string, viewed map[string]bool) {
	m.accessStore.SetViewedToday(userID, dayKey, viewed)
}

func (m *Manager) MarkViewed(userID, dayKey, termID string) {
	m.accessStore.MarkViewed(userID, dayKey, termID)
}

func (m *Manager) InvalidateAllAccess() {
	m.accessStore.InvalidateAllAccess()
}

// Content

func (m *Manager) GetTerm(id string) (*content.TermNode, bool) {
	return m.contentStore.GetTerm(id)
}

func (m *Manager) SetTerm(term *content.TermNode) {
	m.contentStore.SetTerm(term)
}

func (m *Manager) GetTermBySlug(slug string) (*content.TermNode, bool) {
	return m.contentStore.GetTermBySlug(slug)
}

func (m *Manager) GetCatalog() (*types.CatalogEntry, bool) {
	return m.contentStore.GetCatalog()
}

func (m *Manager) SetCatalog(summaries []content.TermSummary, categories []content.CategoryNode) {
	m.contentStore.SetCatalog(summaries, categories)
}

func (m *Manager) InvalidateContent() {
	m.contentStore.InvalidateContent()
}

// Cleanup runs eviction across all stores and returns per-store stats.
func (m *Manager) Cleanup() []types.StoreStats {
	guestEvicted := m.sessionsStore.SweepExpiredGuests(time.Now().UTC(), config.GuestSessionMaxAge)
	return []types.StoreStats{
		{Name: "sessions", Entries: m.sessionsStore.GuestSessionCount(), Evicted: guestEvicted},
		m.accessStore.Cleanup(),
		m.contentStore.Cleanup(),
	}
}
