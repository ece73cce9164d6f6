// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

// SessionsStore holds anonymous guest preview sessions. The map is the only
// record these sessions have; eviction is how they expire.
type SessionsStore struct {
	sessions map[string]*session.GuestSession
	mu       sync.RWMutex
	logger   *logging.ChanneledLogger
}

func NewSessionsStore(logger *logging.ChanneledLogger) *SessionsStore {
	if logger != nil {
		logger.Cache().Info("Initializing guest sessions store")
	}
	return &SessionsStore{
		sessions: make(map[string]*session.GuestSession),
		logger:   logger,
	}
}

func (ss *SessionsStore) GetGuestSession(sessionID string) (*session.GuestSession, bool) {
	start := time.Now()
	ss.mu.RLock()
	sess, found := ss.sessions[sessionID]
	ss.mu.RUnlock()

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "guest_session", "sessionId", sessionID, "hit", found, "duration", time.Since(start))
	}
	return sess, found
}

func (ss *SessionsStore) SetGuestSession(sess *session.GuestSession) {
	ss.mu.Lock()
	ss.sessions[sess.SessionID] = sess
	ss.mu.Unlock()

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "set", "type", "guest_session", "sessionId", sess.SessionID)
	}
}

func (ss *SessionsStore) RemoveGuestSession(sessionID string) {
	ss.mu.Lock()
	delete(ss.sessions, sessionID)
	ss.mu.Unlock()
}

// SweepExpiredGuests evicts every session older than maxAge and returns the
// count removed.
func (ss *SessionsStore) SweepExpiredGuests(now time.Time, maxAge time.Duration) int {
	start := time.Now()

	ss.mu.Lock()
	var removed int
	for id, sess := range ss.sessions {
		if sess.IsExpired(now, maxAge) {
			delete(ss.sessions, id)
			removed++
		}
	}
	remaining := len(ss.sessions)
	ss.mu.Unlock()

	if ss.logger != nil && removed > 0 {
		ss.logger.Cache().Info("Swept expired guest sessions", "removed", removed, "remaining", remaining, "duration", time.Since(start))
	}
	return removed
}

func (ss *SessionsStore) GuestSessionCount() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
