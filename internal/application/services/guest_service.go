package services

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/interfaces"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/security"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// GuestService tracks anonymous preview sessions. Sessions live only in the
// cache: expiry resets everything at once, and the limited preview allowance
// is per term, so re-reading a previewed term never burns the second slot.
type GuestService struct {
	cache         interfaces.GuestSessionCache
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
	previewsLimit int
	maxAge        time.Duration
	now           func() time.Time
}

func NewGuestService(cache interfaces.GuestSessionCache, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *GuestService {
	return &GuestService{
		cache:         cache,
		logger:        logger,
		perfTracker:   perfTracker,
		previewsLimit: config.GuestPreviewLimit,
		maxAge:        config.GuestSessionMaxAge,
		now:           time.Now,
	}
}

// GetOrCreate resolves the guest session for sessionID, minting a fresh one
// when the ID is empty, unknown, or the stored session has aged out. An
// expired session is indistinguishable from a brand new visitor.
func (s *GuestService) GetOrCreate(sessionID string) *session.GuestSession {
	marker := s.perfTracker.StartOperation("guest_get_or_create")
	defer marker.Complete()

	now := s.now().UTC()

	if sessionID != "" {
		if sess, ok := s.cache.GetGuestSession(sessionID); ok {
			if !sess.IsExpired(now, s.maxAge) {
				marker.SetSuccess(true)
				return sess
			}
			s.cache.RemoveGuestSession(sessionID)
			s.logger.Guest().Debug("Expired guest session replaced", "sessionId", sessionID)
		}
	}

	sess := session.NewGuestSession(security.GenerateULID(), s.previewsLimit, now)
	s.cache.SetGuestSession(sess)
	marker.SetSuccess(true)
	s.logger.Guest().Debug("Guest session created", "sessionId", sess.SessionID)
	return sess
}

// CanPreviewTerm decides whether the guest may view the term: previously
// previewed terms are free re-reads, new terms need a free slot.
func (s *GuestService) CanPreviewTerm(sessionID, termID string) (access.Decision, *session.GuestSession) {
	marker := s.perfTracker.StartOperation("guest_can_preview")
	defer marker.Complete()

	sess := s.GetOrCreate(sessionID)

	if sess.HasViewed(termID) {
		marker.SetSuccess(true)
		return access.Allow(access.ReasonPreviewOK, sess.Remaining(), true), sess
	}
	if !sess.CanPreview() {
		marker.SetSuccess(true)
		s.logger.Guest().Info("Guest preview limit reached", "sessionId", sess.SessionID)
		return access.Denied(access.ReasonPreviewLimit, 0, true), sess
	}

	marker.SetSuccess(true)
	return access.Allow(access.ReasonPreviewOK, sess.Remaining(), true), sess
}

// RecordPreview consumes a preview slot for a term not seen before in this
// session. Returns the updated session.
func (s *GuestService) RecordPreview(sessionID, termID string) *session.GuestSession {
	marker := s.perfTracker.StartOperation("guest_record_preview")
	defer marker.Complete()

	sess := s.GetOrCreate(sessionID)
	if sess.RecordPreview(termID, s.now().UTC()) {
		s.cache.SetGuestSession(sess)
		s.logger.Guest().Debug("Guest preview recorded", "sessionId", sess.SessionID, "termId", termID, "used", sess.PreviewsUsed)
	}
	marker.SetSuccess(true)
	return sess
}

// RecordCta notes a call-to-action interaction on the guest session.
func (s *GuestService) RecordCta(sessionID string) *session.GuestSession {
	sess := s.GetOrCreate(sessionID)
	sess.RecordCta(s.now().UTC())
	s.cache.SetGuestSession(sess)
	return sess
}

// Reset discards guest state, used when the visitor signs in.
func (s *GuestService) Reset(sessionID string) {
	if sessionID == "" {
		return
	}
	s.cache.RemoveGuestSession(sessionID)
	s.logger.Guest().Debug("Guest session reset", "sessionId", sessionID)
}

// SweepExpired evicts aged-out sessions; wired to the hourly maintenance job.
func (s *GuestService) SweepExpired() int {
	return s.cache.SweepExpiredGuests(s.now().UTC(), s.maxAge)
}

// SetClock overrides wall-clock time for tests.
func (s *GuestService) SetClock(now func() time.Time) { s.now = now }
