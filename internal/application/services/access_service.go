// Package services provides application-level orchestration services
package services

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/user"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/interfaces"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/messaging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// AccessService is the gating engine for authenticated users: it decides
// whether a user may view a term, derives access status snapshots from
// server state, and records consumed views. Every decision path that cannot
// determine entitlement fails closed.
type AccessService struct {
	users       user.Repository
	views       user.ViewRepository
	cache       interfaces.AccessCache
	broadcaster messaging.Broadcaster
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	dailyLimit  int
	now         func() time.Time
}

func NewAccessService(
	users user.Repository,
	views user.ViewRepository,
	cache interfaces.AccessCache,
	broadcaster messaging.Broadcaster,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *AccessService {
	return &AccessService{
		users:       users,
		views:       views,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      logger,
		perfTracker: perfTracker,
		dailyLimit:  config.DailyViewLimit,
		now:         time.Now,
	}
}

// GetStatus derives the user's entitlement snapshot from server state.
func (s *AccessService) GetStatus(userID string) (*access.Status, error) {
	marker := s.perfTracker.StartOperation("access_get_status")
	defer marker.Complete()

	if snap, ok := s.cache.GetAccessSnapshot(userID); ok {
		marker.SetSuccess(true)
		return &snap.Status, nil
	}

	u, err := s.users.FindByID(userID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if u == nil {
		marker.SetSuccess(true)
		return &access.Status{HasAccess: false, SubscriptionTier: access.TierFree, DailyLimit: s.dailyLimit}, nil
	}

	now := s.now().UTC()
	count, err := s.views.CountForDay(userID, user.DayKey(now))
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	// Quota resets at the next UTC midnight.
	status := access.NewStatus(u.Tier, u.LifetimeAccess, count, s.dailyLimit, 1, u.PurchaseDate)
	s.cache.SetAccessSnapshot(userID, *status)

	marker.SetSuccess(true)
	s.logger.Access().Debug("Access status derived", "userId", userID, "tier", u.Tier, "dailyViews", count)
	return status, nil
}

// CanViewTerm decides whether the user may view the given term right now.
// Terms already viewed today are always allowed regardless of the aggregate
// counter; only new terms consume quota. Errors return a fail-closed denial
// alongside the error.
func (s *AccessService) CanViewTerm(userID, termID string) (access.Decision, error) {
	marker := s.perfTracker.StartOperation("access_can_view")
	defer marker.Complete()

	u, err := s.users.FindByID(userID)
	if err != nil {
		marker.SetError(err)
		s.logger.Access().Error("Entitlement check failed, denying", "error", err.Error(), "userId", userID)
		return access.Denied(access.ReasonNoAccess, 0, false), err
	}
	if u == nil {
		marker.SetSuccess(true)
		return access.Denied(access.ReasonNoAccess, 0, false), nil
	}

	if u.LifetimeAccess {
		marker.SetSuccess(true)
		return access.Allow(access.ReasonLifetime, s.dailyLimit, false), nil
	}

	now := s.now().UTC()
	day := user.DayKey(now)

	viewed, err := s.hasViewedToday(userID, termID, day)
	if err != nil {
		marker.SetError(err)
		s.logger.Access().Error("Entitlement check failed, denying", "error", err.Error(), "userId", userID)
		return access.Denied(access.ReasonNoAccess, 0, false), err
	}

	count, err := s.views.CountForDay(userID, day)
	if err != nil {
		marker.SetError(err)
		s.logger.Access().Error("Entitlement check failed, denying", "error", err.Error(), "userId", userID)
		return access.Denied(access.ReasonNoAccess, 0, false), err
	}
	remaining := access.RemainingOf(count, s.dailyLimit)

	// Re-reads of a term unlocked earlier today never consume quota, even
	// when the aggregate counter is exhausted.
	if viewed {
		marker.SetSuccess(true)
		return access.Allow(access.ReasonAlreadyViewed, remaining, false), nil
	}

	if remaining <= 0 {
		marker.SetSuccess(true)
		s.logger.Access().Info("Daily limit reached", "userId", userID, "limit", s.dailyLimit)
		return access.Denied(access.ReasonQuotaExceeded, 0, false), nil
	}

	marker.SetSuccess(true)
	return access.Allow(access.ReasonWithinQuota, remaining, false), nil
}

// RecordView marks the term consumed for today. Idempotent per day; the
// cached snapshot is invalidated so the next status fetch re-derives counts.
func (s *AccessService) RecordView(userID, termID string) error {
	marker := s.perfTracker.StartOperation("access_record_view")
	defer marker.Complete()

	now := s.now().UTC()
	day := user.DayKey(now)

	if err := s.views.Record(userID, termID, day); err != nil {
		marker.SetError(err)
		return err
	}

	s.cache.MarkViewed(userID, day, termID)
	s.cache.InvalidateAccess(userID)
	marker.SetSuccess(true)
	return nil
}

// GrantLifetime upgrades the user after a confirmed purchase and pushes the
// entitlement change to live subscribers. Duplicate sale references are
// idempotent.
func (s *AccessService) GrantLifetime(userID, saleRef string) error {
	marker := s.perfTracker.StartOperation("access_grant_lifetime")
	defer marker.Complete()

	now := s.now().UTC()
	if err := s.users.GrantLifetime(userID, saleRef, now); err != nil {
		marker.SetError(err)
		return err
	}

	s.cache.InvalidateAccess(userID)
	s.broadcaster.Publish(userID, messaging.Event{Type: messaging.EventAccessChanged, UserID: userID})

	marker.SetSuccess(true)
	s.logger.Access().Info("Lifetime access granted", "userId", userID, "saleRef", saleRef)
	return nil
}

// hasViewedToday consults the per-day cache before the database. The cached
// set is a positive-only hint: absence still checks the database.
func (s *AccessService) hasViewedToday(userID, termID, day string) (bool, error) {
	if set, ok := s.cache.GetViewedToday(userID, day); ok && set[termID] {
		return true, nil
	}
	viewed, err := s.views.HasViewed(userID, termID, day)
	if err != nil {
		return false, err
	}
	if viewed {
		if _, ok := s.cache.GetViewedToday(userID, day); !ok {
			s.cache.SetViewedToday(userID, day, map[string]bool{})
		}
		s.cache.MarkViewed(userID, day, termID)
	}
	return viewed, nil
}

// SetClock overrides wall-clock time for tests.
func (s *AccessService) SetClock(now func() time.Time) { s.now = now }
