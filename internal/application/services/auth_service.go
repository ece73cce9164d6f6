package services

import (
	"context"
	"sync"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/identity"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/messaging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/resilience"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/tokenstore"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// AuthService wraps the identity provider with the session resilience layer:
// per-operation timeouts, retry with backoff, a shared circuit breaker,
// deduplicated session queries, persisted token records, and proactive token
// refresh scheduled ahead of expiry.
//
// One AuthService instance serves all users; per-user state (token record,
// refresh timer, session-query deduplicator) lives in managed sessions.
type AuthService struct {
	provider    identity.Provider
	tokens      *tokenstore.Store
	broadcaster messaging.Broadcaster
	breaker     *resilience.CircuitBreaker
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker

	mu       sync.Mutex
	sessions map[string]*managedSession

	leadTime  time.Duration
	now       func() time.Time
	afterFunc func(d time.Duration, fn func()) *time.Timer
}

type managedSession struct {
	record       *session.TokenRecord
	refreshTimer *time.Timer
	dedupe       *resilience.Deduplicator[*identity.Session]
}

func NewAuthService(
	provider identity.Provider,
	tokens *tokenstore.Store,
	broadcaster messaging.Broadcaster,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *AuthService {
	s := &AuthService{
		provider:    provider,
		tokens:      tokens,
		broadcaster: broadcaster,
		breaker:     resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig()),
		logger:      logger,
		perfTracker: perfTracker,
		sessions:    make(map[string]*managedSession),
		leadTime:    config.RefreshLeadTime,
		now:         time.Now,
		afterFunc:   time.AfterFunc,
	}
	// A token record cleared underneath us (another process, operator) means
	// that session is signed out everywhere.
	tokens.OnClear(func(userID string) {
		s.dropSession(userID)
		s.broadcaster.Publish(userID, messaging.Event{Type: messaging.EventSessionLost, UserID: userID})
	})
	return s
}

// policy builds the resilience policy for one operation kind. All auth
// operations share one breaker so repeated provider failures fail fast
// across the board.
func (s *AuthService) policy(op string, timeout time.Duration, retryTimeouts bool) resilience.Policy {
	return resilience.Policy{
		Op:             op,
		Timeout:        timeout,
		Retry:          resilience.DefaultRetryConfig(),
		RetryOnTimeout: retryTimeouts,
		Breaker:        s.breaker,
		IsRetryable:    identity.IsRetryable,
	}
}

// SignIn authenticates and installs a managed session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	marker := s.perfTracker.StartOperation("auth_sign_in")
	defer marker.Complete()

	var sess *identity.Session
	err := resilience.Execute(ctx, s.policy("sign-in", config.SignInTimeout, true), func(ctx context.Context) error {
		var err error
		sess, err = s.provider.SignIn(ctx, email, password)
		return err
	}, s.logger)
	if err != nil {
		marker.SetError(err)
		classified := identity.Classify(err)
		s.logger.Auth().Warn("Sign-in failed", "category", classified.Category, "retryable", classified.Retryable)
		return nil, classified
	}

	s.installSession(sess)
	s.broadcaster.Publish(sess.UserID, messaging.Event{Type: messaging.EventSignedIn, UserID: sess.UserID})
	marker.SetSuccess(true)
	s.logger.Auth().Info("Sign-in succeeded", "userId", sess.UserID)
	return sess, nil
}

// SignUp registers a new account and installs a managed session.
func (s *AuthService) SignUp(ctx context.Context, params identity.SignUpParams) (*identity.Session, error) {
	marker := s.perfTracker.StartOperation("auth_sign_up")
	defer marker.Complete()

	var sess *identity.Session
	err := resilience.Execute(ctx, s.policy("sign-up", config.SignUpTimeout, true), func(ctx context.Context) error {
		var err error
		sess, err = s.provider.SignUp(ctx, params)
		return err
	}, s.logger)
	if err != nil {
		marker.SetError(err)
		return nil, identity.Classify(err)
	}

	s.installSession(sess)
	s.broadcaster.Publish(sess.UserID, messaging.Event{Type: messaging.EventSignedIn, UserID: sess.UserID})
	marker.SetSuccess(true)
	s.logger.Auth().Info("Sign-up succeeded", "userId", sess.UserID)
	return sess, nil
}

// SignOut revokes the session with the provider and always clears local
// state: a sign-out that fails on the wire still signs the user out here.
// Sign-out gets a short timeout and no timeout retries.
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	marker := s.perfTracker.StartOperation("auth_sign_out")
	defer marker.Complete()

	record := s.currentRecord(userID)

	var providerErr error
	if record != nil && record.RefreshToken != "" {
		providerErr = resilience.Execute(ctx, s.policy("sign-out", config.SignOutTimeout, false), func(ctx context.Context) error {
			return s.provider.SignOut(ctx, record.RefreshToken)
		}, s.logger)
	}

	s.dropSession(userID)
	s.tokens.Clear(userID)
	s.broadcaster.Publish(userID, messaging.Event{Type: messaging.EventSignedOut, UserID: userID})

	if providerErr != nil {
		marker.SetError(providerErr)
		s.logger.Auth().Warn("Provider sign-out failed, local state cleared anyway", "userId", userID, "error", providerErr.Error())
		return identity.Classify(providerErr)
	}
	marker.SetSuccess(true)
	s.logger.Auth().Info("Signed out", "userId", userID)
	return nil
}

// Refresh exchanges the refresh token for a new session. On success the
// managed session is reinstalled and its deduplicator reset, since any
// cached session query result predates the new token. A failure that is not
// worth retrying loses the session.
func (s *AuthService) Refresh(ctx context.Context, userID string) (*identity.Session, error) {
	marker := s.perfTracker.StartOperation("auth_refresh")
	defer marker.Complete()

	record := s.currentRecord(userID)
	if record == nil || record.RefreshToken == "" {
		marker.SetSuccess(true)
		return nil, identity.Classify(&identity.ProviderError{Code: identity.CodeTokenRevoked, Message: "no refresh token"})
	}

	var sess *identity.Session
	err := resilience.Execute(ctx, s.policy("token-refresh", config.RefreshTimeout, true), func(ctx context.Context) error {
		var err error
		sess, err = s.provider.RefreshToken(ctx, record.RefreshToken)
		return err
	}, s.logger)
	if err != nil {
		marker.SetError(err)
		classified := identity.Classify(err)
		if !classified.Retryable {
			s.logger.Auth().Warn("Refresh failed permanently, session lost", "userId", userID, "category", classified.Category)
			s.dropSession(userID)
			s.tokens.Clear(userID)
			s.broadcaster.Publish(userID, messaging.Event{Type: messaging.EventSessionLost, UserID: userID})
		} else {
			s.logger.Auth().Warn("Refresh failed, will retry on next schedule", "userId", userID, "category", classified.Category)
			s.scheduleRefresh(userID, retryRefreshDelay)
		}
		return nil, classified
	}

	s.installSession(sess)
	s.broadcaster.Publish(sess.UserID, messaging.Event{Type: messaging.EventTokenRefresh, UserID: sess.UserID})
	marker.SetSuccess(true)
	s.logger.Auth().Info("Token refreshed", "userId", sess.UserID)
	return sess, nil
}

// retryRefreshDelay spaces refresh reattempts after a transient failure.
const retryRefreshDelay = 30 * time.Second

// Resolve answers "who is this user signed in as" with the recovery order:
// usable local token record first, then a deduplicated provider session
// query, then signed out (nil, nil).
func (s *AuthService) Resolve(ctx context.Context, userID string) (*identity.Session, error) {
	marker := s.perfTracker.StartOperation("auth_resolve")
	defer marker.Complete()

	now := s.now().UTC()
	record := s.currentRecord(userID)
	if record == nil {
		// Cold start: a persisted record may outlive our in-memory state.
		if stored := s.tokens.Load(userID); stored != nil {
			s.adoptRecord(stored)
			record = stored
		}
	}

	if record != nil && !record.IsExpired(now) {
		if record.NeedsRefresh(now, s.leadTime) {
			// Inside the refresh lead window: refresh before handing out the
			// token. A transient failure falls back to the current token,
			// which is still valid; the 30s reschedule is already armed. A
			// permanent failure has lost the session.
			sess, err := s.Refresh(ctx, userID)
			if err == nil {
				marker.SetSuccess(true)
				return sess, nil
			}
			classified := identity.Classify(err)
			if !classified.Retryable {
				marker.SetError(err)
				return nil, nil
			}
			s.logger.Auth().Warn("Near-expiry refresh failed, serving current token", "userId", userID, "category", classified.Category)
		}
		marker.SetSuccess(true)
		return &identity.Session{
			UserID:       record.UserID,
			Email:        record.Email,
			AccessToken:  record.AccessToken,
			RefreshToken: record.RefreshToken,
			ExpiresAt:    record.ExpiresAt,
		}, nil
	}

	if record == nil {
		marker.SetSuccess(true)
		return nil, nil
	}

	// Expired record: ask the provider, collapsing concurrent callers.
	ms := s.managed(userID)
	sess, err := ms.dedupe.Execute(ctx, func(ctx context.Context) (*identity.Session, error) {
		var out *identity.Session
		err := resilience.Execute(ctx, s.policy("session-query", config.StateChangeTimeout, false), func(ctx context.Context) error {
			var err error
			out, err = s.provider.CurrentSession(ctx, record.AccessToken)
			return err
		}, s.logger)
		return out, err
	})
	if err != nil {
		classified := identity.Classify(err)
		if classified.Retryable {
			marker.SetError(err)
			return nil, classified
		}
		// The provider no longer recognizes the session: signed out.
		s.dropSession(userID)
		s.tokens.Clear(userID)
		s.broadcaster.Publish(userID, messaging.Event{Type: messaging.EventSessionLost, UserID: userID})
		marker.SetSuccess(true)
		return nil, nil
	}

	marker.SetSuccess(true)
	return sess, nil
}

// BreakerState exposes the shared breaker for health reporting.
func (s *AuthService) BreakerState() resilience.BreakerState {
	return s.breaker.State()
}

// Close stops all refresh timers.
func (s *AuthService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ms := range s.sessions {
		if ms.refreshTimer != nil {
			ms.refreshTimer.Stop()
		}
	}
	s.sessions = make(map[string]*managedSession)
}

// installSession records a fresh provider session: persists the token
// record, resets the session-query deduplicator, and schedules the next
// proactive refresh ahead of expiry.
func (s *AuthService) installSession(sess *identity.Session) {
	record := &session.TokenRecord{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
		UserID:       sess.UserID,
		Email:        sess.Email,
		LastRefresh:  s.now().UTC(),
	}

	ms := s.managed(sess.UserID)
	s.mu.Lock()
	ms.record = record
	ms.dedupe.Reset()
	s.mu.Unlock()

	s.tokens.Save(sess.UserID, record)
	s.scheduleRefresh(sess.UserID, record.RefreshDelay(s.now().UTC(), s.leadTime))
}

// adoptRecord installs a record loaded from disk without touching the
// provider.
func (s *AuthService) adoptRecord(record *session.TokenRecord) {
	ms := s.managed(record.UserID)
	s.mu.Lock()
	ms.record = record
	s.mu.Unlock()
	s.scheduleRefresh(record.UserID, record.RefreshDelay(s.now().UTC(), s.leadTime))
}

func (s *AuthService) managed(userID string) *managedSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[userID]
	if !ok {
		ms = &managedSession{
			dedupe: resilience.NewDeduplicator[*identity.Session](resilience.DefaultDedupeConfig()),
		}
		s.sessions[userID] = ms
	}
	return ms
}

func (s *AuthService) currentRecord(userID string) *session.TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, ok := s.sessions[userID]; ok {
		return ms.record
	}
	return nil
}

func (s *AuthService) dropSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, ok := s.sessions[userID]; ok {
		if ms.refreshTimer != nil {
			ms.refreshTimer.Stop()
		}
		delete(s.sessions, userID)
	}
}

// scheduleRefresh arms (or re-arms) the proactive refresh timer.
func (s *AuthService) scheduleRefresh(userID string, delay time.Duration) {
	ms := s.managed(userID)

	s.mu.Lock()
	if ms.refreshTimer != nil {
		ms.refreshTimer.Stop()
	}
	ms.refreshTimer = s.afterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.RefreshTimeout+time.Second)
		defer cancel()
		if _, err := s.Refresh(ctx, userID); err != nil {
			s.logger.Auth().Debug("Scheduled refresh did not complete", "userId", userID, "error", err.Error())
		}
	})
	s.mu.Unlock()

	s.logger.Auth().Debug("Refresh scheduled", "userId", userID, "delay", delay)
}

// SetClock overrides wall-clock time for tests.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }

// SetTimerFactory overrides refresh timer creation for tests.
func (s *AuthService) SetTimerFactory(fn func(time.Duration, func()) *time.Timer) { s.afterFunc = fn }
