package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/identity"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/messaging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/tokenstore"
)

// errProviderRejected classifies as unknown and non-retryable, so failure
// paths complete without backoff sleeps.
var errProviderRejected = errors.New("provider rejected the request")

// fakeProvider scripts per-operation outcomes.
type fakeProvider struct {
	mu           sync.Mutex
	signInErr    error
	refreshErr   error
	signOutErr   error
	currentErr   error
	signInCalls  int
	refreshCalls int
	signOutCalls int
	expiresIn    time.Duration
}

func (p *fakeProvider) session(suffix string) *identity.Session {
	expiry := p.expiresIn
	if expiry == 0 {
		expiry = time.Hour
	}
	return &identity.Session{
		UserID:       "user-1",
		Email:        "ada@example.com",
		AccessToken:  "access-" + suffix,
		RefreshToken: "refresh-" + suffix,
		ExpiresAt:    time.Now().UTC().Add(expiry),
	}
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signInCalls++
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	return p.session("signin"), nil
}

func (p *fakeProvider) SignUp(ctx context.Context, params identity.SignUpParams) (*identity.Session, error) {
	return p.session("signup"), nil
}

func (p *fakeProvider) SignOut(ctx context.Context, refreshToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOutCalls++
	return p.signOutErr
}

func (p *fakeProvider) RefreshToken(ctx context.Context, refreshToken string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshCalls++
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.session("refreshed"), nil
}

func (p *fakeProvider) CurrentSession(ctx context.Context, accessToken string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentErr != nil {
		return nil, p.currentErr
	}
	return p.session("current"), nil
}

// inertTimer swallows AfterFunc so tests control refresh explicitly.
func inertTimer(d time.Duration, fn func()) *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func newAuthFixture(t *testing.T, provider *fakeProvider) (*AuthService, *messaging.EventBroadcaster) {
	t.Helper()
	logger := logging.NewTestLogger()
	tokens, err := tokenstore.New(t.TempDir(), "", logger)
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	broadcaster := messaging.NewEventBroadcaster(3, logger)
	svc := NewAuthService(provider, tokens, broadcaster, logger, performance.NewTracker(nil))
	svc.SetTimerFactory(inertTimer)
	t.Cleanup(svc.Close)
	return svc, broadcaster
}

func drainEvents(ch chan messaging.Event) []messaging.Event {
	var events []messaging.Event
	for {
		select {
		case e := <-ch:
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestSignInInstallsSession(t *testing.T) {
	provider := &fakeProvider{}
	svc, broadcaster := newAuthFixture(t, provider)

	ch, _ := broadcaster.Subscribe("user-1")
	defer broadcaster.Unsubscribe("user-1", ch)

	sess, err := svc.SignIn(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.UserID != "user-1" {
		t.Fatalf("user = %s", sess.UserID)
	}

	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved == nil || resolved.AccessToken != "access-signin" {
		t.Fatalf("resolved = %+v", resolved)
	}

	events := drainEvents(ch)
	if len(events) != 1 || events[0].Type != messaging.EventSignedIn {
		t.Fatalf("events = %+v", events)
	}
}

func TestSignInFailureClassified(t *testing.T) {
	provider := &fakeProvider{signInErr: &identity.ProviderError{Code: identity.CodeWrongPassword}}
	svc, _ := newAuthFixture(t, provider)

	_, err := svc.SignIn(context.Background(), "ada@example.com", "nope")
	if err == nil {
		t.Fatal("expected error")
	}
	classified := identity.Classify(err)
	if classified.Category != identity.CategoryInvalidCredentials {
		t.Fatalf("category = %s", classified.Category)
	}
	// Invalid credentials are terminal, not retried.
	if provider.signInCalls != 1 {
		t.Fatalf("sign-in calls = %d, want 1", provider.signInCalls)
	}
}

func TestSignOutClearsLocalStateDespiteProviderFailure(t *testing.T) {
	provider := &fakeProvider{}
	svc, broadcaster := newAuthFixture(t, provider)

	if _, err := svc.SignIn(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	ch, _ := broadcaster.Subscribe("user-1")
	defer broadcaster.Unsubscribe("user-1", ch)

	provider.signOutErr = errProviderRejected
	err := svc.SignOut(context.Background(), "user-1")
	if err == nil {
		t.Fatal("provider failure should surface")
	}

	// Local state is gone regardless.
	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != nil {
		t.Fatalf("still signed in: %+v", resolved)
	}

	events := drainEvents(ch)
	if len(events) == 0 || events[0].Type != messaging.EventSignedOut {
		t.Fatalf("events = %+v", events)
	}
}

func TestRefreshReinstallsSession(t *testing.T) {
	provider := &fakeProvider{}
	svc, broadcaster := newAuthFixture(t, provider)

	if _, err := svc.SignIn(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	ch, _ := broadcaster.Subscribe("user-1")
	defer broadcaster.Unsubscribe("user-1", ch)

	sess, err := svc.Refresh(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sess.AccessToken != "access-refreshed" {
		t.Fatalf("token = %s", sess.AccessToken)
	}

	events := drainEvents(ch)
	if len(events) != 1 || events[0].Type != messaging.EventTokenRefresh {
		t.Fatalf("events = %+v", events)
	}
}

func TestPermanentRefreshFailureLosesSession(t *testing.T) {
	provider := &fakeProvider{}
	svc, broadcaster := newAuthFixture(t, provider)

	if _, err := svc.SignIn(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	ch, _ := broadcaster.Subscribe("user-1")
	defer broadcaster.Unsubscribe("user-1", ch)

	provider.refreshErr = &identity.ProviderError{Code: identity.CodeTokenRevoked}
	if _, err := svc.Refresh(context.Background(), "user-1"); err == nil {
		t.Fatal("expected refresh failure")
	}

	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != nil {
		t.Fatal("revoked session must be dropped")
	}

	events := drainEvents(ch)
	if len(events) == 0 || events[0].Type != messaging.EventSessionLost {
		t.Fatalf("events = %+v", events)
	}
}

func TestResolveRecoversPersistedRecord(t *testing.T) {
	logger := logging.NewTestLogger()
	dir := t.TempDir()
	tokens, err := tokenstore.New(dir, "", logger)
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	tokens.Save("user-1", &session.TokenRecord{
		AccessToken:  "access-stored",
		RefreshToken: "refresh-stored",
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
		UserID:       "user-1",
		Email:        "ada@example.com",
	})

	provider := &fakeProvider{}
	broadcaster := messaging.NewEventBroadcaster(3, logger)
	svc := NewAuthService(provider, tokens, broadcaster, logger, performance.NewTracker(nil))
	svc.SetTimerFactory(inertTimer)
	defer svc.Close()

	// A cold Resolve finds the persisted record without touching the provider.
	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved == nil || resolved.AccessToken != "access-stored" {
		t.Fatalf("resolved = %+v", resolved)
	}
}

func TestResolveNearExpiryRefreshesBeforeReturning(t *testing.T) {
	logger := logging.NewTestLogger()
	tokens, err := tokenstore.New(t.TempDir(), "", logger)
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	// Still valid, but inside the refresh lead window.
	tokens.Save("user-1", &session.TokenRecord{
		AccessToken:  "access-near",
		RefreshToken: "refresh-near",
		ExpiresAt:    time.Now().UTC().Add(2 * time.Minute),
		UserID:       "user-1",
	})

	provider := &fakeProvider{}
	broadcaster := messaging.NewEventBroadcaster(3, logger)
	svc := NewAuthService(provider, tokens, broadcaster, logger, performance.NewTracker(nil))
	svc.SetTimerFactory(inertTimer)
	defer svc.Close()

	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved == nil || resolved.AccessToken != "access-refreshed" {
		t.Fatalf("resolved = %+v, want refreshed token", resolved)
	}
	if provider.refreshCalls != 1 {
		t.Fatalf("refresh calls = %d, want 1", provider.refreshCalls)
	}
}

func TestResolveNearExpiryExhaustedRetriesServeCurrentToken(t *testing.T) {
	logger := logging.NewTestLogger()
	tokens, err := tokenstore.New(t.TempDir(), "", logger)
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	tokens.Save("user-1", &session.TokenRecord{
		AccessToken:  "access-near",
		RefreshToken: "refresh-near",
		ExpiresAt:    time.Now().UTC().Add(2 * time.Minute),
		UserID:       "user-1",
	})

	provider := &fakeProvider{refreshErr: &identity.ProviderError{Code: identity.CodeInternalError}}
	broadcaster := messaging.NewEventBroadcaster(3, logger)
	svc := NewAuthService(provider, tokens, broadcaster, logger, performance.NewTracker(nil))
	svc.SetTimerFactory(inertTimer)
	defer svc.Close()

	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// The current token is still valid, so a transient refresh failure must
	// not cost the caller their session.
	if resolved == nil || resolved.AccessToken != "access-near" {
		t.Fatalf("resolved = %+v, want current token", resolved)
	}
	if provider.refreshCalls != 4 { // initial try + 3 retries
		t.Fatalf("refresh calls = %d, want 4", provider.refreshCalls)
	}
}

func TestResolveNearExpiryRevokedRefreshLosesSession(t *testing.T) {
	logger := logging.NewTestLogger()
	tokens, err := tokenstore.New(t.TempDir(), "", logger)
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	tokens.Save("user-1", &session.TokenRecord{
		AccessToken:  "access-near",
		RefreshToken: "refresh-near",
		ExpiresAt:    time.Now().UTC().Add(2 * time.Minute),
		UserID:       "user-1",
	})

	provider := &fakeProvider{refreshErr: &identity.ProviderError{Code: identity.CodeTokenRevoked}}
	broadcaster := messaging.NewEventBroadcaster(3, logger)
	svc := NewAuthService(provider, tokens, broadcaster, logger, performance.NewTracker(nil))
	svc.SetTimerFactory(inertTimer)
	defer svc.Close()

	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != nil {
		t.Fatalf("revoked refresh must resolve to signed out, got %+v", resolved)
	}
	if rec := tokens.Load("user-1"); rec != nil {
		t.Fatal("record must be cleared")
	}
}

func TestResolveExpiredRecordFallsBackToProvider(t *testing.T) {
	logger := logging.NewTestLogger()
	tokens, err := tokenstore.New(t.TempDir(), "", logger)
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	tokens.Save("user-1", &session.TokenRecord{
		AccessToken:  "access-stale",
		RefreshToken: "refresh-stale",
		ExpiresAt:    time.Now().UTC().Add(-time.Minute),
		UserID:       "user-1",
	})

	provider := &fakeProvider{}
	broadcaster := messaging.NewEventBroadcaster(3, logger)
	svc := NewAuthService(provider, tokens, broadcaster, logger, performance.NewTracker(nil))
	svc.SetTimerFactory(inertTimer)
	defer svc.Close()

	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved == nil || resolved.AccessToken != "access-current" {
		t.Fatalf("resolved = %+v", resolved)
	}
}

func TestResolveExpiredRecordRejectedByProviderSignsOut(t *testing.T) {
	logger := logging.NewTestLogger()
	tokens, err := tokenstore.New(t.TempDir(), "", logger)
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	tokens.Save("user-1", &session.TokenRecord{
		AccessToken: "access-stale",
		ExpiresAt:   time.Now().UTC().Add(-time.Minute),
		UserID:      "user-1",
	})

	provider := &fakeProvider{currentErr: &identity.ProviderError{Code: identity.CodeTokenExpired}}
	broadcaster := messaging.NewEventBroadcaster(3, logger)
	svc := NewAuthService(provider, tokens, broadcaster, logger, performance.NewTracker(nil))
	svc.SetTimerFactory(inertTimer)
	defer svc.Close()

	resolved, err := svc.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != nil {
		t.Fatal("rejected session must resolve to signed out")
	}
	if rec := tokens.Load("user-1"); rec != nil {
		t.Fatal("stale record must be cleared")
	}
}

func TestResolveUnknownUserSignedOut(t *testing.T) {
	svc, _ := newAuthFixture(t, &fakeProvider{})

	resolved, err := svc.Resolve(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != nil {
		t.Fatalf("resolved = %+v", resolved)
	}
}
