package stores

import (
	"testing"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

func TestGuestSessionRoundTrip(t *testing.T) {
	ss := NewSessionsStore(logging.NewTestLogger())
	now := time.Now().UTC()

	sess := session.NewGuestSession("guest-1", 2, now)
	ss.SetGuestSession(sess)

	got, found := ss.GetGuestSession("guest-1")
	if !found {
		t.Fatal("expected session hit")
	}
	if got.SessionID != "guest-1" {
		t.Fatalf("SessionID = %s", got.SessionID)
	}

	if _, found := ss.GetGuestSession("guest-2"); found {
		t.Fatal("unexpected hit for unknown session")
	}

	ss.RemoveGuestSession("guest-1")
	if _, found := ss.GetGuestSession("guest-1"); found {
		t.Fatal("session must be gone after remove")
	}
}

func TestSweepExpiredGuests(t *testing.T) {
	ss := NewSessionsStore(logging.NewTestLogger())
	now := time.Now().UTC()

	fresh := session.NewGuestSession("fresh", 2, now)
	stale := session.NewGuestSession("stale", 2, now.Add(-25*time.Hour))
	ss.SetGuestSession(fresh)
	ss.SetGuestSession(stale)

	removed := ss.SweepExpiredGuests(now, 24*time.Hour)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, found := ss.GetGuestSession("stale"); found {
		t.Fatal("stale session must be evicted")
	}
	if _, found := ss.GetGuestSession("fresh"); !found {
		t.Fatal("fresh session must survive")
	}
	if ss.GuestSessionCount() != 1 {
		t.Fatalf("count = %d, want 1", ss.GuestSessionCount())
	}
}
