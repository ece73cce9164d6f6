package services

import (
	"testing"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/manager"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
)

func newGuestService(t *testing.T) (*GuestService, *time.Time) {
	t.Helper()
	logger := logging.NewTestLogger()
	svc := NewGuestService(manager.NewManager(logger), logger, performance.NewTracker(nil))

	current := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return current })
	return svc, &current
}

func TestGuestPreviewFlow(t *testing.T) {
	svc, _ := newGuestService(t)

	sess := svc.GetOrCreate("")
	if sess.SessionID == "" {
		t.Fatal("new session must get an ID")
	}
	if sess.Remaining() != 2 {
		t.Fatalf("remaining = %d, want 2", sess.Remaining())
	}

	// First term consumes a slot.
	decision, _ := svc.CanPreviewTerm(sess.SessionID, "term-1")
	if !decision.Allowed || !decision.IsGuest {
		t.Fatalf("decision = %+v", decision)
	}
	sess = svc.RecordPreview(sess.SessionID, "term-1")
	if sess.PreviewsUsed != 1 {
		t.Fatalf("previews used = %d, want 1", sess.PreviewsUsed)
	}

	// Second term consumes the last slot.
	svc.RecordPreview(sess.SessionID, "term-2")

	// Third term is denied.
	decision, _ = svc.CanPreviewTerm(sess.SessionID, "term-3")
	if decision.Allowed {
		t.Fatal("third new term must be denied")
	}
	if decision.Reason != access.ReasonPreviewLimit {
		t.Fatalf("reason = %s", decision.Reason)
	}

	// Re-reading an already previewed term stays free.
	decision, _ = svc.CanPreviewTerm(sess.SessionID, "term-1")
	if !decision.Allowed || decision.Reason != access.ReasonPreviewOK {
		t.Fatalf("re-read decision = %+v", decision)
	}
}

func TestGuestPreviewIdempotentPerTerm(t *testing.T) {
	svc, _ := newGuestService(t)

	sess := svc.GetOrCreate("")
	svc.RecordPreview(sess.SessionID, "term-1")
	sess = svc.RecordPreview(sess.SessionID, "term-1")

	if sess.PreviewsUsed != 1 {
		t.Fatalf("previews used = %d after repeat record, want 1", sess.PreviewsUsed)
	}
	if sess.Remaining() != 1 {
		t.Fatalf("remaining = %d, want 1", sess.Remaining())
	}
}

func TestGuestSessionExpiryStartsFresh(t *testing.T) {
	svc, clock := newGuestService(t)

	sess := svc.GetOrCreate("")
	svc.RecordPreview(sess.SessionID, "term-1")
	svc.RecordPreview(sess.SessionID, "term-2")

	// Past the 24 hour window the old session is unrecoverable.
	*clock = clock.Add(25 * time.Hour)

	renewed := svc.GetOrCreate(sess.SessionID)
	if renewed.SessionID == sess.SessionID {
		t.Fatal("expired session must be replaced, not resumed")
	}
	if renewed.PreviewsUsed != 0 || renewed.Remaining() != 2 {
		t.Fatalf("renewed session = %+v", renewed)
	}
}

func TestGuestResetOnSignIn(t *testing.T) {
	svc, _ := newGuestService(t)

	sess := svc.GetOrCreate("")
	svc.RecordPreview(sess.SessionID, "term-1")

	svc.Reset(sess.SessionID)

	fresh := svc.GetOrCreate(sess.SessionID)
	if fresh.SessionID == sess.SessionID {
		t.Fatal("reset must discard the session")
	}
}

func TestGuestSweepExpired(t *testing.T) {
	svc, clock := newGuestService(t)

	old := svc.GetOrCreate("")
	*clock = clock.Add(25 * time.Hour)
	fresh := svc.GetOrCreate("")

	// Sweep uses wall-clock age; only the session last touched 25h ago goes.
	removed := svc.SweepExpired()
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if got := svc.GetOrCreate(old.SessionID); got.SessionID == old.SessionID {
		t.Fatal("old session must be swept")
	}
	if got := svc.GetOrCreate(fresh.SessionID); got.SessionID != fresh.SessionID {
		t.Fatal("fresh session must survive sweep")
	}
}
