package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/user"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/manager"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/messaging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
)

type memUserRepo struct {
	users map[string]*user.User
	err   error
}

func (r *memUserRepo) FindByID(id string) (*user.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.users[id], nil
}

func (r *memUserRepo) FindByEmail(email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Store(u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GrantLifetime(userID, saleRef string, purchasedAt time.Time) error {
	if u, ok := r.users[userID]; ok {
		u.Tier = access.TierLifetime
		u.LifetimeAccess = true
		u.PurchaseDate = &purchasedAt
	}
	return nil
}

type memViewRepo struct {
	views map[string]bool // "user|term|day"
}

func newMemViewRepo() *memViewRepo { return &memViewRepo{views: map[string]bool{}} }

func viewKey(userID, termID, day string) string {
	return fmt.Sprintf("%s|%s|%s", userID, termID, day)
}

func (r *memViewRepo) CountForDay(userID, day string) (int, error) {
	var count int
	for key := range r.views {
		if strings.HasPrefix(key, userID+"|") && strings.HasSuffix(key, "|"+day) {
			count++
		}
	}
	return count, nil
}

func (r *memViewRepo) HasViewed(userID, termID, day string) (bool, error) {
	return r.views[viewKey(userID, termID, day)], nil
}

func (r *memViewRepo) Record(userID, termID, day string) error {
	r.views[viewKey(userID, termID, day)] = true
	return nil
}

func (r *memViewRepo) PurgeBefore(day string) (int64, error) {
	var removed int64
	for key := range r.views {
		if key[strings.LastIndex(key, "|")+1:] < day {
			delete(r.views, key)
			removed++
		}
	}
	return removed, nil
}

func newAccessFixture(t *testing.T) (*AccessService, *memUserRepo, *memViewRepo) {
	t.Helper()
	logger := logging.NewTestLogger()
	users := &memUserRepo{users: map[string]*user.User{
		"free-1": {ID: "free-1", Email: "free@example.com", Tier: access.TierFree},
		"life-1": {ID: "life-1", Email: "life@example.com", Tier: access.TierLifetime, LifetimeAccess: true},
	}}
	views := newMemViewRepo()
	svc := NewAccessService(users, views, manager.NewManager(logger),
		messaging.NewEventBroadcaster(3, logger), logger, performance.NewTracker(nil))
	svc.SetClock(func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) })
	return svc, users, views
}

func TestLifetimeBypassesQuota(t *testing.T) {
	svc, _, views := newAccessFixture(t)
	day := "2026-04-01"

	for i := 0; i < 60; i++ {
		views.Record("life-1", fmt.Sprintf("term-%d", i), day)
	}

	decision, err := svc.CanViewTerm("life-1", "term-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed || decision.Reason != access.ReasonLifetime {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestFreeUserWithinQuota(t *testing.T) {
	svc, _, _ := newAccessFixture(t)

	decision, err := svc.CanViewTerm("free-1", "term-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed || decision.Reason != access.ReasonWithinQuota {
		t.Fatalf("decision = %+v", decision)
	}
	if decision.RemainingViews != 50 {
		t.Fatalf("remaining = %d, want 50", decision.RemainingViews)
	}

	if err := svc.RecordView("free-1", "term-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	status, err := svc.GetStatus("free-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DailyViews != 1 || status.RemainingViews != 49 {
		t.Fatalf("status = %+v", status)
	}
}

func TestFreeUserAtLimit(t *testing.T) {
	svc, _, views := newAccessFixture(t)
	day := "2026-04-01"

	for i := 0; i < 50; i++ {
		views.Record("free-1", fmt.Sprintf("term-%d", i), day)
	}

	// A new term is denied once the aggregate counter is exhausted.
	decision, err := svc.CanViewTerm("free-1", "term-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("new term past the limit must be denied")
	}
	if decision.Reason != access.ReasonQuotaExceeded {
		t.Fatalf("reason = %s", decision.Reason)
	}

	// A term unlocked earlier today stays readable.
	decision, err = svc.CanViewTerm("free-1", "term-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed || decision.Reason != access.ReasonAlreadyViewed {
		t.Fatalf("already-viewed decision = %+v", decision)
	}
}

func TestRecordViewIdempotentPerDay(t *testing.T) {
	svc, _, views := newAccessFixture(t)

	svc.RecordView("free-1", "term-1")
	svc.RecordView("free-1", "term-1")

	count, _ := views.CountForDay("free-1", "2026-04-01")
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestEntitlementFailureDeniesClosed(t *testing.T) {
	svc, users, _ := newAccessFixture(t)
	users.err = errors.New("database offline")

	decision, err := svc.CanViewTerm("free-1", "term-1")
	if err == nil {
		t.Fatal("expected the underlying error to surface")
	}
	if decision.Allowed {
		t.Fatal("errors must fail closed")
	}
	if decision.Reason != access.ReasonNoAccess {
		t.Fatalf("reason = %s", decision.Reason)
	}
}

func TestUnknownUserDenied(t *testing.T) {
	svc, _, _ := newAccessFixture(t)

	decision, err := svc.CanViewTerm("ghost", "term-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("unknown user must be denied")
	}
}

func TestGrantLifetimeInvalidatesStatus(t *testing.T) {
	svc, _, _ := newAccessFixture(t)

	// Prime the snapshot cache as a free user.
	if _, err := svc.GetStatus("free-1"); err != nil {
		t.Fatalf("status: %v", err)
	}

	if err := svc.GrantLifetime("free-1", "sale-123"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	status, err := svc.GetStatus("free-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.LifetimeAccess || status.SubscriptionTier != access.TierLifetime {
		t.Fatalf("status after grant = %+v", status)
	}
}
