// Package access provides domain entities for entitlement decisions: the
// server-derived access status snapshot and the allow/deny decision returned
// to consumers of the gating engine.
package access

import "time"

// Tier identifies a subscription tier
type Tier string

const (
	TierFree     Tier = "free"
	TierLifetime Tier = "lifetime"
)

// Status is the per-user entitlement snapshot. It is derived from server
// state on fetch and never mutated locally; a view-consuming action triggers
// a refetch instead.
type Status struct {
	HasAccess        bool       `json:"hasAccess"`
	SubscriptionTier Tier       `json:"subscriptionTier"`
	LifetimeAccess   bool       `json:"lifetimeAccess"`
	DailyViews       int        `json:"dailyViews"`
	DailyLimit       int        `json:"dailyLimit"`
	RemainingViews   int        `json:"remainingViews"`
	DaysUntilReset   int        `json:"daysUntilReset"`
	PurchaseDate     *time.Time `json:"purchaseDate,omitempty"`
}

// RemainingOf clamps the remaining daily views at zero
func RemainingOf(dailyViews, dailyLimit int) int {
	remaining := dailyLimit - dailyViews
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NewStatus builds a status snapshot with RemainingViews derived from the
// view count and limit.
func NewStatus(tier Tier, lifetime bool, dailyViews, dailyLimit, daysUntilReset int, purchaseDate *time.Time) *Status {
	return &Status{
		HasAccess:        true,
		SubscriptionTier: tier,
		LifetimeAccess:   lifetime,
		DailyViews:       dailyViews,
		DailyLimit:       dailyLimit,
		RemainingViews:   RemainingOf(dailyViews, dailyLimit),
		DaysUntilReset:   daysUntilReset,
		PurchaseDate:     purchaseDate,
	}
}

// CanViewNewTerm reports whether a term not yet counted today may be viewed.
// Lifetime access never consults the remaining-view counter.
func (s *Status) CanViewNewTerm() bool {
	if !s.HasAccess {
		return false
	}
	if s.LifetimeAccess {
		return true
	}
	return s.RemainingViews > 0
}

// Reason explains an allow/deny decision
type Reason string

const (
	ReasonLifetime      Reason = "lifetime_access"
	ReasonWithinQuota   Reason = "within_quota"
	ReasonAlreadyViewed Reason = "already_viewed"
	ReasonQuotaExceeded Reason = "daily_limit_reached"
	ReasonPreviewOK     Reason = "guest_preview"
	ReasonPreviewLimit  Reason = "guest_preview_limit"
	ReasonNoAccess      Reason = "no_access"
)

// Decision is the outcome of a gating check. Denial is a normal value, not
// an error; failure to determine entitlement surfaces as an error alongside
// a fail-closed Decision.
type Decision struct {
	Allowed        bool   `json:"allowed"`
	Reason         Reason `json:"reason"`
	RemainingViews int    `json:"remainingViews"`
	IsGuest        bool   `json:"isGuest"`
}

// Denied returns a fail-closed decision with the given reason
func Denied(reason Reason, remaining int, isGuest bool) Decision {
	return Decision{Allowed: false, Reason: reason, RemainingViews: remaining, IsGuest: isGuest}
}

// Allowed returns a positive decision with the given reason
func Allow(reason Reason, remaining int, isGuest bool) Decision {
	return Decision{Allowed: true, Reason: reason, RemainingViews: remaining, IsGuest: isGuest}
}
