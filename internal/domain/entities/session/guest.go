// Package session provides domain entities for anonymous preview sessions
// and persisted token state.
package session

import (
	"time"
)

// ConversionTracking accumulates funnel metadata for an anonymous session
type ConversionTracking struct {
	LandingPage string `json:"landingPage"`
	TimeOnSite  int64  `json:"timeOnSite"` // seconds since first visit
	TermsViewed int    `json:"termsViewed"`
	CtaClicks   int    `json:"ctaClicks"`
}

// GuestSession tracks an anonymous device's preview allowance. ViewedTerms is
// ordered by first view; membership dedupes counting, so PreviewsUsed always
// equals the number of distinct terms recorded and never decrements.
type GuestSession struct {
	SessionID          string             `json:"sessionId"`
	PreviewsUsed       int                `json:"previewsUsed"`
	PreviewsLimit      int                `json:"previewsLimit"`
	ViewedTerms        []string           `json:"viewedTerms"`
	FirstVisit         time.Time          `json:"firstVisit"`
	LastActivity       time.Time          `json:"lastActivity"`
	ConversionTracking ConversionTracking `json:"conversionTracking"`
}

// NewGuestSession creates a fresh session with no previews used
func NewGuestSession(sessionID string, previewsLimit int, now time.Time) *GuestSession {
	return &GuestSession{
		SessionID:     sessionID,
		PreviewsUsed:  0,
		PreviewsLimit: previewsLimit,
		ViewedTerms:   make([]string, 0, previewsLimit),
		FirstVisit:    now,
		LastActivity:  now,
	}
}

// IsExpired reports whether the session is older than maxAge
func (gs *GuestSession) IsExpired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(gs.FirstVisit) > maxAge
}

// HasViewed reports whether the term was already recorded in this session
func (gs *GuestSession) HasViewed(termID string) bool {
	for _, id := range gs.ViewedTerms {
		if id == termID {
			return true
		}
	}
	return false
}

// RecordPreview adds termID to the viewed set. Re-viewing an already-recorded
// term is a no-op; it returns false and leaves all counters unchanged.
func (gs *GuestSession) RecordPreview(termID string, now time.Time) bool {
	if gs.HasViewed(termID) {
		gs.LastActivity = now
		return false
	}

	gs.ViewedTerms = append(gs.ViewedTerms, termID)
	gs.PreviewsUsed++
	gs.ConversionTracking.TermsViewed++
	gs.LastActivity = now
	gs.ConversionTracking.TimeOnSite = int64(now.Sub(gs.FirstVisit) / time.Second)
	return true
}

// RecordCta counts an upsell call-to-action click
func (gs *GuestSession) RecordCta(now time.Time) {
	gs.ConversionTracking.CtaClicks++
	gs.LastActivity = now
}

// CanPreview reports whether a new, not-yet-viewed term may be previewed
func (gs *GuestSession) CanPreview() bool {
	return gs.PreviewsUsed < gs.PreviewsLimit
}

// Remaining returns the preview allowance left, clamped at zero
func (gs *GuestSession) Remaining() int {
	remaining := gs.PreviewsLimit - gs.PreviewsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
