package session

import "time"

// TokenRecord is the persisted authenticated-session state. A scheduled
// refresh always fires RefreshLeadTime before ExpiresAt; if that check fails
// at retrieval time a synchronous refresh runs before the token is returned.
type TokenRecord struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
	Email        string    `json:"email,omitempty"`
	LastRefresh  time.Time `json:"lastRefresh"`
}

// IsExpired reports whether the token is past its expiry
func (t *TokenRecord) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// NeedsRefresh reports whether the token is within the refresh lead window
// of its expiry (or already expired).
func (t *TokenRecord) NeedsRefresh(now time.Time, leadTime time.Duration) bool {
	return !now.Add(leadTime).Before(t.ExpiresAt)
}

// RefreshDelay returns how long to wait before the scheduled refresh should
// fire: ExpiresAt - now - leadTime, clamped at zero for immediate refresh.
func (t *TokenRecord) RefreshDelay(now time.Time, leadTime time.Duration) time.Duration {
	delay := t.ExpiresAt.Sub(now) - leadTime
	if delay < 0 {
		return 0
	}
	return delay
}
