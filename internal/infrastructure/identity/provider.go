package identity

import (
	"context"
	"time"
)

// Session is the authenticated session a provider hands back on success.
type Session struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SignUpParams carries the fields needed to register a new account.
type SignUpParams struct {
	Email    string
	Password string
	Name     string
}

// Provider is the identity backend. Implementations return *ProviderError
// (or any error Classify understands) on failure; callers wrap every call
// in the resilience layer, so implementations stay simple and blocking.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, params SignUpParams) (*Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*Session, error)
	CurrentSession(ctx context.Context, accessToken string) (*Session, error)
}
