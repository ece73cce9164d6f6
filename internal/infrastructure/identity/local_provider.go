package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/user"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/security"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider authenticates against the service's own user store with
// bcrypt password hashes and mints HS256 session tokens. It is the default
// backend when no external identity service is configured.
type LocalProvider struct {
	users         user.Repository
	jwtSecret     string
	tokenLifetime time.Duration

	mu      sync.Mutex
	refresh map[string]string // refresh token -> user ID
	now     func() time.Time
}

func NewLocalProvider(users user.Repository, jwtSecret string, tokenLifetime time.Duration) *LocalProvider {
	return &LocalProvider{
		users:         users,
		jwtSecret:     jwtSecret,
		tokenLifetime: tokenLifetime,
		refresh:       make(map[string]string),
		now:           time.Now,
	}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := p.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &ProviderError{Code: CodeUserNotFound, Message: "no account for email"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, &ProviderError{Code: CodeWrongPassword, Message: "password mismatch"}
	}
	return p.mintSession(u)
}

func (p *LocalProvider) SignUp(ctx context.Context, params SignUpParams) (*Session, error) {
	existing, err := p.users.FindByEmail(params.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ProviderError{Code: CodeEmailInUse, Message: "email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           security.GenerateULID(),
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: string(hash),
		Tier:         access.TierFree,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.users.Store(u); err != nil {
		return nil, err
	}
	return p.mintSession(u)
}

func (p *LocalProvider) SignOut(ctx context.Context, refreshToken string) error {
	p.mu.Lock()
	delete(p.refresh, refreshToken)
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	p.mu.Lock()
	userID, ok := p.refresh[refreshToken]
	if ok {
		// Refresh tokens rotate on use
		delete(p.refresh, refreshToken)
	}
	p.mu.Unlock()
	if !ok {
		return nil, &ProviderError{Code: CodeTokenRevoked, Message: "unknown refresh token"}
	}

	u, err := p.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &ProviderError{Code: CodeUserNotFound, Message: "user no longer exists"}
	}
	return p.mintSession(u)
}

func (p *LocalProvider) CurrentSession(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := security.ValidateJWT(accessToken, p.jwtSecret)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &ProviderError{Code: CodeTokenExpired, Message: err.Error()}
	}
	sc := security.SessionClaimsFrom(claims)
	if sc == nil {
		return nil, &ProviderError{Code: CodeTokenExpired, Message: "missing subject claim"}
	}

	exp := time.Time{}
	if expVal, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(expVal), 0).UTC()
	}
	return &Session{
		UserID:      sc.UserID,
		Email:       sc.Email,
		Name:        sc.Name,
		AccessToken: accessToken,
		ExpiresAt:   exp,
	}, nil
}

func (p *LocalProvider) mintSession(u *user.User) (*Session, error) {
	tier := string(u.Tier)
	token, expiresAt, err := security.GenerateSessionToken(&security.SessionClaims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Tier:   tier,
	}, p.jwtSecret, p.tokenLifetime)
	if err != nil {
		return nil, err
	}

	refreshToken, err := security.GenerateSecureToken(32)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.refresh[refreshToken] = u.ID
	p.mu.Unlock()

	return &Session{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AccessToken:  token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// SetClock overrides wall-clock time for tests.
func (p *LocalProvider) SetClock(now func() time.Time) { p.now = now }
