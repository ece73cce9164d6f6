package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvider talks to an external identity service over JSON/HTTP. The
// wire shape follows the common identity-toolkit convention: a path per
// operation, bearer auth for session lookups, and an error object carrying
// a provider code string.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		// Per-operation deadlines come from the caller's context; this is
		// only a hard upper bound against a hung transport.
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type wireSession struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type wireError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return p.sessionCall(ctx, "/v1/accounts:signIn", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (p *HTTPProvider) SignUp(ctx context.Context, params SignUpParams) (*Session, error) {
	return p.sessionCall(ctx, "/v1/accounts:signUp", map[string]string{
		"email":    params.Email,
		"password": params.Password,
		"name":     params.Name,
	})
}

func (p *HTTPProvider) SignOut(ctx context.Context, refreshToken string) error {
	_, err := p.post(ctx, "/v1/accounts:signOut", map[string]string{
		"refreshToken": refreshToken,
	}, "")
	return err
}

func (p *HTTPProvider) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	return p.sessionCall(ctx, "/v1/token:refresh", map[string]string{
		"refreshToken": refreshToken,
	})
}

func (p *HTTPProvider) CurrentSession(ctx context.Context, accessToken string) (*Session, error) {
	body, err := p.post(ctx, "/v1/accounts:lookup", map[string]string{}, accessToken)
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

func (p *HTTPProvider) sessionCall(ctx context.Context, path string, payload map[string]string) (*Session, error) {
	body, err := p.post(ctx, path, payload, "")
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

func (p *HTTPProvider) post(ctx context.Context, path string, payload map[string]string, bearer string) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var we wireError
		if json.Unmarshal(body, &we) == nil && we.Error.Code != "" {
			return nil, &ProviderError{Code: we.Error.Code, Message: we.Error.Message}
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, &ProviderError{Code: CodeTooManyRequests}
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, &ProviderError{Code: CodeInternalError, Message: fmt.Sprintf("status %d", resp.StatusCode)}
		default:
			return nil, fmt.Errorf("identity service returned status %d", resp.StatusCode)
		}
	}
	return body, nil
}

func decodeSession(body []byte) (*Session, error) {
	var ws wireSession
	if err := json.Unmarshal(body, &ws); err != nil {
		return nil, fmt.Errorf("decoding identity response: %w", err)
	}
	return &Session{
		UserID:       ws.UserID,
		Email:        ws.Email,
		Name:         ws.Name,
		AccessToken:  ws.AccessToken,
		RefreshToken: ws.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(ws.ExpiresIn) * time.Second),
	}, nil
}
