// Package identity abstracts the identity provider: sign-in/sign-up/sign-out,
// token refresh, current-session lookup, and the mapping of provider-specific
// failures onto a small user-facing error taxonomy.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/resilience"
)

// Category is the user-facing classification of an auth failure
type Category string

const (
	CategoryInvalidCredentials Category = "invalid-credentials"
	CategorySessionExpired     Category = "session-expired"
	CategoryPermissionDenied   Category = "permission-denied"
	CategoryRateLimited        Category = "rate-limited"
	CategoryNetworkUnavailable Category = "network-unavailable"
	CategoryTimeout            Category = "timeout"
	CategoryServiceUnavailable Category = "service-unavailable"
	CategoryUnknown            Category = "unknown"
)

// AuthError is a classified identity failure carrying a retryable flag and a
// message safe to show to end users.
type AuthError struct {
	Category    Category `json:"category"`
	Retryable   bool     `json:"retryable"`
	UserMessage string   `json:"userMessage"`
	Err         error    `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
	return string(e.Category)
}

func (e *AuthError) Unwrap() error { return e.Err }

// newAuthError builds the taxonomy entry for a category
func newAuthError(category Category, err error) *AuthError {
	ae := &AuthError{Category: category, Err: err}
	switch category {
	case CategoryInvalidCredentials:
		ae.UserMessage = "Invalid email or password."
	case CategorySessionExpired:
		ae.UserMessage = "Your session has expired. Please sign in again."
	case CategoryPermissionDenied:
		ae.UserMessage = "You do not have permission to perform this action."
	case CategoryRateLimited:
		ae.Retryable = true
		ae.UserMessage = "Too many attempts. Please wait a moment and try again."
	case CategoryNetworkUnavailable:
		ae.Retryable = true
		ae.UserMessage = "Network connection unavailable. Please check your connection."
	case CategoryTimeout:
		ae.Retryable = true
		ae.UserMessage = "The request took too long. Please try again."
	case CategoryServiceUnavailable:
		ae.Retryable = true
		ae.UserMessage = "The sign-in service is temporarily unavailable. Please try again shortly."
	default:
		ae.Category = CategoryUnknown
		ae.UserMessage = "Something went wrong. Please try again."
	}
	return ae
}

// Provider error codes, mirroring the identity SDK's code strings.
const (
	CodeInvalidCredential = "auth/invalid-credential"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeTokenExpired      = "auth/id-token-expired"
	CodeTokenRevoked      = "auth/id-token-revoked"
	CodeUserDisabled      = "auth/user-disabled"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeNetworkFailed     = "auth/network-request-failed"
	CodeInternalError     = "auth/internal-error"
)

// codeCategories maps provider error codes onto taxonomy categories.
var codeCategories = map[string]Category{
	CodeInvalidCredential: CategoryInvalidCredentials,
	CodeUserNotFound:      CategoryInvalidCredentials,
	CodeWrongPassword:     CategoryInvalidCredentials,
	CodeEmailInUse:        CategoryInvalidCredentials,
	CodeTokenExpired:      CategorySessionExpired,
	CodeTokenRevoked:      CategorySessionExpired,
	CodeUserDisabled:      CategoryPermissionDenied,
	CodeTooManyRequests:   CategoryRateLimited,
	CodeNetworkFailed:     CategoryNetworkUnavailable,
	CodeInternalError:     CategoryServiceUnavailable,
}

// ProviderError is a raw failure reported by a provider implementation,
// identified by its code string.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// Classify maps any error from a provider call onto the taxonomy. Already
// classified errors pass through unchanged.
func Classify(err error) *AuthError {
	if err == nil {
		return nil
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, resilience.ErrCircuitOpen) {
		return newAuthError(CategoryServiceUnavailable, err)
	}
	if resilience.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return newAuthError(CategoryTimeout, err)
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if category, ok := codeCategories[pe.Code]; ok {
			return newAuthError(category, err)
		}
		return newAuthError(CategoryUnknown, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return newAuthError(CategoryNetworkUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network unreachable"),
		strings.Contains(msg, "broken pipe"):
		return newAuthError(CategoryNetworkUnavailable, err)
	case strings.Contains(msg, "too many requests"), strings.Contains(msg, "429"):
		return newAuthError(CategoryRateLimited, err)
	case strings.Contains(msg, "service unavailable"), strings.Contains(msg, "502"), strings.Contains(msg, "503"):
		return newAuthError(CategoryServiceUnavailable, err)
	}

	return newAuthError(CategoryUnknown, err)
}

// IsRetryable reports whether the classified form of err is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable
}
