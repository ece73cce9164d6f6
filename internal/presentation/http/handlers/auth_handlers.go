// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/identity"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/middleware"
)

// AuthHandlers handles sign-in, sign-up, sign-out, refresh, and session
// resolution endpoints.
type AuthHandlers struct {
	authService  *services.AuthService
	guestService *services.GuestService
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

func NewAuthHandlers(authService *services.AuthService, guestService *services.GuestService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		guestService: guestService,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`

	// Echoed from the anonymous session so its previews can be retired
	// once the device is signed in.
	GuestSessionID string `json:"guestSessionId"`
}

type signUpRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Name           string `json:"name"`
	GuestSessionID string `json:"guestSessionId"`
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandlers) SignIn(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_sign_in")
	defer marker.Complete()

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	sess, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderAuthError(c, err)
		return
	}

	if req.GuestSessionID != "" {
		h.guestService.Reset(req.GuestSessionID)
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, sess)
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandlers) SignUp(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_sign_up")
	defer marker.Complete()

	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and a password of at least 8 characters are required"})
		return
	}

	sess, err := h.authService.SignUp(c.Request.Context(), identity.SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.renderAuthError(c, err)
		return
	}

	if req.GuestSessionID != "" {
		h.guestService.Reset(req.GuestSessionID)
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusCreated, sess)
}

// SignOut handles POST /api/v1/auth/signout. Local session state is always
// cleared; a provider failure is reported but does not keep the user
// signed in.
func (h *AuthHandlers) SignOut(c *gin.Context) {
	claims := middleware.SessionClaims(c)

	if err := h.authService.SignOut(c.Request.Context(), claims.UserID); err != nil {
		h.logger.Auth().Warn("Provider sign-out failed, local session cleared", "userId", claims.UserID, "error", err)
		c.JSON(http.StatusOK, gin.H{"signedOut": true, "providerNotified": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signedOut": true, "providerNotified": true})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	claims := middleware.SessionClaims(c)

	sess, err := h.authService.Refresh(c.Request.Context(), claims.UserID)
	if err != nil {
		h.renderAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

// Session handles GET /api/v1/auth/session. It resolves the server-side
// session for the authenticated user, recovering persisted state or
// re-querying the provider when the local record is stale.
func (h *AuthHandlers) Session(c *gin.Context) {
	claims := middleware.SessionClaims(c)

	sess, err := h.authService.Resolve(c.Request.Context(), claims.UserID)
	if err != nil {
		h.renderAuthError(c, err)
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session no longer valid"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// renderAuthError maps the classified error taxonomy onto HTTP statuses.
func (h *AuthHandlers) renderAuthError(c *gin.Context, err error) {
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		authErr = identity.Classify(err)
	}

	status := http.StatusInternalServerError
	switch authErr.Category {
	case identity.CategoryInvalidCredentials, identity.CategorySessionExpired:
		status = http.StatusUnauthorized
	case identity.CategoryPermissionDenied:
		status = http.StatusForbidden
	case identity.CategoryRateLimited:
		status = http.StatusTooManyRequests
	case identity.CategoryTimeout:
		status = http.StatusGatewayTimeout
	case identity.CategoryNetworkUnavailable, identity.CategoryServiceUnavailable:
		status = http.StatusServiceUnavailable
	}

	h.logger.Auth().Debug("Auth request failed", "category", authErr.Category, "retryable", authErr.Retryable, "error", err)

	c.JSON(status, gin.H{
		"error":     authErr.UserMessage,
		"category":  authErr.Category,
		"retryable": authErr.Retryable,
	})
}
