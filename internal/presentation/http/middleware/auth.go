package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/security"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

const claimsKey = "sessionClaims"

// RequireAuth rejects requests without a valid bearer token and stores the
// session claims in the request context for handlers downstream.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromRequest(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth stores session claims when a valid bearer token is present
// and lets anonymous requests through untouched. Gated endpoints use it to
// serve both signed-in users and guests.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := claimsFromRequest(c); claims != nil {
			c.Set(claimsKey, claims)
		}
		c.Next()
	}
}

// SessionClaims returns the claims stored by RequireAuth/OptionalAuth, or
// nil for an anonymous request.
func SessionClaims(c *gin.Context) *security.SessionClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*security.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

func claimsFromRequest(c *gin.Context) *security.SessionClaims {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil
	}

	mapClaims, err := security.ValidateJWT(token, config.JWTSecret)
	if err != nil {
		return nil
	}
	return security.SessionClaimsFrom(mapClaims)
}
