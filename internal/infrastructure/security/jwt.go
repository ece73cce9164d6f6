package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims are the fields embedded in an access token
type SessionClaims struct {
	UserID string
	Email  string
	Name   string
	Tier   string
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// SessionClaimsFrom extracts session claims from validated JWT claims
func SessionClaimsFrom(claims jwt.MapClaims) *SessionClaims {
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil
	}
	sc := &SessionClaims{UserID: userID}
	if email, ok := claims["email"].(string); ok {
		sc.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		sc.Name = name
	}
	if tier, ok := claims["tier"].(string); ok {
		sc.Tier = tier
	}
	return sc
}

// GenerateSessionToken creates a signed access token for a user session
func GenerateSessionToken(sc *SessionClaims, jwtSecret string, lifetime time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(lifetime)
	claims := jwt.MapClaims{
		"sub":   sc.UserID,
		"email": sc.Email,
		"name":  sc.Name,
		"tier":  sc.Tier,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
