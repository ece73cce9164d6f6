// Package security covers token generation, JWT session claims, and
// password hashing for the identity layer.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateULID mints a sortable unique ID, used for guest sessions, terms,
// and user records.
func GenerateULID() string {
	return ulid.Make().String()
}

// GenerateSecureToken returns a URL-safe random token; the local identity
// provider uses it for refresh tokens.
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// GenerateSecureKey returns a hex-encoded random key of the given character
// length. Used to mint an ephemeral JWT secret when none is configured.
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
