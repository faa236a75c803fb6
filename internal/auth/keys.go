// Package auth verifies admin API keys and resolves end-user sessions.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BCryptCost is the bcrypt cost used when hashing admin keys.
const BCryptCost = 12

// HashAPIKey hashes an API key using bcrypt.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey checks a key against a bcrypt hash.
func VerifyAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// VerifyAPIKeyConstantTime compares a key against a plain-text key in constant time.
func VerifyAPIKeyConstantTime(got, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// ExtractBearerToken extracts the token from an Authorization header.
// The "Bearer" prefix is matched case-insensitively.
func ExtractBearerToken(authHeader string) string {
	token := strings.TrimSpace(authHeader)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// AdminVerifier checks admin bearer tokens. When a bcrypt hash is configured
// it takes precedence over the plain key.
type AdminVerifier struct {
	plainKey string
	keyHash  string
}

// NewAdminVerifier creates a verifier. Either argument may be empty; with
// both empty every token is rejected.
func NewAdminVerifier(plainKey, keyHash string) *AdminVerifier {
	return &AdminVerifier{plainKey: plainKey, keyHash: keyHash}
}

// Verify reports whether token is the admin key.
func (v *AdminVerifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	if v.keyHash != "" {
		return VerifyAPIKey(token, v.keyHash)
	}
	if v.plainKey == "" {
		return false
	}
	return VerifyAPIKeyConstantTime(token, v.plainKey)
}
