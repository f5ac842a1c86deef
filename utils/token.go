package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// 20 random bytes -> 40 hex chars. 160 bits is far beyond guessable for a
// door token that is also rate-limited per IP.
const accessTokenBytes = 20

// AccessTokenLength is the fixed length of every issued token.
const AccessTokenLength = accessTokenBytes * 2

// NewAccessToken returns the opaque token encoded into a member's QR code.
// Immutable once issued; uniqueness is enforced by the database index.
func NewAccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
