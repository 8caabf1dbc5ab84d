package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewVerificationToken generates a cryptographically random, URL-safe token.
// 32 bytes of entropy makes collisions across the account store negligible.
func NewVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
