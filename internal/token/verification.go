package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const verificationTokenBytes = 32

// NewVerificationToken returns a URL-safe random string with 256 bits of
// entropy. It carries no structure and is never decoded — the store compares
// it by exact match.
func NewVerificationToken() (string, error) {
	raw := make([]byte, verificationTokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
