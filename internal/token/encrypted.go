package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// encryptedPrefix is the version/purpose identifier of the encrypted-claims
// format. Bumping it invalidates all outstanding tokens of this strategy.
const encryptedPrefix = "da1."

// EncryptedCodec implements the encrypted-claims strategy: claims are sealed
// with AES-256-GCM, so they are confidential as well as authenticated. Wire
// format: "da1." + base64url(nonce || ciphertext).
type EncryptedCodec struct {
	aead cipher.AEAD
	ttl  time.Duration
}

type encryptedClaims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func NewEncryptedCodec(key []byte, ttl time.Duration) (*EncryptedCodec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &EncryptedCodec{aead: aead, ttl: ttl}, nil
}

func (c *EncryptedCodec) Mint(subjectID string) (string, error) {
	now := time.Now()
	payload, err := json.Marshal(encryptedClaims{
		Subject:   subjectID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, payload, nil)
	return encryptedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *EncryptedCodec) Verify(raw string) (string, error) {
	if !strings.HasPrefix(raw, encryptedPrefix) {
		return "", ErrTokenMalformed
	}

	// Strict decoding: two encodings differing only in padding bits must not
	// alias to the same token.
	sealed, err := base64.RawURLEncoding.Strict().DecodeString(strings.TrimPrefix(raw, encryptedPrefix))
	if err != nil || len(sealed) < c.aead.NonceSize() {
		return "", ErrTokenMalformed
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	payload, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrBadSignature
	}

	// Claims are trusted from here on: Open authenticated them.
	var claims encryptedClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrTokenMalformed
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return "", ErrTokenExpired
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
