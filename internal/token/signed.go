package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignedCodec implements the signed-claims strategy: an HS256 JWT whose
// claims are visible but tamper-evident.
type SignedCodec struct {
	key []byte
	ttl time.Duration
}

func NewSignedCodec(key []byte, ttl time.Duration) *SignedCodec {
	return &SignedCodec{key: key, ttl: ttl}
}

func (c *SignedCodec) Mint(subjectID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

func (c *SignedCodec) Verify(raw string) (string, error) {
	if strings.HasPrefix(raw, encryptedPrefix) {
		// Minted under the encrypted strategy; this deployment committed
		// to signed claims.
		return "", ErrTokenMalformed
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithStrictDecoding())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", ErrTokenMalformed
		}
	}

	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
