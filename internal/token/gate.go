package token

import (
	"errors"
	"strings"
)

// Gate rejections. Verification failures from the codec propagate as-is.
var (
	ErrMissingCredentials = errors.New("authorization header is missing")
	ErrMalformedScheme    = errors.New("authorization header is not a bearer credential")
)

// Gate is the single chokepoint for protected operations: it extracts the
// bearer token from an Authorization header value and verifies it. It never
// touches storage — the embedded subject ID is trusted once the codec
// accepts the token.
type Gate struct {
	codec Codec
}

func NewGate(codec Codec) *Gate {
	return &Gate{codec: codec}
}

// Authenticate returns the subject ID for a raw Authorization header value.
// The header must be exactly "Bearer <token>": one space, non-empty token,
// no internal whitespace.
func (g *Gate) Authenticate(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredentials
	}

	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || raw == "" || strings.ContainsAny(raw, " \t") {
		return "", ErrMalformedScheme
	}

	return g.codec.Verify(raw)
}
