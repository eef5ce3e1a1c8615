// Package token mints and verifies the credentials this service issues:
// stateless session tokens (signed or encrypted, time-bounded, carrying a
// subject ID) and opaque one-shot verification tokens.
package token

import (
	"errors"
	"fmt"
	"time"
)

// Classified verification failures. Verify never returns anything else for
// attacker-supplied input.
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrBadSignature   = errors.New("token authenticity check failed")
	ErrTokenExpired   = errors.New("token is expired")
)

// Codec mints and verifies session tokens. Implementations perform no I/O
// and are safe for concurrent use.
type Codec interface {
	// Mint returns a token embedding subjectID, issued now, expiring after
	// the codec's TTL.
	Mint(subjectID string) (string, error)
	// Verify checks structure, authenticity and expiry — in that order — and
	// returns the embedded subject ID.
	Verify(raw string) (string, error)
}

type Strategy string

const (
	StrategySigned    Strategy = "signed"
	StrategyEncrypted Strategy = "encrypted"
)

// KeySize is the derived key length in bytes, shared by both strategies.
const KeySize = 32

// DeriveKey maps a configured secret of any length onto a fixed-size key:
// longer secrets are truncated, shorter ones zero-padded. The mapping is
// stable across calls and releases — tokens persisted by clients stay
// verifiable as long as the secret itself does not change.
func DeriveKey(secret string) []byte {
	key := make([]byte, KeySize)
	copy(key, secret)
	return key
}

// NewCodec returns the codec for the configured strategy. A deployment
// commits to exactly one strategy; each codec rejects the other's format.
func NewCodec(strategy Strategy, secret string, ttl time.Duration) (Codec, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %v", ttl)
	}
	key := DeriveKey(secret)
	switch strategy {
	case StrategySigned:
		return NewSignedCodec(key, ttl), nil
	case StrategyEncrypted:
		return NewEncryptedCodec(key, ttl)
	default:
		return nil, fmt.Errorf("unknown token strategy %q", strategy)
	}
}
