package middleware

import (
	"errors"
	"net/http"

	"github.com/deafauth/deafauth/internal/metrics"
	"github.com/deafauth/deafauth/internal/token"
	"github.com/gin-gonic/gin"
)

const errUnauthorized = "Unauthorized"

// AccountIDKey is the gin context key under which Auth stores the
// authenticated subject ID.
const AccountIDKey = "accountID"

// Auth passes the Authorization header through the gate and sets the
// authenticated account ID in the gin context. Every rejection maps to the
// same 401 response; the distinct reason is only visible in metrics.
func Auth(gate *token.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := gate.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			metrics.TokenRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set(AccountIDKey, subject)
		c.Next()
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, token.ErrMissingCredentials):
		return "missing"
	case errors.Is(err, token.ErrMalformedScheme):
		return "malformed_scheme"
	case errors.Is(err, token.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, token.ErrTokenExpired):
		return "expired"
	default:
		return "unknown"
	}
}
