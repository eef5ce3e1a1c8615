package repository

import (
	"context"

	"github.com/deafauth/deafauth/internal/domain"
)

// AccountRepository is the minimal store surface the auth flows need.
// Implementations own atomicity: the email uniqueness constraint at Create
// and the one-shot claim at ClaimVerificationToken.
type AccountRepository interface {
	// Create persists a new unverified account together with its
	// verification token record. Returns domain.ErrEmailTaken if the
	// normalized email is already registered.
	Create(ctx context.Context, account *domain.Account) error

	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// ClaimVerificationToken atomically consumes the token and flips the
	// account to verified, clearing its pending token. If the token was
	// already consumed it reports alreadyVerified=true without mutating
	// anything. Unknown tokens return domain.ErrVerificationTokenNotFound.
	ClaimVerificationToken(ctx context.Context, rawToken string) (account *domain.Account, alreadyVerified bool, err error)
}
