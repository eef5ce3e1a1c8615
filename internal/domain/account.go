package domain

import (
	"errors"
	"time"
)

var (
	ErrEmailTaken                = errors.New("account with this email already exists")
	ErrAccountNotFound           = errors.New("account not found")
	ErrVerificationTokenNotFound = errors.New("verification token not found")
	ErrInvalidCredentials        = errors.New("invalid email or password")
	ErrAccountNotVerified        = errors.New("email not verified")
)

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Verified     bool
	// PendingVerificationToken is non-nil only while Verified is false.
	// It is cleared in the same store operation that flips Verified.
	PendingVerificationToken *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// VerificationToken is the store-side record of a one-shot token. A consumed
// record is kept so that claiming the same token twice reports "already
// verified" instead of "not found".
type VerificationToken struct {
	Token      string
	AccountID  string
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// AccountView is the safe-to-serialize projection of an Account.
type AccountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		Email:     a.Email,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
	}
}
