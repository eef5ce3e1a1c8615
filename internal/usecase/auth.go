package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deafauth/deafauth/internal/domain"
	"github.com/deafauth/deafauth/internal/email"
	"github.com/deafauth/deafauth/internal/hashing"
	"github.com/deafauth/deafauth/internal/repository"
	"github.com/deafauth/deafauth/internal/token"
	"github.com/google/uuid"
)

type AuthUsecase struct {
	accounts   repository.AccountRepository
	hasher     hashing.Hasher
	codec      token.Codec
	email      email.Sender
	verifyBase string
	logger     *slog.Logger

	// dummyHash is compared against on the unknown-email login path so that
	// "no such account" and "wrong password" take comparable time.
	dummyHash string
}

func NewAuthUsecase(
	accounts repository.AccountRepository,
	hasher hashing.Hasher,
	codec token.Codec,
	sender email.Sender,
	verifyBase string,
	logger *slog.Logger,
) (*AuthUsecase, error) {
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthUsecase{
		accounts:   accounts,
		hasher:     hasher,
		codec:      codec,
		email:      sender,
		verifyBase: verifyBase,
		logger:     logger.With("component", "auth_usecase"),
		dummyHash:  dummyHash,
	}, nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every flow and the store operate on the normalized form only.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Register creates an unverified account and returns it together with the
// raw one-shot verification token. The duplicate pre-check is an
// optimization; the store's uniqueness constraint is the guarantee, so a
// concurrent duplicate still surfaces as domain.ErrEmailTaken from Create.
func (u *AuthUsecase) Register(ctx context.Context, emailAddr, password string) (*domain.Account, string, error) {
	addr := NormalizeEmail(emailAddr)

	if _, err := u.accounts.FindByEmail(ctx, addr); err == nil {
		return nil, "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, "", fmt.Errorf("check existing account: %w", err)
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := token.NewVerificationToken()
	if err != nil {
		return nil, "", err
	}

	account := &domain.Account{
		ID:                       uuid.NewString(),
		Email:                    addr,
		PasswordHash:             hash,
		PendingVerificationToken: &verificationToken,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, "", domain.ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	link := u.verifyBase + "/auth/verify/" + verificationToken
	subject := "Verify your email"
	body := fmt.Sprintf(
		`<p>Welcome! Confirm your email address by opening the link below:</p><p><a href="%s">%s</a></p>`,
		link, link,
	)
	if err := u.email.Send(ctx, addr, subject, body); err != nil {
		// The account exists and the token stays claimable; delivery can be
		// retried out of band.
		u.logger.ErrorContext(ctx, "send verification email", "error", err)
	}

	return account, verificationToken, nil
}

// Verify claims a one-shot token. alreadyVerified is true when the token was
// consumed before (idempotent success, no mutation).
func (u *AuthUsecase) Verify(ctx context.Context, rawToken string) (*domain.Account, bool, error) {
	account, already, err := u.accounts.ClaimVerificationToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, domain.ErrVerificationTokenNotFound) {
			return nil, false, domain.ErrVerificationTokenNotFound
		}
		return nil, false, fmt.Errorf("claim verification token: %w", err)
	}
	return account, already, nil
}

// Login exchanges verified credentials for a session token. Unknown email
// and wrong password collapse into domain.ErrInvalidCredentials so callers
// cannot probe which addresses are registered.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, password string) (string, *domain.Account, error) {
	addr := NormalizeEmail(emailAddr)

	account, err := u.accounts.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			_, _ = u.hasher.Compare(u.dummyHash, password)
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find account: %w", err)
	}

	ok, err := u.hasher.Compare(account.PasswordHash, password)
	if err != nil {
		return "", nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return "", nil, domain.ErrInvalidCredentials
	}

	if !account.Verified {
		return "", nil, domain.ErrAccountNotVerified
	}

	sessionToken, err := u.codec.Mint(account.ID)
	if err != nil {
		return "", nil, fmt.Errorf("mint session token: %w", err)
	}
	return sessionToken, account, nil
}

// Account returns the account for an authenticated subject ID. A stale
// session token for a deleted account surfaces as ErrAccountNotFound.
func (u *AuthUsecase) Account(ctx context.Context, id string) (*domain.Account, error) {
	account, err := u.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}
