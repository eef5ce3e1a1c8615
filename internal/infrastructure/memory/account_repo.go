// Package memory holds an in-process AccountRepository used by local dev
// (no DATABASE_URL), the seed command, and flow tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/deafauth/deafauth/internal/domain"
)

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account           // keyed by ID
	emails   map[string]string                    // email -> account ID
	tokens   map[string]*domain.VerificationToken // keyed by raw token
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*domain.Account),
		emails:   make(map[string]string),
		tokens:   make(map[string]*domain.VerificationToken),
	}
}

func (r *AccountRepository) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emails[a.Email]; exists {
		return domain.ErrEmailTaken
	}

	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	stored := cloneAccount(a)
	r.accounts[a.ID] = stored
	r.emails[a.Email] = a.ID
	if a.PendingVerificationToken != nil {
		r.tokens[*a.PendingVerificationToken] = &domain.VerificationToken{
			Token:     *a.PendingVerificationToken,
			AccountID: a.ID,
			CreatedAt: now,
		}
	}
	return nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(r.accounts[id]), nil
}

func (r *AccountRepository) ClaimVerificationToken(_ context.Context, rawToken string) (*domain.Account, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.tokens[rawToken]
	if !ok {
		return nil, false, domain.ErrVerificationTokenNotFound
	}

	account := r.accounts[record.AccountID]
	if record.ConsumedAt != nil {
		return cloneAccount(account), true, nil
	}

	now := time.Now()
	record.ConsumedAt = &now
	account.Verified = true
	account.PendingVerificationToken = nil
	account.UpdatedAt = now
	return cloneAccount(account), false, nil
}

// Ping satisfies the health checker's dependency interface.
func (r *AccountRepository) Ping(_ context.Context) error {
	return nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.PendingVerificationToken != nil {
		tok := *a.PendingVerificationToken
		c.PendingVerificationToken = &tok
	}
	return &c
}
