package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/deafauth/deafauth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create account: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, verified, pending_verification_token)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING created_at, updated_at`,
		a.ID, a.Email, a.PasswordHash, a.PendingVerificationToken,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}

	if a.PendingVerificationToken != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO verification_tokens (token, account_id)
			VALUES ($1, $2)`,
			*a.PendingVerificationToken, a.ID,
		)
		if err != nil {
			return fmt.Errorf("insert verification token: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+` WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+` WHERE email = $1`, email)
	return scanAccount(row)
}

func (r *AccountRepository) ClaimVerificationToken(ctx context.Context, rawToken string) (*domain.Account, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	var accountID string
	var consumed bool
	err = tx.QueryRow(ctx, `
		SELECT account_id, consumed_at IS NOT NULL
		FROM verification_tokens
		WHERE token = $1`,
		rawToken,
	).Scan(&accountID, &consumed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrVerificationTokenNotFound
		}
		return nil, false, fmt.Errorf("find verification token: %w", err)
	}

	if !consumed {
		// Compare-and-set: a concurrent claim makes this a no-op, in which
		// case we report already-verified like the consumed branch.
		tag, err := tx.Exec(ctx, `
			UPDATE verification_tokens
			SET consumed_at = NOW()
			WHERE token = $1 AND consumed_at IS NULL`,
			rawToken,
		)
		if err != nil {
			return nil, false, fmt.Errorf("consume verification token: %w", err)
		}
		if tag.RowsAffected() == 1 {
			_, err = tx.Exec(ctx, `
				UPDATE accounts
				SET verified = TRUE,
				    pending_verification_token = NULL,
				    updated_at = NOW()
				WHERE id = $1`,
				accountID,
			)
			if err != nil {
				return nil, false, fmt.Errorf("mark account verified: %w", err)
			}
		} else {
			consumed = true
		}
	}

	row := tx.QueryRow(ctx, selectAccount+` WHERE id = $1`, accountID)
	account, err := scanAccount(row)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit claim: %w", err)
	}
	return account, consumed, nil
}

const selectAccount = `
	SELECT id, email, password_hash, verified, pending_verification_token,
	       created_at, updated_at
	FROM accounts`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Verified, &a.PendingVerificationToken,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
