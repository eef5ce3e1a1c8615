// seed creates the schema and a pre-verified dev account in the local
// database. Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/deafauth/deafauth/internal/hashing"
	"github.com/deafauth/deafauth/internal/infrastructure/postgres"
	"github.com/google/uuid"
)

const (
	seedEmail    = "seed@test.local"
	seedPassword = "seed-password-1"
)

const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id                         UUID PRIMARY KEY,
		email                      TEXT NOT NULL UNIQUE,
		password_hash              TEXT NOT NULL,
		verified                   BOOLEAN NOT NULL DEFAULT FALSE,
		pending_verification_token TEXT,
		created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS verification_tokens (
		token       TEXT PRIMARY KEY,
		account_id  UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		consumed_at TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_verification_tokens_account
		ON verification_tokens(account_id);`

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	hasher := hashing.NewArgon2Hasher(hashing.DefaultParams())
	passwordHash, err := hasher.Hash(seedPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	// Upsert a pre-verified account so login works without the email step.
	var accountID string
	err = pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, verified)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id`,
		uuid.NewString(), seedEmail, passwordHash,
	).Scan(&accountID)
	if err != nil {
		log.Fatalf("upsert seed account: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Account:    %s\n", seedEmail)
	fmt.Printf("  Account ID: %s\n", accountID)
	fmt.Printf("  Password:   %s\n", seedPassword)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 — log in:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", seedEmail, seedPassword)
	fmt.Println()
	fmt.Println("  Step 2 — call a protected endpoint:")
	fmt.Println()
	fmt.Println("    export TOKEN=eyJ...")
	fmt.Println("    curl -s http://localhost:8080/auth/me -H \"Authorization: Bearer $TOKEN\"")
}
