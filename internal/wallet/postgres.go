package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/taskpay/internal/money"
)

// PostgresStore persists wallets in PostgreSQL. Mutations run inside a
// transaction holding a SELECT ... FOR UPDATE row lock, so concurrent
// read-modify-write cycles on the same wallet serialize at the database.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore creates a wallet store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

const walletSchema = `
CREATE TABLE IF NOT EXISTS wallets (
    id UUID PRIMARY KEY,
    user_id TEXT UNIQUE NOT NULL,
    balance NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    escrow_balance NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (escrow_balance >= 0),
    currency TEXT NOT NULL CHECK (currency IN ('USD', 'NGN', 'GHS')),
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'suspended', 'closed')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureSchema creates the wallets table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, walletSchema)
	if err != nil {
		return fmt.Errorf("failed to ensure wallet schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, w *Wallet) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.Pool.Exec(queryCtx, `
		INSERT INTO wallets (id, user_id, balance, escrow_balance, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.ID, w.UserID, w.Balance, w.EscrowBalance, string(w.Currency), string(w.Status), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrWalletExists
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Wallet, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.Pool.QueryRow(queryCtx, `
		SELECT id, user_id, balance, escrow_balance, currency, status, created_at, updated_at
		FROM wallets WHERE id = $1
	`, id)
	return scanWallet(row)
}

func (s *PostgresStore) GetByUserID(ctx context.Context, userID string) (*Wallet, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.Pool.QueryRow(queryCtx, `
		SELECT id, user_id, balance, escrow_balance, currency, status, created_at, updated_at
		FROM wallets WHERE user_id = $1
	`, userID)
	return scanWallet(row)
}

func (s *PostgresStore) Mutate(ctx context.Context, id string, fn func(*Wallet) error) (*Wallet, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.Pool.BeginTx(queryCtx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(queryCtx)

	row := tx.QueryRow(queryCtx, `
		SELECT id, user_id, balance, escrow_balance, currency, status, created_at, updated_at
		FROM wallets WHERE id = $1 FOR UPDATE
	`, id)
	w, err := scanWallet(row)
	if err != nil {
		return nil, err
	}

	if err := fn(w); err != nil {
		return nil, err
	}
	w.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(queryCtx, `
		UPDATE wallets
		SET balance = $2, escrow_balance = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, w.ID, w.Balance, w.EscrowBalance, string(w.Status), w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}

	if err := tx.Commit(queryCtx); err != nil {
		return nil, fmt.Errorf("failed to commit wallet update: %w", err)
	}
	return w, nil
}

func scanWallet(row pgx.Row) (*Wallet, error) {
	var w Wallet
	var currency, status string
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.EscrowBalance, &currency, &status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	w.Currency = money.Currency(currency)
	w.Status = Status(status)
	return &w, nil
}
