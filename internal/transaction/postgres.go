package transaction

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

// PostgresStore persists transactions in PostgreSQL. Metadata is stored as
// JSONB; reference uniqueness is a database constraint.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore creates a transaction store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

const transactionSchema = `
CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    reference TEXT UNIQUE NOT NULL,
    wallet_id UUID NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal', 'transfer', 'payment', 'refund')),
    amount NUMERIC(20, 4) NOT NULL CHECK (amount > 0),
    currency TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'processing', 'completed', 'failed', 'cancelled')),
    gateway_reference TEXT,
    metadata JSONB NOT NULL DEFAULT '{}',
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transactions_wallet ON transactions (wallet_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_task ON transactions ((metadata->>'task_id'), created_at DESC);`

// EnsureSchema creates the transactions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, transactionSchema)
	if err != nil {
		return fmt.Errorf("failed to ensure transaction schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, t *Transaction) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.Pool.Exec(queryCtx, `
		INSERT INTO transactions (id, reference, wallet_id, type, amount, currency, status, gateway_reference, metadata, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)
	`, t.ID, t.Reference, t.WalletID, string(t.Type), t.Amount, string(t.Currency), string(t.Status),
		t.GatewayReference, t.Metadata, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Transaction, error) {
	return s.getWhere(ctx, "id = $1", id)
}

func (s *PostgresStore) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	return s.getWhere(ctx, "reference = $1", reference)
}

func (s *PostgresStore) getWhere(ctx context.Context, where string, arg any) (*Transaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.Pool.QueryRow(queryCtx, `
		SELECT id, reference, wallet_id, type, amount, currency, status,
		       COALESCE(gateway_reference, ''), metadata, COALESCE(description, ''),
		       created_at, updated_at
		FROM transactions WHERE `+where, arg)
	return scanTransaction(row)
}

func (s *PostgresStore) Update(ctx context.Context, t *Transaction) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := s.Pool.Exec(queryCtx, `
		UPDATE transactions
		SET status = $2, gateway_reference = NULLIF($3, ''), metadata = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, string(t.Status), t.GatewayReference, t.Metadata, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*Transaction, int, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	where := "WHERE 1=1"
	args := []any{}
	argCount := 1

	if f.WalletID != "" {
		where += fmt.Sprintf(" AND wallet_id = $%d", argCount)
		args = append(args, f.WalletID)
		argCount++
	}
	if f.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argCount)
		args = append(args, string(f.Type))
		argCount++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, string(f.Status))
		argCount++
	}

	var total int
	if err := s.Pool.QueryRow(queryCtx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, reference, wallet_id, type, amount, currency, status,
		       COALESCE(gateway_reference, ''), metadata, COALESCE(description, ''),
		       created_at, updated_at
		FROM transactions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argCount, argCount+1)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := s.Pool.Query(queryCtx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (s *PostgresStore) LatestByTask(ctx context.Context, taskID string, typ Type) (*Transaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.Pool.QueryRow(queryCtx, `
		SELECT id, reference, wallet_id, type, amount, currency, status,
		       COALESCE(gateway_reference, ''), metadata, COALESCE(description, ''),
		       created_at, updated_at
		FROM transactions
		WHERE metadata->>'task_id' = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, taskID, string(typ))
	return scanTransaction(row)
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var typ, currency, status string
	err := row.Scan(&t.ID, &t.Reference, &t.WalletID, &typ, &t.Amount, &currency, &status,
		&t.GatewayReference, &t.Metadata, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	t.Type = Type(typ)
	t.Currency = money.Currency(currency)
	t.Status = Status(status)
	return &t, nil
}
