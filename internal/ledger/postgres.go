package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists ledger entries in PostgreSQL. The table carries no
// UPDATE path; rows are inserted once and only ever read.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore creates a ledger store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
    id UUID PRIMARY KEY,
    transaction_id UUID NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
    account_type TEXT NOT NULL CHECK (account_type IN ('asset', 'liability', 'equity', 'revenue', 'expense')),
    debit_amount NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (debit_amount >= 0),
    credit_amount NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (credit_amount >= 0),
    balance_after NUMERIC(20, 4) NOT NULL DEFAULT 0,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    CHECK ((debit_amount > 0 AND credit_amount = 0) OR (credit_amount > 0 AND debit_amount = 0))
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_tx ON ledger_entries (transaction_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries (account_type);`

// EnsureSchema creates the ledger_entries table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, ledgerSchema)
	if err != nil {
		return fmt.Errorf("failed to ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.Pool.Exec(queryCtx, `
		INSERT INTO ledger_entries (id, transaction_id, account_type, debit_amount, credit_amount, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID(), e.TransactionID(), string(e.AccountType()), e.DebitAmount(), e.CreditAmount(),
		e.BalanceAfter(), e.Description(), e.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTransaction(ctx context.Context, transactionID string) ([]Entry, error) {
	return s.listWhere(ctx, "transaction_id = $1", transactionID)
}

func (s *PostgresStore) ListByAccountType(ctx context.Context, accountType AccountType) ([]Entry, error) {
	return s.listWhere(ctx, "account_type = $1", string(accountType))
}

func (s *PostgresStore) listWhere(ctx context.Context, where string, arg any) ([]Entry, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.Pool.Query(queryCtx, `
		SELECT id, transaction_id, account_type, debit_amount, credit_amount, balance_after, COALESCE(description, ''), created_at
		FROM ledger_entries WHERE `+where+` ORDER BY created_at ASC`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		id, transactionID, accountType, description string
		debit, credit, balanceAfter                 decimal.Decimal
		createdAt                                   time.Time
	)
	if err := row.Scan(&id, &transactionID, &accountType, &debit, &credit, &balanceAfter, &description, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("failed to scan ledger entry: %w", err)
	}
	return restoreEntry(id, transactionID, AccountType(accountType), debit, credit, balanceAfter, description, createdAt), nil
}
