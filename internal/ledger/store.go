package ledger

import "context"

// Store is the append-only persistence boundary for ledger entries. It
// exposes no update or delete.
type Store interface {
	// Append persists one entry.
	Append(ctx context.Context, e Entry) error

	// ListByTransaction returns every entry for the transaction, oldest first.
	ListByTransaction(ctx context.Context, transactionID string) ([]Entry, error)

	// ListByAccountType returns every entry posted against the account type,
	// oldest first.
	ListByAccountType(ctx context.Context, accountType AccountType) ([]Entry, error)
}
