package wallet

import "context"

// Store is the persistence boundary for wallets. Implementations must
// enforce the unique user_id constraint and serialize Mutate calls against
// the same wallet record (row-level locking or an equivalent).
type Store interface {
	// Create persists a new wallet. Returns ErrWalletExists if the user
	// already has one.
	Create(ctx context.Context, w *Wallet) error

	// Get returns the wallet by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Wallet, error)

	// GetByUserID returns the user's wallet, or ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*Wallet, error)

	// Mutate loads the wallet under its record lock, applies fn to the
	// loaded copy, and persists the result in the same critical section.
	// If fn returns an error nothing is written and the error is returned
	// unchanged. Concurrent Mutate calls on the same wallet serialize;
	// calls on different wallets are independent.
	Mutate(ctx context.Context, id string, fn func(*Wallet) error) (*Wallet, error)
}
