package transaction

import "context"

// Filter narrows List queries. Zero values mean "any".
type Filter struct {
	WalletID string
	Type     Type
	Status   Status
	Page     int
	PageSize int
}

// Page is one page of transactions ordered by creation time descending.
type Page struct {
	Items      []*Transaction `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// Store is the persistence boundary for transactions. Reference uniqueness
// is enforced at this layer.
type Store interface {
	// Create persists a new transaction, failing with ErrDuplicateReference
	// if the reference is taken.
	Create(ctx context.Context, t *Transaction) error

	// Get returns the transaction by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Transaction, error)

	// GetByReference returns the transaction with the reference, or ErrNotFound.
	GetByReference(ctx context.Context, reference string) (*Transaction, error)

	// Update persists status, gateway reference, and metadata changes.
	Update(ctx context.Context, t *Transaction) error

	// List returns a page of transactions matching the filter plus the
	// total match count, newest first.
	List(ctx context.Context, f Filter) ([]*Transaction, int, error)

	// LatestByTask returns the most recently created transaction of the
	// given type whose metadata task_id equals taskID, or ErrNotFound.
	LatestByTask(ctx context.Context, taskID string, typ Type) (*Transaction, error)
}
