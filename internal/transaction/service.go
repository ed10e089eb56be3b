package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/money"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateParams are the inputs for creating a transaction. Reference is
// optional; one is generated when empty.
type CreateParams struct {
	WalletID         string
	Type             Type
	Amount           decimal.Decimal
	Currency         money.Currency
	Reference        string
	GatewayReference string
	Metadata         map[string]any
	Description      string
}

// Service owns transaction creation and every status transition.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a transaction service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create records a new pending transaction. The reference must be globally
// unique; collisions are checked before insert and fail with
// ErrDuplicateReference.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Transaction, error) {
	if p.WalletID == "" {
		return nil, fmt.Errorf("%w: wallet id is required", ErrInvalidAmount)
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, p.Type)
	}
	if !money.IsPositive(p.Amount) {
		return nil, ErrInvalidAmount
	}
	if !p.Currency.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, p.Currency)
	}

	reference := p.Reference
	if reference == "" {
		reference = NewReference()
	}
	if _, err := s.store.GetByReference(ctx, reference); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateReference, reference)
	}

	now := time.Now().UTC()
	t := &Transaction{
		ID:               uuid.NewString(),
		Reference:        reference,
		WalletID:         p.WalletID,
		Type:             p.Type,
		Amount:           money.Quantize(p.Amount),
		Currency:         p.Currency,
		Status:           StatusPending,
		GatewayReference: p.GatewayReference,
		Metadata:         p.Metadata,
		Description:      p.Description,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("transaction_created",
		"transaction_id", t.ID, "reference", t.Reference,
		"wallet_id", t.WalletID, "type", t.Type, "amount", t.Amount.String())
	return t, nil
}

// Get returns the transaction by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Transaction, error) {
	return s.store.Get(ctx, id)
}

// GetByReference returns the transaction with the reference, or ErrNotFound.
func (s *Service) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	return s.store.GetByReference(ctx, reference)
}

// MarkAsProcessing moves a pending transaction to processing.
func (s *Service) MarkAsProcessing(ctx context.Context, id string) (*Transaction, error) {
	return s.transition(ctx, id, StatusProcessing, func(t *Transaction) error {
		if t.Status != StatusPending {
			return &StatusTransitionError{TransactionID: id, From: t.Status, To: StatusProcessing}
		}
		return nil
	})
}

// MarkAsCompleted finalizes a pending or processing transaction, optionally
// attaching the gateway's reference. Completed transactions are immutable
// afterwards.
func (s *Service) MarkAsCompleted(ctx context.Context, id, gatewayReference string) (*Transaction, error) {
	return s.transition(ctx, id, StatusCompleted, func(t *Transaction) error {
		if !CanTransition(t.Status, StatusCompleted) {
			return &StatusTransitionError{TransactionID: id, From: t.Status, To: StatusCompleted}
		}
		if gatewayReference != "" {
			t.GatewayReference = gatewayReference
		}
		return nil
	})
}

// MarkAsFailed records a failure. Any state except completed may fail; the
// message is stored under metadata["error"].
func (s *Service) MarkAsFailed(ctx context.Context, id, errorMessage string) (*Transaction, error) {
	return s.transition(ctx, id, StatusFailed, func(t *Transaction) error {
		if t.Status == StatusCompleted {
			return &StatusTransitionError{TransactionID: id, From: t.Status, To: StatusFailed}
		}
		if errorMessage != "" {
			if t.Metadata == nil {
				t.Metadata = make(map[string]any)
			}
			t.Metadata[MetaError] = errorMessage
		}
		return nil
	})
}

// Cancel cancels a transaction that is still pending.
func (s *Service) Cancel(ctx context.Context, id string) (*Transaction, error) {
	return s.transition(ctx, id, StatusCancelled, func(t *Transaction) error {
		if t.Status != StatusPending {
			return &StatusTransitionError{TransactionID: id, From: t.Status, To: StatusCancelled}
		}
		return nil
	})
}

// List returns a page of transactions. Page defaults to 1 and page size is
// clamped to [1, 100]; out-of-range values are corrected, not rejected.
func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	totalPages := (total + f.PageSize - 1) / f.PageSize
	return &Page{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}, nil
}

// LatestByTask returns the newest transaction of the given type tagged with
// the task id, or ErrNotFound.
func (s *Service) LatestByTask(ctx context.Context, taskID string, typ Type) (*Transaction, error) {
	return s.store.LatestByTask(ctx, taskID, typ)
}

func (s *Service) transition(ctx context.Context, id string, to Status, fn func(*Transaction) error) (*Transaction, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := t.Status
	if err := fn(t); err != nil {
		return nil, err
	}
	t.Status = to
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("transaction_status_changed",
		"transaction_id", id, "reference", t.Reference, "from", from, "to", to)
	return t, nil
}
