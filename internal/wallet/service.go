package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/money"
)

// Service owns every wallet mutation. Each operation is one durable unit:
// the store applies the read-modify-write under the wallet record's lock.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a wallet service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateWallet opens a wallet for a user. Exactly one wallet may exist per
// user; a second create fails with ErrWalletExists.
func (s *Service) CreateWallet(ctx context.Context, userID string, currency money.Currency, initial decimal.Decimal) (*Wallet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidAmount)
	}
	if !currency.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if money.IsNegative(initial) {
		return nil, fmt.Errorf("%w: initial balance must not be negative", ErrInvalidAmount)
	}

	w := New(userID, currency, initial)
	if err := s.store.Create(ctx, w); err != nil {
		return nil, err
	}

	s.logger.Info("wallet_created", "wallet_id", w.ID, "user_id", userID, "currency", currency)
	return w, nil
}

// GetWallet returns the wallet by id, or ErrNotFound.
func (s *Service) GetWallet(ctx context.Context, id string) (*Wallet, error) {
	return s.store.Get(ctx, id)
}

// GetWalletByUserID returns the user's wallet, or ErrNotFound.
func (s *Service) GetWalletByUserID(ctx context.Context, userID string) (*Wallet, error) {
	return s.store.GetByUserID(ctx, userID)
}

// AddBalance credits the available balance. The wallet must be active.
func (s *Service) AddBalance(ctx context.Context, id string, amount decimal.Decimal) (*Wallet, error) {
	if !money.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	amount = money.Quantize(amount)

	return s.mutate(ctx, id, "add_balance", amount, func(w *Wallet) error {
		if w.Status != StatusActive {
			return ErrWalletInactive
		}
		w.Balance = w.Balance.Add(amount)
		return nil
	})
}

// DeductBalance debits the available balance. The wallet must be active and
// hold at least the amount.
func (s *Service) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (*Wallet, error) {
	if !money.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	amount = money.Quantize(amount)

	return s.mutate(ctx, id, "deduct_balance", amount, func(w *Wallet) error {
		if w.Status != StatusActive {
			return ErrWalletInactive
		}
		if w.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		w.Balance = w.Balance.Sub(amount)
		return nil
	})
}

// MoveToEscrow atomically moves funds from available balance into escrow.
func (s *Service) MoveToEscrow(ctx context.Context, id string, amount decimal.Decimal) (*Wallet, error) {
	if !money.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	amount = money.Quantize(amount)

	return s.mutate(ctx, id, "move_to_escrow", amount, func(w *Wallet) error {
		if w.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		w.Balance = w.Balance.Sub(amount)
		w.EscrowBalance = w.EscrowBalance.Add(amount)
		return nil
	})
}

// ReleaseFromEscrow atomically moves funds from escrow back into the
// available balance.
func (s *Service) ReleaseFromEscrow(ctx context.Context, id string, amount decimal.Decimal) (*Wallet, error) {
	if !money.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	amount = money.Quantize(amount)

	return s.mutate(ctx, id, "release_from_escrow", amount, func(w *Wallet) error {
		if w.EscrowBalance.LessThan(amount) {
			return ErrInsufficientEscrow
		}
		w.EscrowBalance = w.EscrowBalance.Sub(amount)
		w.Balance = w.Balance.Add(amount)
		return nil
	})
}

// SuspendWallet moves an active wallet to suspended.
func (s *Service) SuspendWallet(ctx context.Context, id string) (*Wallet, error) {
	return s.mutate(ctx, id, "suspend", decimal.Zero, func(w *Wallet) error {
		if w.Status == StatusClosed {
			return ErrWalletClosed
		}
		w.Status = StatusSuspended
		return nil
	})
}

// ActivateWallet moves a suspended wallet back to active. Closed wallets
// stay closed.
func (s *Service) ActivateWallet(ctx context.Context, id string) (*Wallet, error) {
	return s.mutate(ctx, id, "activate", decimal.Zero, func(w *Wallet) error {
		if w.Status == StatusClosed {
			return ErrWalletClosed
		}
		w.Status = StatusActive
		return nil
	})
}

// CloseWallet closes a wallet permanently. Both balances must be zero.
func (s *Service) CloseWallet(ctx context.Context, id string) (*Wallet, error) {
	return s.mutate(ctx, id, "close", decimal.Zero, func(w *Wallet) error {
		if !w.Balance.IsZero() || !w.EscrowBalance.IsZero() {
			return ErrNonZeroBalance
		}
		w.Status = StatusClosed
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id, op string, amount decimal.Decimal, fn func(*Wallet) error) (*Wallet, error) {
	w, err := s.store.Mutate(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	s.logger.Info("wallet_mutation",
		"op", op,
		"wallet_id", id,
		"amount", amount.String(),
		"balance", w.Balance.String(),
		"escrow_balance", w.EscrowBalance.String(),
		"status", w.Status,
	)
	return w, nil
}
