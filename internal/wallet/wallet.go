package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/money"
)

// Status is the lifecycle state of a wallet.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed" // terminal
)

// Wallet holds a user's available and escrowed funds in one currency.
// There is exactly one wallet per user; balances are mutated only through
// the Service primitives so the non-negative invariants hold at all times.
type Wallet struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	EscrowBalance decimal.Decimal `json:"escrow_balance"`
	Currency      money.Currency  `json:"currency"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// New constructs an active wallet with a zero escrow balance.
func New(userID string, currency money.Currency, initial decimal.Decimal) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:            uuid.NewString(),
		UserID:        userID,
		Balance:       money.Quantize(initial),
		EscrowBalance: decimal.Zero,
		Currency:      currency,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TotalBalance is available plus escrowed funds.
func (w *Wallet) TotalBalance() decimal.Decimal {
	return w.Balance.Add(w.EscrowBalance)
}

// Clone returns a copy so stores never hand out aliased state.
func (w *Wallet) Clone() *Wallet {
	cp := *w
	return &cp
}
