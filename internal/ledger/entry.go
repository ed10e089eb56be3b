package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/money"
)

// AccountType is a standard bookkeeping account classification.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether a is one of the five account types.
func (a AccountType) Valid() bool {
	switch a {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

var (
	// ErrInvalidAmount is returned for zero or negative entry amounts.
	ErrInvalidAmount = errors.New("ledger entry amount must be greater than zero")

	// ErrInvalidAccountType is returned for unknown account types.
	ErrInvalidAccountType = errors.New("invalid account type")

	// ErrNotFound is returned when no entries exist for a lookup.
	ErrNotFound = errors.New("ledger entry not found")
)

// Entry is one side of a double-entry posting: a debit or a credit against
// an account, never both. Entries are immutable values; they are built only
// through the factories below and the store exposes no update or delete.
type Entry struct {
	id            string
	transactionID string
	accountType   AccountType
	debitAmount   decimal.Decimal
	creditAmount  decimal.Decimal
	balanceAfter  decimal.Decimal
	description   string
	createdAt     time.Time
}

func (e Entry) ID() string                    { return e.id }
func (e Entry) TransactionID() string         { return e.transactionID }
func (e Entry) AccountType() AccountType      { return e.accountType }
func (e Entry) DebitAmount() decimal.Decimal  { return e.debitAmount }
func (e Entry) CreditAmount() decimal.Decimal { return e.creditAmount }
func (e Entry) BalanceAfter() decimal.Decimal { return e.balanceAfter }
func (e Entry) Description() string           { return e.description }
func (e Entry) CreatedAt() time.Time          { return e.createdAt }

// IsDebit reports whether the entry is the debit side.
func (e Entry) IsDebit() bool { return money.IsPositive(e.debitAmount) }

func newEntry(transactionID string, accountType AccountType, debit, credit, balanceAfter decimal.Decimal, description string) (Entry, error) {
	if transactionID == "" {
		return Entry{}, fmt.Errorf("%w: transaction id is required", ErrInvalidAmount)
	}
	if !accountType.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidAccountType, accountType)
	}
	return Entry{
		id:            uuid.NewString(),
		transactionID: transactionID,
		accountType:   accountType,
		debitAmount:   money.Quantize(debit),
		creditAmount:  money.Quantize(credit),
		balanceAfter:  money.Quantize(balanceAfter),
		description:   description,
		createdAt:     time.Now().UTC(),
	}, nil
}

// NewDebitEntry builds an immutable debit entry for amount.
func NewDebitEntry(transactionID string, accountType AccountType, amount, balanceAfter decimal.Decimal, description string) (Entry, error) {
	if !money.IsPositive(amount) {
		return Entry{}, ErrInvalidAmount
	}
	return newEntry(transactionID, accountType, amount, decimal.Zero, balanceAfter, description)
}

// NewCreditEntry builds an immutable credit entry for amount.
func NewCreditEntry(transactionID string, accountType AccountType, amount, balanceAfter decimal.Decimal, description string) (Entry, error) {
	if !money.IsPositive(amount) {
		return Entry{}, ErrInvalidAmount
	}
	return newEntry(transactionID, accountType, decimal.Zero, amount, balanceAfter, description)
}

// restoreEntry rebuilds an entry loaded from storage. Package-private so the
// write-once property holds for all external callers.
func restoreEntry(id, transactionID string, accountType AccountType, debit, credit, balanceAfter decimal.Decimal, description string, createdAt time.Time) Entry {
	return Entry{
		id:            id,
		transactionID: transactionID,
		accountType:   accountType,
		debitAmount:   debit,
		creditAmount:  credit,
		balanceAfter:  balanceAfter,
		description:   description,
		createdAt:     createdAt,
	}
}
