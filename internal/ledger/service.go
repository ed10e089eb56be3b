package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// Service provides the double-entry bookkeeping API. Every financial event
// must post entries in matched debit/credit pairs; CreateDoubleEntry is the
// unit of correctness and VerifyDoubleEntryBalance is its check.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a ledger service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateDebitEntry posts a single immutable debit entry.
func (s *Service) CreateDebitEntry(ctx context.Context, transactionID string, accountType AccountType, amount, balanceAfter decimal.Decimal, description string) (Entry, error) {
	e, err := NewDebitEntry(transactionID, accountType, amount, balanceAfter, description)
	if err != nil {
		return Entry{}, err
	}
	if err := s.store.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// CreateCreditEntry posts a single immutable credit entry.
func (s *Service) CreateCreditEntry(ctx context.Context, transactionID string, accountType AccountType, amount, balanceAfter decimal.Decimal, description string) (Entry, error) {
	e, err := NewCreditEntry(transactionID, accountType, amount, balanceAfter, description)
	if err != nil {
		return Entry{}, err
	}
	if err := s.store.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// DoubleEntry is the pair of entries created for one financial event.
type DoubleEntry struct {
	Debit  Entry
	Credit Entry
}

// CreateDoubleEntry posts one debit and one credit of equal amount, both
// tagged with the same transaction id.
func (s *Service) CreateDoubleEntry(ctx context.Context, transactionID string, debitAccount, creditAccount AccountType, amount, debitBalanceAfter, creditBalanceAfter decimal.Decimal, description string) (*DoubleEntry, error) {
	debit, err := NewDebitEntry(transactionID, debitAccount, amount, debitBalanceAfter, description)
	if err != nil {
		return nil, err
	}
	credit, err := NewCreditEntry(transactionID, creditAccount, amount, creditBalanceAfter, description)
	if err != nil {
		return nil, err
	}

	if err := s.store.Append(ctx, debit); err != nil {
		return nil, fmt.Errorf("failed to post debit entry: %w", err)
	}
	if err := s.store.Append(ctx, credit); err != nil {
		return nil, fmt.Errorf("failed to post credit entry: %w", err)
	}

	s.logger.Info("double_entry_posted",
		"transaction_id", transactionID,
		"debit_account", debitAccount,
		"credit_account", creditAccount,
		"amount", amount.String(),
	)
	return &DoubleEntry{Debit: debit, Credit: credit}, nil
}

// VerifyDoubleEntryBalance reports whether the transaction's debits exactly
// equal its credits. A read-only aggregation; the fundamental correctness
// check of the ledger.
func (s *Service) VerifyDoubleEntryBalance(ctx context.Context, transactionID string) (bool, error) {
	entries, err := s.store.ListByTransaction(ctx, transactionID)
	if err != nil {
		return false, err
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debits = debits.Add(e.DebitAmount())
		credits = credits.Add(e.CreditAmount())
	}
	return debits.Equal(credits), nil
}

// CalculateAccountBalance sums the account's entries under standard sign
// conventions: asset and expense accounts carry debit-normal balances
// (debits minus credits); liability, equity, and revenue accounts carry
// credit-normal balances (credits minus debits).
func (s *Service) CalculateAccountBalance(ctx context.Context, accountType AccountType) (decimal.Decimal, error) {
	if !accountType.Valid() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAccountType, accountType)
	}

	entries, err := s.store.ListByAccountType(ctx, accountType)
	if err != nil {
		return decimal.Zero, err
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debits = debits.Add(e.DebitAmount())
		credits = credits.Add(e.CreditAmount())
	}

	switch accountType {
	case AccountAsset, AccountExpense:
		return debits.Sub(credits), nil
	default:
		return credits.Sub(debits), nil
	}
}
