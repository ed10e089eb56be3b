package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/taskpay/internal/money"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), nil)
}

func TestCreateDoubleEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	de, err := svc.CreateDoubleEntry(ctx, "txn-1",
		AccountAsset, AccountLiability,
		money.MustParse("105"),
		money.MustParse("395"), money.MustParse("105"),
		"escrow hold for task-1")
	require.NoError(t, err)

	assert.True(t, de.Debit.IsDebit())
	assert.False(t, de.Credit.IsDebit())
	assert.Equal(t, "txn-1", de.Debit.TransactionID())
	assert.Equal(t, "txn-1", de.Credit.TransactionID())
	assert.True(t, de.Debit.DebitAmount().Equal(de.Credit.CreditAmount()))

	ok, err := svc.VerifyDoubleEntryBalance(ctx, "txn-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyDoubleEntryBalanceUnbalanced(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDebitEntry(ctx, "txn-lone", AccountAsset, money.MustParse("50"), decimal.Zero, "orphan debit")
	require.NoError(t, err)

	ok, err := svc.VerifyDoubleEntryBalance(ctx, "txn-lone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyDoubleEntryBalanceNoEntries(t *testing.T) {
	svc := newTestService(t)

	// Vacuously balanced: zero debits equal zero credits.
	ok, err := svc.VerifyDoubleEntryBalance(context.Background(), "txn-missing")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEntryFactoriesValidate(t *testing.T) {
	_, err := NewDebitEntry("txn-1", AccountAsset, decimal.Zero, decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewCreditEntry("txn-1", AccountAsset, money.MustParse("-5"), decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewDebitEntry("txn-1", AccountType("piggy_bank"), money.MustParse("5"), decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAccountType)

	_, err = NewDebitEntry("", AccountAsset, money.MustParse("5"), decimal.Zero, "")
	assert.Error(t, err)
}

func TestCalculateAccountBalanceSignConventions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Asset: debit 100, credit 30 -> debit-normal balance 70.
	_, err := svc.CreateDebitEntry(ctx, "txn-a", AccountAsset, money.MustParse("100"), decimal.Zero, "")
	require.NoError(t, err)
	_, err = svc.CreateCreditEntry(ctx, "txn-b", AccountAsset, money.MustParse("30"), decimal.Zero, "")
	require.NoError(t, err)

	// Revenue: credit 30 -> credit-normal balance 30.
	_, err = svc.CreateCreditEntry(ctx, "txn-b", AccountRevenue, money.MustParse("30"), decimal.Zero, "")
	require.NoError(t, err)

	asset, err := svc.CalculateAccountBalance(ctx, AccountAsset)
	require.NoError(t, err)
	assert.Equal(t, "70.0000", asset.StringFixed(money.Scale))

	revenue, err := svc.CalculateAccountBalance(ctx, AccountRevenue)
	require.NoError(t, err)
	assert.Equal(t, "30.0000", revenue.StringFixed(money.Scale))

	// Liability: debit 40 with no credits -> negative credit-normal balance.
	_, err = svc.CreateDebitEntry(ctx, "txn-c", AccountLiability, money.MustParse("40"), decimal.Zero, "")
	require.NoError(t, err)

	liability, err := svc.CalculateAccountBalance(ctx, AccountLiability)
	require.NoError(t, err)
	assert.Equal(t, "-40.0000", liability.StringFixed(money.Scale))

	_, err = svc.CalculateAccountBalance(ctx, AccountType("nope"))
	assert.ErrorIs(t, err, ErrInvalidAccountType)
}

func TestListByTransaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDoubleEntry(ctx, "txn-1", AccountAsset, AccountLiability,
		money.MustParse("10"), decimal.Zero, decimal.Zero, "")
	require.NoError(t, err)
	_, err = svc.CreateDoubleEntry(ctx, "txn-2", AccountAsset, AccountLiability,
		money.MustParse("20"), decimal.Zero, decimal.Zero, "")
	require.NoError(t, err)

	entries, err := svc.store.ListByTransaction(ctx, "txn-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "txn-1", e.TransactionID())
	}
}
