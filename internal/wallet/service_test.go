package wallet

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

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestCreateWallet(t *testing.T) {
	svc := newTestService(t)

	w, err := svc.CreateWallet(context.Background(), "user-1", money.USD, dec(t, "100"))
	require.NoError(t, err)

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "user-1", w.UserID)
	assert.Equal(t, StatusActive, w.Status)
	assert.Equal(t, "100.0000", w.Balance.StringFixed(money.Scale))
	assert.True(t, w.EscrowBalance.IsZero())
}

func TestCreateWalletOnePerUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateWallet(context.Background(), "user-1", money.USD, decimal.Zero)
	require.NoError(t, err)

	_, err = svc.CreateWallet(context.Background(), "user-1", money.NGN, decimal.Zero)
	assert.ErrorIs(t, err, ErrWalletExists)
}

func TestCreateWalletValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateWallet(ctx, "user-1", money.Currency("EUR"), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAddAndDeductBalance(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "50"))
	require.NoError(t, err)

	w2, err := svc.AddBalance(ctx, w.ID, dec(t, "25.5"))
	require.NoError(t, err)
	assert.Equal(t, "75.5000", w2.Balance.StringFixed(money.Scale))

	w3, err := svc.DeductBalance(ctx, w.ID, dec(t, "75.5"))
	require.NoError(t, err)
	assert.True(t, w3.Balance.IsZero())
}

func TestDeductBalanceInsufficient(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "10"))
	require.NoError(t, err)

	_, err = svc.DeductBalance(ctx, w.ID, dec(t, "10.0001"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Balance untouched after the failed deduct.
	got, err := svc.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0000", got.Balance.StringFixed(money.Scale))
}

func TestAmountMustBePositive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "10"))
	require.NoError(t, err)

	for _, amount := range []string{"0", "-5"} {
		_, err := svc.AddBalance(ctx, w.ID, dec(t, amount))
		assert.ErrorIs(t, err, ErrInvalidAmount, "add %s", amount)

		_, err = svc.DeductBalance(ctx, w.ID, dec(t, amount))
		assert.ErrorIs(t, err, ErrInvalidAmount, "deduct %s", amount)

		_, err = svc.MoveToEscrow(ctx, w.ID, dec(t, amount))
		assert.ErrorIs(t, err, ErrInvalidAmount, "escrow %s", amount)
	}
}

func TestEscrowRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "500"))
	require.NoError(t, err)

	w2, err := svc.MoveToEscrow(ctx, w.ID, dec(t, "105"))
	require.NoError(t, err)
	assert.Equal(t, "395.0000", w2.Balance.StringFixed(money.Scale))
	assert.Equal(t, "105.0000", w2.EscrowBalance.StringFixed(money.Scale))
	assert.Equal(t, "500.0000", w2.TotalBalance().StringFixed(money.Scale))

	w3, err := svc.ReleaseFromEscrow(ctx, w.ID, dec(t, "105"))
	require.NoError(t, err)
	assert.Equal(t, "500.0000", w3.Balance.StringFixed(money.Scale))
	assert.True(t, w3.EscrowBalance.IsZero())
}

func TestMoveToEscrowInsufficient(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "100"))
	require.NoError(t, err)

	_, err = svc.MoveToEscrow(ctx, w.ID, dec(t, "100.0001"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestReleaseFromEscrowInsufficient(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "100"))
	require.NoError(t, err)
	_, err = svc.MoveToEscrow(ctx, w.ID, dec(t, "40"))
	require.NoError(t, err)

	_, err = svc.ReleaseFromEscrow(ctx, w.ID, dec(t, "40.0001"))
	assert.ErrorIs(t, err, ErrInsufficientEscrow)
}

func TestSuspendedWalletBlocksBalanceOps(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "100"))
	require.NoError(t, err)

	_, err = svc.SuspendWallet(ctx, w.ID)
	require.NoError(t, err)

	_, err = svc.AddBalance(ctx, w.ID, dec(t, "10"))
	assert.ErrorIs(t, err, ErrWalletInactive)

	_, err = svc.DeductBalance(ctx, w.ID, dec(t, "10"))
	assert.ErrorIs(t, err, ErrWalletInactive)

	// Escrow moves stay available while suspended so in-flight holds can
	// still settle.
	_, err = svc.MoveToEscrow(ctx, w.ID, dec(t, "10"))
	assert.NoError(t, err)

	w2, err := svc.ActivateWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, w2.Status)
}

func TestCloseWallet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "10"))
	require.NoError(t, err)

	_, err = svc.CloseWallet(ctx, w.ID)
	assert.ErrorIs(t, err, ErrNonZeroBalance)

	_, err = svc.DeductBalance(ctx, w.ID, dec(t, "10"))
	require.NoError(t, err)

	w2, err := svc.CloseWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, w2.Status)

	// Closed is terminal.
	_, err = svc.ActivateWallet(ctx, w.ID)
	assert.ErrorIs(t, err, ErrWalletClosed)
	_, err = svc.SuspendWallet(ctx, w.ID)
	assert.ErrorIs(t, err, ErrWalletClosed)
}

func TestGetWalletByUserID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, decimal.Zero)
	require.NoError(t, err)

	got, err := svc.GetWalletByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	_, err = svc.GetWalletByUserID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreHandsOutCopies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "user-1", money.USD, dec(t, "100"))
	require.NoError(t, err)

	got, err := svc.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	got.Balance = dec(t, "999999")

	again, err := svc.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.0000", again.Balance.StringFixed(money.Scale))
}
