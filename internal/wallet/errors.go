package wallet

import "errors"

var (
	// ErrNotFound is returned when no wallet exists for the given id or user.
	ErrNotFound = errors.New("wallet not found")

	// ErrWalletExists is returned when creating a second wallet for a user.
	ErrWalletExists = errors.New("wallet already exists for user")

	// ErrInvalidAmount is returned for zero or negative mutation amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidCurrency is returned for currencies outside the supported set.
	ErrInvalidCurrency = errors.New("unsupported currency")

	// ErrWalletInactive is returned when mutating a suspended or closed wallet.
	ErrWalletInactive = errors.New("wallet is not active")

	// ErrWalletClosed is returned when reactivating a closed wallet.
	ErrWalletClosed = errors.New("wallet is closed")

	// ErrInsufficientFunds is returned when the available balance cannot
	// cover a deduction or escrow hold.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrInsufficientEscrow is returned when the escrow balance cannot cover
	// a release.
	ErrInsufficientEscrow = errors.New("insufficient escrow balance")

	// ErrNonZeroBalance is returned when closing a wallet that still holds
	// funds in either balance.
	ErrNonZeroBalance = errors.New("wallet balances must be zero before closing")
)
