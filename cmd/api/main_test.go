package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/taskpay/internal/ledger"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
)

func TestSchemaStepsFollowForeignKeyOrder(t *testing.T) {
	steps := schemaSteps(
		wallet.NewPostgresStore(nil),
		transaction.NewPostgresStore(nil),
		ledger.NewPostgresStore(nil),
	)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		require.NotNil(t, s.ensure)
		names = append(names, s.name)
	}
	require.Equal(t, []string{"wallets", "transactions", "ledger_entries"}, names)
}
