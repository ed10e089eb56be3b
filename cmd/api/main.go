package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/example/taskpay/internal/api"
	"github.com/example/taskpay/internal/config"
	"github.com/example/taskpay/internal/escrow"
	"github.com/example/taskpay/internal/ledger"
	"github.com/example/taskpay/internal/security"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
	"github.com/example/taskpay/pkg/audit"
)

type schemaStep struct {
	name   string
	ensure func(context.Context) error
}

// schemaSteps orders the DDL by foreign key dependency: transactions
// reference wallets and ledger entries reference transactions, so each
// table must exist before its dependents are created.
func schemaSteps(ws *wallet.PostgresStore, ts *transaction.PostgresStore, ls *ledger.PostgresStore) []schemaStep {
	return []schemaStep{
		{name: "wallets", ensure: ws.EnsureSchema},
		{name: "transactions", ensure: ts.EnsureSchema},
		{name: "ledger_entries", ensure: ls.EnsureSchema},
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	walletStore := wallet.NewPostgresStore(pool)
	txStore := transaction.NewPostgresStore(pool)
	ledgerStore := ledger.NewPostgresStore(pool)

	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer schemaCancel()
	for _, step := range schemaSteps(walletStore, txStore, ledgerStore) {
		if err := step.ensure(schemaCtx); err != nil {
			logger.Error("failed to ensure schema", "table", step.name, "error", err)
			os.Exit(1)
		}
	}

	walletSvc := wallet.NewService(walletStore, logger)
	txSvc := transaction.NewService(txStore, logger)
	ledgerSvc := ledger.NewService(ledgerStore, logger)

	auditor := audit.NewChainLogger()

	escrowSvc := escrow.NewService(escrow.Deps{
		Wallets:      walletSvc,
		Transactions: txSvc,
		Ledger:       ledgerSvc,
		Auditor:      auditor,
		Logger:       logger,
		RecordLedger: cfg.RecordLedger,
	})

	rateLimiter := &security.RedisTokenBucket{
		Redis:      redisClient,
		Prefix:     "taskpay_api",
		Capacity:   cfg.RateLimitCapacity,
		RefillRate: float64(cfg.RateLimitRefillRate),
	}

	router, err := api.NewRouter(api.Dependencies{
		Logger:       logger,
		Wallets:      walletSvc,
		Transactions: txSvc,
		Escrow:       escrowSvc,
		Auditor:      auditor,
		RateLimiter:  rateLimiter,
		MaxBodyBytes: cfg.MaxBodyBytes,

		DefaultPlatformFee: cfg.DefaultPlatformFeePercentage,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("taskpay api listening", "addr", cfg.APIAddr, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
