package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/example/taskpay/internal/config"
	"github.com/example/taskpay/internal/escrow"
	"github.com/example/taskpay/internal/events"
	"github.com/example/taskpay/internal/ledger"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
	"github.com/example/taskpay/pkg/audit"
)

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

	walletSvc := wallet.NewService(wallet.NewPostgresStore(pool), logger)
	txSvc := transaction.NewService(transaction.NewPostgresStore(pool), logger)
	ledgerSvc := ledger.NewService(ledger.NewPostgresStore(pool), logger)

	escrowSvc := escrow.NewService(escrow.Deps{
		Wallets:      walletSvc,
		Transactions: txSvc,
		Ledger:       ledgerSvc,
		Auditor:      audit.NewChainLogger(),
		Logger:       logger,
		RecordLedger: cfg.RecordLedger,
	})

	dedupe := &events.RedisDeduper{Redis: redisClient, Prefix: "taskpay_events", TTL: 24 * time.Hour}

	consumer := &events.Consumer{
		Redis:   redisClient,
		Queue:   cfg.EventQueue,
		Handler: events.NewHandler(escrowSvc, dedupe, logger),
		Logger:  logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("task event consumer started", "queue", cfg.EventQueue, "env", cfg.Environment)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("task event consumer stopped")
}
