package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/escrow"
	"github.com/example/taskpay/internal/security"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
	"github.com/example/taskpay/pkg/audit"
)

// Auditor appends raw payloads to the tamper-evident chain.
type Auditor interface {
	Append(payload string) *audit.LogEntry
}

// EscrowService is the three-operation contract the HTTP layer may call,
// plus the refund path for rejected tasks.
type EscrowService interface {
	HoldFunds(ctx context.Context, p escrow.Params) (*escrow.Result, error)
	ReleaseFunds(ctx context.Context, p escrow.Params) (*escrow.Result, error)
	RefundFunds(ctx context.Context, taskID, payerWalletID string) (*escrow.Result, error)
	EscrowStatus(ctx context.Context, taskID string) (*escrow.StatusResult, error)
}

// Dependencies wires the router to the service layer.
type Dependencies struct {
	Logger *slog.Logger

	Escrow       EscrowService
	Wallets      *wallet.Service
	Transactions *transaction.Service

	Auditor      Auditor
	RateLimiter  *security.RedisTokenBucket
	MaxBodyBytes int64

	// DefaultPlatformFee applies to hold requests that omit an explicit
	// platform_fee_percentage.
	DefaultPlatformFee decimal.Decimal
}

// NewRouter builds the HTTP surface. Request/response shapes mirror the
// service layer; all errors come back as uniform JSON with a correlation id.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	holdV, err := security.NewJSONSchemaValidator(holdSchema)
	if err != nil {
		return nil, err
	}
	releaseV, err := security.NewJSONSchemaValidator(releaseSchema)
	if err != nil {
		return nil, err
	}
	createWalletV, err := security.NewJSONSchemaValidator(createWalletSchema)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(security.CorrelationID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(security.BodySizeLimit(deps.MaxBodyBytes))
	if deps.RateLimiter != nil {
		r.Use(security.RateLimitMiddleware(deps.RateLimiter, rateLimitKeyByIP))
	}
	if deps.Auditor != nil {
		r.Use(AuditMiddleware(deps.Auditor))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/escrow", func(r chi.Router) {
			r.With(holdV.Middleware).Post("/hold", handleHold(deps))
			r.With(releaseV.Middleware).Post("/release", handleRelease(deps))
			r.Get("/{taskID}", handleEscrowStatus(deps))
		})

		r.Route("/wallets", func(r chi.Router) {
			r.With(createWalletV.Middleware).Post("/", handleCreateWallet(deps))
			r.Get("/{walletID}", handleGetWallet(deps))
			r.Post("/{walletID}/suspend", handleWalletStatus(deps, "suspend"))
			r.Post("/{walletID}/activate", handleWalletStatus(deps, "activate"))
			r.Post("/{walletID}/close", handleWalletStatus(deps, "close"))
		})

		r.Get("/transactions", handleListTransactions(deps))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return r, nil
}

func rateLimitKeyByIP(r *http.Request) string {
	return security.ClientIP(r)
}
