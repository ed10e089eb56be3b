package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/escrow"
	"github.com/example/taskpay/internal/money"
	"github.com/example/taskpay/internal/security"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
)

type escrowRequest struct {
	TaskID                string `json:"task_id"`
	PayerWalletID         string `json:"payer_wallet_id"`
	PayeeWalletID         string `json:"payee_wallet_id"`
	Amount                string `json:"amount"`
	PlatformFeePercentage string `json:"platform_fee_percentage"`
}

func (req escrowRequest) params(defaultFee decimal.Decimal) (escrow.Params, error) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return escrow.Params{}, err
	}
	pct := defaultFee
	if req.PlatformFeePercentage != "" {
		pct, err = decimal.NewFromString(req.PlatformFeePercentage)
		if err != nil {
			return escrow.Params{}, err
		}
	}
	return escrow.Params{
		TaskID:                req.TaskID,
		PayerWalletID:         req.PayerWalletID,
		PayeeWalletID:         req.PayeeWalletID,
		Amount:                amount,
		PlatformFeePercentage: pct,
	}, nil
}

func handleHold(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req escrowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}
		p, err := req.params(deps.DefaultPlatformFee)
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		result, err := deps.Escrow.HoldFunds(r.Context(), p)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, result)
	}
}

func handleRelease(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req escrowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}
		p, err := req.params(deps.DefaultPlatformFee)
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		result, err := deps.Escrow.ReleaseFunds(r.Context(), p)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}

func handleEscrowStatus(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskID")

		status, err := deps.Escrow.EscrowStatus(r.Context(), taskID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if status == nil {
			security.WriteJSONError(w, r, http.StatusNotFound, "escrow_not_found")
			return
		}
		writeJSON(w, r, http.StatusOK, status)
	}
}

type createWalletRequest struct {
	UserID         string `json:"user_id"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initial_balance"`
}

func handleCreateWallet(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createWalletRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		initial := decimal.Zero
		if req.InitialBalance != "" {
			var err error
			initial, err = money.Parse(req.InitialBalance)
			if err != nil {
				security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
				return
			}
		}

		wlt, err := deps.Wallets.CreateWallet(r.Context(), req.UserID, money.Currency(req.Currency), initial)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, wlt)
	}
}

func handleGetWallet(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wlt, err := deps.Wallets.GetWallet(r.Context(), chi.URLParam(r, "walletID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, wlt)
	}
}

func handleWalletStatus(deps Dependencies, op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "walletID")

		var (
			wlt *wallet.Wallet
			err error
		)
		switch op {
		case "suspend":
			wlt, err = deps.Wallets.SuspendWallet(r.Context(), id)
		case "activate":
			wlt, err = deps.Wallets.ActivateWallet(r.Context(), id)
		case "close":
			wlt, err = deps.Wallets.CloseWallet(r.Context(), id)
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, wlt)
	}
}

func handleListTransactions(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := transaction.Filter{
			WalletID: q.Get("wallet_id"),
			Type:     transaction.Type(q.Get("type")),
			Status:   transaction.Status(q.Get("status")),
		}
		if v := q.Get("page"); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				f.Page = i
			}
		}
		if v := q.Get("page_size"); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				f.PageSize = i
			}
		}

		page, err := deps.Transactions.List(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, page)
	}
}

