package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/taskpay/internal/escrow"
	"github.com/example/taskpay/internal/security"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
)

// writeJSON encodes a success payload with the request's correlation id
// echoed on the response. Error bodies go through writeServiceError below
// so every error carries the same envelope.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if cid := security.CorrelationIDFromContext(r.Context()); cid != "" {
		w.Header().Set(security.CorrelationIDHeader, cid)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError translates service-layer error kinds into HTTP codes.
// This is the only layer that recovers errors; services always raise.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var compErr *escrow.CompensationError
	var transitionErr *transaction.StatusTransitionError

	switch {
	case errors.As(err, &compErr):
		security.WriteJSONErrorMessage(w, r, http.StatusInternalServerError, "compensation_failure", compErr.Error())
	case errors.Is(err, wallet.ErrNotFound), errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, escrow.ErrNoHoldTransaction):
		security.WriteJSONErrorMessage(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds):
		security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "insufficient_funds", err.Error())
	case errors.Is(err, wallet.ErrInsufficientEscrow):
		security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "insufficient_escrow", err.Error())
	case errors.Is(err, wallet.ErrWalletExists):
		security.WriteJSONErrorMessage(w, r, http.StatusConflict, "wallet_exists", err.Error())
	case errors.Is(err, transaction.ErrDuplicateReference):
		security.WriteJSONErrorMessage(w, r, http.StatusConflict, "duplicate_reference", err.Error())
	case errors.As(err, &transitionErr):
		security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "state_conflict", err.Error())
	case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, wallet.ErrInvalidCurrency),
		errors.Is(err, wallet.ErrWalletInactive), errors.Is(err, wallet.ErrWalletClosed),
		errors.Is(err, wallet.ErrNonZeroBalance), errors.Is(err, escrow.ErrInvalidPercentage),
		errors.Is(err, transaction.ErrInvalidAmount), errors.Is(err, transaction.ErrInvalidType),
		errors.Is(err, transaction.ErrInvalidCurrency):
		security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
	default:
		security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
	}
}
