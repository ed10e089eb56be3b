package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/taskpay/internal/escrow"
)

// Handler maps task lifecycle events onto escrow operations:
//
//	task.completed -> HoldFunds
//	task.verified  -> ReleaseFunds
//	task.rejected  -> RefundFunds (refund transaction keeps the audit trail)
//	task.disputed  -> logged freeze notice, no wallet mutation
type Handler struct {
	escrow *escrow.Service
	dedupe Deduper
	logger *slog.Logger
}

// NewHandler creates a task event handler.
func NewHandler(es *escrow.Service, dedupe Deduper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{escrow: es, dedupe: dedupe, logger: logger}
}

// Handle applies one event. Redelivered events (same id) are skipped and
// return nil; processing errors propagate to the consumer for its retry
// policy.
func (h *Handler) Handle(ctx context.Context, ev TaskEvent) error {
	if err := ev.validate(); err != nil {
		return err
	}

	if h.dedupe != nil {
		fresh, err := h.dedupe.MarkProcessed(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("dedupe check failed: %w", err)
		}
		if !fresh {
			h.logger.Info("task_event_duplicate_skipped", "event_id", ev.ID, "type", ev.Type)
			return nil
		}
	}

	params := escrow.Params{
		TaskID:                ev.TaskID,
		PayerWalletID:         ev.PayerWalletID,
		PayeeWalletID:         ev.PayeeWalletID,
		Amount:                ev.Amount,
		PlatformFeePercentage: ev.PlatformFeePercentage,
	}

	switch ev.Type {
	case TaskCompleted:
		_, err := h.escrow.HoldFunds(ctx, params)
		return err
	case TaskVerified:
		_, err := h.escrow.ReleaseFunds(ctx, params)
		return err
	case TaskRejected:
		_, err := h.escrow.RefundFunds(ctx, ev.TaskID, ev.PayerWalletID)
		return err
	case TaskDisputed:
		// Disputes freeze the task's funds in place: the hold stays, no
		// wallet is mutated, and resolution arrives as a later verified or
		// rejected event.
		h.logger.Warn("task_disputed_funds_frozen",
			"event_id", ev.ID, "task_id", ev.TaskID, "payer_wallet_id", ev.PayerWalletID)
		return nil
	default:
		return ErrUnknownEventType
	}
}
