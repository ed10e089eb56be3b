package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/ledger"
	"github.com/example/taskpay/internal/money"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
	"github.com/example/taskpay/pkg/audit"
)

// Escrow states reported to callers.
const (
	StatusHeld     = "held"
	StatusReleased = "released"
	StatusRefunded = "refunded"
)

// Auditor receives one tamper-evident record per protocol step.
type Auditor interface {
	Record(ev audit.Event) *audit.LogEntry
}

// Deps are the collaborators the escrow service composes. Ledger is
// optional; when set together with RecordLedger, hold and release post
// matched double entries.
type Deps struct {
	Wallets      *wallet.Service
	Transactions *transaction.Service
	Ledger       *ledger.Service
	Auditor      Auditor
	Logger       *slog.Logger
	RecordLedger bool
}

// Service implements the two-phase hold/release escrow protocol for task
// payments. There is no cross-operation database transaction: each wallet
// mutation commits on its own, and correctness on partial failure rests on
// the compensation logic in ReleaseFunds. Within one call, steps run
// strictly sequentially because each precondition depends on the previous
// step's committed effect.
type Service struct {
	wallets      *wallet.Service
	transactions *transaction.Service
	ledger       *ledger.Service
	auditor      Auditor
	logger       *slog.Logger
	recordLedger bool
}

// NewService creates an escrow service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		wallets:      deps.Wallets,
		transactions: deps.Transactions,
		ledger:       deps.Ledger,
		auditor:      deps.Auditor,
		logger:       logger,
		recordLedger: deps.RecordLedger && deps.Ledger != nil,
	}
}

// Params identify one task payment: who pays, who gets paid, the base
// amount, and the platform's fee fraction.
type Params struct {
	TaskID                string
	PayerWalletID         string
	PayeeWalletID         string
	Amount                decimal.Decimal
	PlatformFeePercentage decimal.Decimal
}

// Result describes the escrow position after a hold, release, or refund.
type Result struct {
	TaskID        string          `json:"task_id"`
	PayerWalletID string          `json:"payer_wallet_id"`
	PayeeWalletID string          `json:"payee_wallet_id"`
	Amount        decimal.Decimal `json:"amount"`
	PlatformFee   decimal.Decimal `json:"platform_fee"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id"`
}

func (p Params) validate() error {
	if p.TaskID == "" {
		return fmt.Errorf("%w: task id is required", wallet.ErrInvalidAmount)
	}
	if !money.IsPositive(p.Amount) {
		return wallet.ErrInvalidAmount
	}
	if money.IsNegative(p.PlatformFeePercentage) || p.PlatformFeePercentage.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidPercentage
	}
	return nil
}

// fee economics: the platform fee rides on top of the base amount and both
// travel through escrow together. The fee is retained by the platform on
// release, never credited to the payee.
func economics(amount, pct decimal.Decimal) (fee, total decimal.Decimal) {
	fee = money.Quantize(amount.Mul(pct))
	total = money.Quantize(amount.Add(fee))
	return fee, total
}

// HoldFunds moves amount plus platform fee from the payer's available
// balance into escrow and records a pending payment transaction. The hold
// is a single wallet mutation, so no compensation is needed: either the
// move commits or nothing happened.
func (s *Service) HoldFunds(ctx context.Context, p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	payer, err := s.wallets.GetWallet(ctx, p.PayerWalletID)
	if err != nil {
		return nil, err
	}

	fee, total := economics(money.Quantize(p.Amount), p.PlatformFeePercentage)
	if payer.Balance.LessThan(total) {
		return nil, wallet.ErrInsufficientFunds
	}

	if _, err := s.wallets.MoveToEscrow(ctx, p.PayerWalletID, total); err != nil {
		return nil, err
	}

	tx, err := s.transactions.Create(ctx, transaction.CreateParams{
		WalletID:    p.PayerWalletID,
		Type:        transaction.TypePayment,
		Amount:      total,
		Currency:    payer.Currency,
		Description: fmt.Sprintf("Escrow hold for task %s", p.TaskID),
		Metadata: map[string]any{
			transaction.MetaTaskID:                p.TaskID,
			transaction.MetaPayeeWalletID:         p.PayeeWalletID,
			transaction.MetaBaseAmount:            p.Amount.String(),
			transaction.MetaPlatformFee:           fee.String(),
			transaction.MetaPlatformFeePercentage: p.PlatformFeePercentage.String(),
			transaction.MetaEscrowType:            "hold",
		},
	})
	if err != nil {
		return nil, err
	}

	if s.recordLedger {
		// Held funds move from the platform's asset position into a
		// liability owed to the task outcome.
		if _, lerr := s.ledger.CreateDoubleEntry(ctx, tx.ID,
			ledger.AccountAsset, ledger.AccountLiability,
			total, decimal.Zero, total,
			fmt.Sprintf("escrow hold %s", p.TaskID)); lerr != nil {
			s.logger.Error("ledger_record_failed", "task_id", p.TaskID, "error", lerr)
		}
	}

	s.audit(audit.Event{Operation: "hold", TaskID: p.TaskID, WalletID: p.PayerWalletID, Amount: total.String()})
	s.logger.Info("escrow_held",
		"task_id", p.TaskID, "payer_wallet_id", p.PayerWalletID,
		"amount", p.Amount.String(), "platform_fee", fee.String(), "total", total.String())

	return &Result{
		TaskID:        p.TaskID,
		PayerWalletID: p.PayerWalletID,
		PayeeWalletID: p.PayeeWalletID,
		Amount:        money.Quantize(p.Amount),
		PlatformFee:   fee,
		TotalAmount:   total,
		Status:        StatusHeld,
		TransactionID: tx.ID,
	}, nil
}

// ReleaseFunds settles a held task payment: the held total leaves the
// payer's escrow and the base amount lands in the payee's available
// balance; the platform retains the fee.
//
// The economics are sourced from the hold transaction's metadata when one
// exists, so a caller supplying a different amount or fee percentage at
// release time cannot desynchronize the release from what was actually
// held. Caller-supplied values apply only when no hold transaction is found.
//
// The three wallet mutations commit independently. A failure after step A
// or B triggers manual compensation restoring the payer's pre-call state,
// and the original error is surfaced. A failed compensation surfaces as
// *CompensationError: wallets and transactions now disagree and require
// reconciliation.
func (s *Service) ReleaseFunds(ctx context.Context, p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	payer, err := s.wallets.GetWallet(ctx, p.PayerWalletID)
	if err != nil {
		return nil, err
	}
	if _, err := s.wallets.GetWallet(ctx, p.PayeeWalletID); err != nil {
		return nil, err
	}

	amount := money.Quantize(p.Amount)
	fee, total := economics(amount, p.PlatformFeePercentage)

	holdTx, err := s.transactions.LatestByTask(ctx, p.TaskID, transaction.TypePayment)
	if err != nil && !errors.Is(err, transaction.ErrNotFound) {
		return nil, err
	}
	if holdTx != nil {
		if heldAmount, heldFee, ok := heldEconomics(holdTx); ok {
			if !heldAmount.Equal(amount) || !heldFee.Equal(fee) {
				s.logger.Warn("release_economics_mismatch",
					"task_id", p.TaskID,
					"caller_amount", amount.String(), "held_amount", heldAmount.String(),
					"caller_fee", fee.String(), "held_fee", heldFee.String())
			}
			amount, fee = heldAmount, heldFee
			total = money.Quantize(amount.Add(fee))
		}
	}

	if payer.EscrowBalance.LessThan(total) {
		return nil, wallet.ErrInsufficientEscrow
	}

	// Step A: escrow back to the payer's available balance.
	if _, err := s.wallets.ReleaseFromEscrow(ctx, p.PayerWalletID, total); err != nil {
		return nil, err
	}

	// Step B: take the payment out of the payer's available balance.
	if _, err := s.wallets.DeductBalance(ctx, p.PayerWalletID, total); err != nil {
		if _, cerr := s.wallets.MoveToEscrow(ctx, p.PayerWalletID, total); cerr != nil {
			return nil, s.compensationFailure("deduct_balance", p, err, cerr)
		}
		s.audit(audit.Event{Operation: "compensate", TaskID: p.TaskID, WalletID: p.PayerWalletID, Amount: total.String(), Detail: "deduct failed, escrow restored"})
		return nil, err
	}

	// Step C: credit the payee with the base amount only.
	if _, err := s.wallets.AddBalance(ctx, p.PayeeWalletID, amount); err != nil {
		if _, cerr := s.wallets.AddBalance(ctx, p.PayerWalletID, total); cerr != nil {
			return nil, s.compensationFailure("add_payee_balance", p, err, cerr)
		}
		if _, cerr := s.wallets.MoveToEscrow(ctx, p.PayerWalletID, total); cerr != nil {
			return nil, s.compensationFailure("add_payee_balance", p, err, cerr)
		}
		s.audit(audit.Event{Operation: "compensate", TaskID: p.TaskID, WalletID: p.PayerWalletID, Amount: total.String(), Detail: "payee credit failed, hold restored"})
		return nil, err
	}

	if holdTx != nil && holdTx.Status == transaction.StatusPending {
		if _, err := s.transactions.MarkAsCompleted(ctx, holdTx.ID, ""); err != nil {
			s.logger.Error("hold_transaction_completion_failed", "task_id", p.TaskID, "transaction_id", holdTx.ID, "error", err)
		}
	}

	payerTx, err := s.completedTransaction(ctx, transaction.CreateParams{
		WalletID:    p.PayerWalletID,
		Type:        transaction.TypePayment,
		Amount:      total,
		Currency:    payer.Currency,
		Description: fmt.Sprintf("Escrow release for task %s", p.TaskID),
		Metadata: map[string]any{
			transaction.MetaTaskID:          p.TaskID,
			transaction.MetaPayeeWalletID:   p.PayeeWalletID,
			transaction.MetaBaseAmount:      amount.String(),
			transaction.MetaPlatformFee:     fee.String(),
			transaction.MetaEscrowType:      "release",
			transaction.MetaTransactionType: "payment",
		},
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.completedTransaction(ctx, transaction.CreateParams{
		WalletID:    p.PayeeWalletID,
		Type:        transaction.TypeDeposit,
		Amount:      amount,
		Currency:    payer.Currency,
		Description: fmt.Sprintf("Payment received for task %s", p.TaskID),
		Metadata: map[string]any{
			transaction.MetaTaskID:          p.TaskID,
			transaction.MetaTransactionType: "receipt",
		},
	}); err != nil {
		return nil, err
	}

	if s.recordLedger {
		if _, lerr := s.ledger.CreateDoubleEntry(ctx, payerTx.ID,
			ledger.AccountLiability, ledger.AccountRevenue,
			fee, decimal.Zero, fee,
			fmt.Sprintf("platform fee %s", p.TaskID)); lerr != nil {
			s.logger.Error("ledger_record_failed", "task_id", p.TaskID, "error", lerr)
		}
	}

	s.audit(audit.Event{Operation: "release", TaskID: p.TaskID, WalletID: p.PayerWalletID, Amount: total.String()})
	s.logger.Info("escrow_released",
		"task_id", p.TaskID, "payer_wallet_id", p.PayerWalletID, "payee_wallet_id", p.PayeeWalletID,
		"amount", amount.String(), "platform_fee", fee.String(), "total", total.String())

	return &Result{
		TaskID:        p.TaskID,
		PayerWalletID: p.PayerWalletID,
		PayeeWalletID: p.PayeeWalletID,
		Amount:        amount,
		PlatformFee:   fee,
		TotalAmount:   total,
		Status:        StatusReleased,
		TransactionID: payerTx.ID,
	}, nil
}

// RefundFunds returns a held task payment to the payer: the held total
// moves from escrow back to the payer's available balance, the hold
// transaction is cancelled, and a completed refund transaction keeps the
// audit trail whole. Used when a task is rejected.
func (s *Service) RefundFunds(ctx context.Context, taskID, payerWalletID string) (*Result, error) {
	holdTx, err := s.transactions.LatestByTask(ctx, taskID, transaction.TypePayment)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoHoldTransaction, taskID)
		}
		return nil, err
	}
	if holdTx.WalletID != payerWalletID {
		return nil, fmt.Errorf("%w: hold belongs to wallet %s", ErrNoHoldTransaction, holdTx.WalletID)
	}

	total := holdTx.Amount
	payer, err := s.wallets.GetWallet(ctx, payerWalletID)
	if err != nil {
		return nil, err
	}

	if _, err := s.wallets.ReleaseFromEscrow(ctx, payerWalletID, total); err != nil {
		return nil, err
	}

	if holdTx.Status == transaction.StatusPending {
		if _, err := s.transactions.Cancel(ctx, holdTx.ID); err != nil {
			s.logger.Error("hold_transaction_cancel_failed", "task_id", taskID, "transaction_id", holdTx.ID, "error", err)
		}
	}

	refundTx, err := s.completedTransaction(ctx, transaction.CreateParams{
		WalletID:    payerWalletID,
		Type:        transaction.TypeRefund,
		Amount:      total,
		Currency:    payer.Currency,
		Description: fmt.Sprintf("Escrow refund for task %s", taskID),
		Metadata: map[string]any{
			transaction.MetaTaskID:     taskID,
			transaction.MetaEscrowType: "refund",
		},
	})
	if err != nil {
		return nil, err
	}

	s.audit(audit.Event{Operation: "refund", TaskID: taskID, WalletID: payerWalletID, Amount: total.String()})
	s.logger.Info("escrow_refunded", "task_id", taskID, "payer_wallet_id", payerWalletID, "total", total.String())

	baseAmount := total
	fee := decimal.Zero
	if amt, f, ok := heldEconomics(holdTx); ok {
		baseAmount, fee = amt, f
	}

	return &Result{
		TaskID:        taskID,
		PayerWalletID: payerWalletID,
		Amount:        baseAmount,
		PlatformFee:   fee,
		TotalAmount:   total,
		Status:        StatusRefunded,
		TransactionID: refundTx.ID,
	}, nil
}

// StatusResult is the derived escrow position for a task.
type StatusResult struct {
	TaskID        string `json:"task_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// EscrowStatus derives the task's escrow state from its most recent payment
// transaction: pending means held, cancelled means refunded, anything else
// means released. Returns (nil, nil) when the task has no escrow history.
func (s *Service) EscrowStatus(ctx context.Context, taskID string) (*StatusResult, error) {
	tx, err := s.transactions.LatestByTask(ctx, taskID, transaction.TypePayment)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	status := StatusReleased
	switch tx.Status {
	case transaction.StatusPending:
		status = StatusHeld
	case transaction.StatusCancelled:
		status = StatusRefunded
	}

	return &StatusResult{TaskID: taskID, Status: status, TransactionID: tx.ID}, nil
}

// completedTransaction records a transaction and immediately finalizes it,
// for movements whose wallet effects have already committed.
func (s *Service) completedTransaction(ctx context.Context, p transaction.CreateParams) (*transaction.Transaction, error) {
	tx, err := s.transactions.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.transactions.MarkAsCompleted(ctx, tx.ID, "")
}

func (s *Service) compensationFailure(step string, p Params, original, compensation error) error {
	cerr := &CompensationError{Step: step, Original: original, Compensation: compensation}
	s.audit(audit.Event{Operation: "compensation_failure", TaskID: p.TaskID, WalletID: p.PayerWalletID, Detail: cerr.Error()})
	s.logger.Error("escrow_compensation_failed",
		"task_id", p.TaskID, "step", step,
		"original_error", original, "compensation_error", compensation)
	return cerr
}

func (s *Service) audit(ev audit.Event) {
	if s.auditor != nil {
		s.auditor.Record(ev)
	}
}

// heldEconomics extracts the base amount and fee recorded on a hold
// transaction's metadata.
func heldEconomics(tx *transaction.Transaction) (amount, fee decimal.Decimal, ok bool) {
	rawAmount, okA := tx.MetaString(transaction.MetaBaseAmount)
	rawFee, okF := tx.MetaString(transaction.MetaPlatformFee)
	if !okA || !okF {
		return decimal.Zero, decimal.Zero, false
	}
	amount, errA := decimal.NewFromString(rawAmount)
	fee, errF := decimal.NewFromString(rawFee)
	if errA != nil || errF != nil {
		return decimal.Zero, decimal.Zero, false
	}
	return money.Quantize(amount), money.Quantize(fee), true
}
