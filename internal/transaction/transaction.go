package transaction

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/taskpay/internal/money"
)

// Type classifies a money movement.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeTransfer   Type = "transfer"
	TypePayment    Type = "payment"
	TypeRefund     Type = "refund"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypePayment, TypeRefund:
		return true
	}
	return false
}

// Status is a transaction lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Well-known metadata keys written by the escrow flow. Metadata is an open
// bag; these keys are the ones reconciliation tooling depends on.
const (
	MetaTaskID                = "task_id"
	MetaPayeeWalletID         = "payee_wallet_id"
	MetaBaseAmount            = "base_amount"
	MetaPlatformFee           = "platform_fee"
	MetaPlatformFeePercentage = "platform_fee_percentage"
	MetaEscrowType            = "escrow_type"
	MetaTransactionType       = "transaction_type"
	MetaError                 = "error"
)

// Transaction records one money movement against a wallet. Reference,
// amount, wallet id, and type are immutable from creation; only status,
// gateway reference, and metadata change, and never after completion.
type Transaction struct {
	ID               string          `json:"id"`
	Reference        string          `json:"reference"`
	WalletID         string          `json:"wallet_id"`
	Type             Type            `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         money.Currency  `json:"currency"`
	Status           Status          `json:"status"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	Description      string          `json:"description,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Clone returns a deep copy (metadata included).
func (t *Transaction) Clone() *Transaction {
	cp := *t
	if t.Metadata != nil {
		cp.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// MetaString returns the metadata value for key if it is a string.
func (t *Transaction) MetaString(key string) (string, bool) {
	if t.Metadata == nil {
		return "", false
	}
	s, ok := t.Metadata[key].(string)
	return s, ok
}

// NewReference generates a unique human-inspectable transaction reference,
// e.g. TXN-20240131154502-9F3A21BC.
func NewReference() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand never fails on supported platforms; fall back anyway.
		copy(suffix, uuid.New().NodeID())
	}
	return fmt.Sprintf("TXN-%s-%s",
		time.Now().UTC().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(suffix)))
}
