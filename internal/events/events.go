package events

import (
	"errors"

	"github.com/shopspring/decimal"
)

// EventType identifies a task lifecycle event.
type EventType string

const (
	TaskCompleted EventType = "task.completed"
	TaskVerified  EventType = "task.verified"
	TaskRejected  EventType = "task.rejected"
	TaskDisputed  EventType = "task.disputed"
)

// Valid reports whether t is a known task event type.
func (t EventType) Valid() bool {
	switch t {
	case TaskCompleted, TaskVerified, TaskRejected, TaskDisputed:
		return true
	}
	return false
}

// TaskEvent is one inbound task lifecycle notification from the task
// service. ID is the producer's event id and drives deduplication.
type TaskEvent struct {
	ID                    string          `json:"id"`
	Type                  EventType       `json:"type"`
	TaskID                string          `json:"task_id"`
	PayerWalletID         string          `json:"payer_wallet_id"`
	PayeeWalletID         string          `json:"payee_wallet_id,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	PlatformFeePercentage decimal.Decimal `json:"platform_fee_percentage"`
}

var (
	// ErrUnknownEventType is returned for event types outside the contract.
	ErrUnknownEventType = errors.New("unknown task event type")

	// ErrMissingFields is returned when an event lacks required fields.
	ErrMissingFields = errors.New("task event missing required fields")
)

func (e TaskEvent) validate() error {
	if !e.Type.Valid() {
		return ErrUnknownEventType
	}
	if e.ID == "" || e.TaskID == "" || e.PayerWalletID == "" {
		return ErrMissingFields
	}
	return nil
}
