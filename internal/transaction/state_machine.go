package transaction

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no transaction exists for the id.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateReference is returned when a reference already exists.
	ErrDuplicateReference = errors.New("transaction reference already exists")

	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("transaction amount must be greater than zero")

	// ErrInvalidType is returned for unknown transaction types.
	ErrInvalidType = errors.New("invalid transaction type")

	// ErrInvalidCurrency is returned for unsupported currencies.
	ErrInvalidCurrency = errors.New("unsupported currency")
)

// StatusTransitionError reports an attempted transition out of a state that
// does not allow it.
type StatusTransitionError struct {
	TransactionID string
	From          Status
	To            Status
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s for transaction %s", e.From, e.To, e.TransactionID)
}

// allowedTransitions is the forward edge set of the status machine.
// pending is initial; completed, failed and cancelled are terminal, with the
// one allowance that a pending or processing transaction may still fail.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {StatusFailed}, // marking failed twice records the latest error
	StatusCancelled:  {StatusFailed},
}

// CanTransition reports whether from -> to is a legal status edge.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
