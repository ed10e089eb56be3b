package escrow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPercentage is returned when the platform fee percentage is
	// outside [0, 1].
	ErrInvalidPercentage = errors.New("platform fee percentage must be between 0 and 1")

	// ErrNoHoldTransaction is returned when a refund cannot find the hold
	// transaction for the task.
	ErrNoHoldTransaction = errors.New("no hold transaction found for task")
)

// CompensationError reports that a rollback step failed after a forward step
// had already committed. The wallets are now inconsistent with the recorded
// transactions and need manual reconciliation; this error must never be
// swallowed.
type CompensationError struct {
	Step         string // the forward step whose failure triggered compensation
	Original     error  // the error that triggered the rollback
	Compensation error  // the error the rollback itself failed with
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation failed after %s: rollback error %v (original error: %v)",
		e.Step, e.Compensation, e.Original)
}

func (e *CompensationError) Unwrap() error { return e.Original }
