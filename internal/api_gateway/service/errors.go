package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// ErrApplyInProgress indicates a concurrent apply on the same issue
type ErrApplyInProgress struct {
	IssueID uuid.UUID
}

func (e ErrApplyInProgress) Error() string {
	return "apply already in progress for issue: " + e.IssueID.String()
}

// Is implements the errors.Is interface for ErrApplyInProgress
func (e ErrApplyInProgress) Is(target error) bool {
	t, ok := target.(ErrApplyInProgress)
	if !ok {
		return false
	}
	if t.IssueID == uuid.Nil {
		return true
	}
	return e.IssueID == t.IssueID
}

// ErrRefundFailed indicates a refund did not commit after a failed apply.
// The account is left debited without a corresponding effect; this must be
// alerted on, never handled as a normal apply failure.
type ErrRefundFailed struct {
	AccountID uuid.UUID
	IssueID   uuid.UUID
	RequestID string
	Err       error
}

func (e ErrRefundFailed) Error() string {
	return fmt.Sprintf("refund %s for account %s did not commit, ledger inconsistency risk: %v", e.RequestID, e.AccountID, e.Err)
}

func (e ErrRefundFailed) Unwrap() error {
	return e.Err
}

// Is implements the errors.Is interface for ErrRefundFailed
func (e ErrRefundFailed) Is(target error) bool {
	_, ok := target.(ErrRefundFailed)
	return ok
}
