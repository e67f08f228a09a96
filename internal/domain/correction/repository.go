package correction

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages correction record persistence
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// GetActiveByIssue returns the single non-superseded record for an
	// issue, or nil when the issue has never been corrected.
	GetActiveByIssue(ctx context.Context, issueID uuid.UUID) (*Record, error)

	// ListByIssue returns the full correction history, newest first
	ListByIssue(ctx context.Context, issueID uuid.UUID) ([]*Record, error)

	// Supersede marks the active record of an issue as superseded
	Supersede(ctx context.Context, issueID uuid.UUID) error

	// SetApplied toggles the applied flag of a record (undo/redo)
	SetApplied(ctx context.Context, id uuid.UUID, applied bool) error
}

// ErrRecordNotFound indicates a missing correction record
type ErrRecordNotFound struct {
	RecordID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "correction record not found: " + e.RecordID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.RecordID == uuid.Nil {
		return true
	}
	return e.RecordID == t.RecordID
}
