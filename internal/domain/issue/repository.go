package issue

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages issue persistence. Issues are mutated only by the
// correction workflow and deleted only with their owning document.
type Repository interface {
	Create(ctx context.Context, iss *Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*Issue, error)

	// ListByDocument returns issues in ascending sequence order, optionally
	// filtered by status.
	ListByDocument(ctx context.Context, documentID uuid.UUID, status *Status) ([]*Issue, error)

	// NextSequence returns the next free listing position for a document
	NextSequence(ctx context.Context, documentID uuid.UUID) (int, error)

	Update(ctx context.Context, iss *Issue) error
}

// ErrIssueNotFound indicates a missing issue
type ErrIssueNotFound struct {
	IssueID uuid.UUID
}

func (e ErrIssueNotFound) Error() string {
	return "issue not found: " + e.IssueID.String()
}

// Is implements the errors.Is interface for ErrIssueNotFound
func (e ErrIssueNotFound) Is(target error) bool {
	t, ok := target.(ErrIssueNotFound)
	if !ok {
		return false
	}
	if t.IssueID == uuid.Nil {
		return true
	}
	return e.IssueID == t.IssueID
}
