package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyIssueID = errors.New("candidate request requires an issue id")

// CandidateRequest defines a Kafka message asking the worker to generate
// correction candidates for one issue.
type CandidateRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	IssueID       uuid.UUID `json:"issue_id"`
	DocumentID    uuid.UUID `json:"document_id"`
	Force         bool      `json:"force"` // Replace existing candidates wholesale
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}
