package correction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidMethod = errors.New("invalid correction method")

// Method defines the closed set of correction techniques
type Method string

const (
	MethodTextOverlay Method = "text_overlay"
	MethodAIInpaint   Method = "ai_inpaint"
)

// Valid reports whether m is one of the known correction methods
func (m Method) Valid() bool {
	return m == MethodTextOverlay || m == MethodAIInpaint
}

// Record is the result of one successful apply. An issue has at most one
// active record; re-application supersedes the previous record rather
// than deleting it, preserving the correction history.
type Record struct {
	ID             uuid.UUID  `json:"id" bson:"id"`
	IssueID        uuid.UUID  `json:"issue_id" bson:"issue_id"`
	Method         Method     `json:"method" bson:"method"`
	OriginalText   string     `json:"original_text,omitempty" bson:"original_text,omitempty"`
	CorrectedText  string     `json:"corrected_text" bson:"corrected_text"`
	PriorArtifact  string     `json:"prior_artifact" bson:"prior_artifact"` // Pre-correction page state, used by undo
	ResultArtifact string     `json:"result_artifact" bson:"result_artifact"`
	Applied        bool       `json:"applied" bson:"applied"`
	Superseded     bool       `json:"superseded" bson:"superseded"`
	AppliedAt      *time.Time `json:"applied_at,omitempty" bson:"applied_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
}

// NewRecord creates an applied correction record
func NewRecord(issueID uuid.UUID, method Method, originalText, correctedText, priorArtifact, resultArtifact string) (*Record, error) {
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	now := time.Now()
	return &Record{
		ID:             uuid.New(),
		IssueID:        issueID,
		Method:         method,
		OriginalText:   originalText,
		CorrectedText:  correctedText,
		PriorArtifact:  priorArtifact,
		ResultArtifact: resultArtifact,
		Applied:        true,
		AppliedAt:      &now,
		CreatedAt:      now,
	}, nil
}
