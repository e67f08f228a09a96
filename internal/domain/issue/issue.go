package issue

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

var (
	ErrInvalidStatus        = errors.New("invalid issue status")
	ErrInvalidRegion        = errors.New("issue region must have a positive area")
	ErrNoCandidates         = errors.New("issue has no correction candidates")
	ErrCandidateOutOfRange  = errors.New("candidate index out of range")
	ErrInvalidStatusChange  = errors.New("issue status transition not allowed")
	ErrNoCorrectedTextGiven = errors.New("either selected text or a candidate index is required")
)

// Status defines the closed set of issue lifecycle states
type Status string

const (
	StatusDetected    Status = "detected"
	StatusCorrected   Status = "corrected"
	StatusSkipped     Status = "skipped"
	StatusNeedsReview Status = "needs_review"
)

// Valid reports whether s is one of the known issue states
func (s Status) Valid() bool {
	switch s {
	case StatusDetected, StatusCorrected, StatusSkipped, StatusNeedsReview:
		return true
	}
	return false
}

// Resolved reports whether the issue no longer needs attention
func (s Status) Resolved() bool {
	return s == StatusCorrected || s == StatusSkipped
}

// Kind classifies how the issue came to exist
type Kind string

const (
	KindLowConfidence Kind = "low_confidence"
	KindGarbled       Kind = "garbled"
	KindMissing       Kind = "missing"
	KindManual        Kind = "manual"
)

// Candidate is a proposed replacement text. Candidates are owned by the
// issue that generated them and replaced wholesale on regeneration.
type Candidate struct {
	Text       string  `json:"text" bson:"text"`
	Confidence float64 `json:"confidence" bson:"confidence"`
	Rationale  string  `json:"rationale" bson:"rationale"`
}

// Issue is one detected or manually created problem region on a page.
type Issue struct {
	ID              uuid.UUID   `json:"id" bson:"id"`
	DocumentID      uuid.UUID   `json:"document_id" bson:"document_id"`
	PageID          uuid.UUID   `json:"page_id" bson:"page_id"`
	PageNumber      int         `json:"page_number" bson:"page_number"`
	Sequence        int         `json:"sequence" bson:"sequence"` // Listing order within the document
	Region          shared.BBox `json:"region" bson:"region"`
	Kind            Kind        `json:"kind" bson:"kind"`
	DetectedText    string      `json:"detected_text,omitempty" bson:"detected_text,omitempty"`
	Confidence      *float64    `json:"confidence,omitempty" bson:"confidence,omitempty"`
	Status          Status      `json:"status" bson:"status"`
	Candidates      []Candidate `json:"candidates,omitempty" bson:"candidates,omitempty"`
	ChosenCandidate *int        `json:"chosen_candidate,omitempty" bson:"chosen_candidate,omitempty"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" bson:"updated_at"`
}

// New creates a manually reported issue in the detected state
func New(documentID, pageID uuid.UUID, pageNumber, sequence int, region shared.BBox, kind Kind, detectedText string) (*Issue, error) {
	if region.Empty() {
		return nil, ErrInvalidRegion
	}

	now := time.Now()
	return &Issue{
		ID:           uuid.New(),
		DocumentID:   documentID,
		PageID:       pageID,
		PageNumber:   pageNumber,
		Sequence:     sequence,
		Region:       region,
		Kind:         kind,
		DetectedText: detectedText,
		Status:       StatusDetected,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CandidateText resolves the replacement text for an apply request: an
// explicit text wins, otherwise the indexed candidate is used.
func (i *Issue) CandidateText(selectedText string, candidateIndex *int) (string, error) {
	if selectedText != "" {
		return selectedText, nil
	}
	if candidateIndex == nil {
		return "", ErrNoCorrectedTextGiven
	}
	if len(i.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	if *candidateIndex < 0 || *candidateIndex >= len(i.Candidates) {
		return "", ErrCandidateOutOfRange
	}
	return i.Candidates[*candidateIndex].Text, nil
}

// Transition moves the issue to a new state, enforcing the workflow's
// state machine: detected -> corrected | skipped | needs_review,
// needs_review -> corrected | skipped, corrected -> detected (undo only).
func (i *Issue) Transition(to Status) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	allowed := false
	switch i.Status {
	case StatusDetected:
		allowed = to == StatusCorrected || to == StatusSkipped || to == StatusNeedsReview
	case StatusNeedsReview:
		allowed = to == StatusCorrected || to == StatusSkipped || to == StatusDetected
	case StatusCorrected:
		allowed = to == StatusDetected
	case StatusSkipped:
		allowed = to == StatusDetected
	}
	if !allowed {
		return ErrInvalidStatusChange
	}

	i.Status = to
	i.UpdatedAt = time.Now()
	return nil
}

// ReplaceCandidates swaps the candidate set wholesale and records which
// one, if any, is pre-selected for the user.
func (i *Issue) ReplaceCandidates(candidates []Candidate, chosen *int) {
	i.Candidates = candidates
	i.ChosenCandidate = chosen
	i.UpdatedAt = time.Now()
}
