package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/domain/shared"
	"github.com/pagemend/pagemend/internal/platform/messaging/producers"
)

// IssueServiceImpl implements the IssueService interface
type IssueServiceImpl struct {
	issueRepo issue.Repository
	producer  producers.MessagePublisher
	logger    *slog.Logger
}

// NewIssueService creates a new issue service
func NewIssueService(logger *slog.Logger, issueRepo issue.Repository, producer producers.MessagePublisher) IssueService {
	return &IssueServiceImpl{
		issueRepo: issueRepo,
		producer:  producer,
		logger:    logger,
	}
}

func (s *IssueServiceImpl) ListIssues(ctx context.Context, documentID uuid.UUID, status *issue.Status) ([]*issue.Issue, error) {
	return s.issueRepo.ListByDocument(ctx, documentID, status)
}

func (s *IssueServiceImpl) GetIssue(ctx context.Context, id uuid.UUID) (*issue.Issue, error) {
	return s.issueRepo.GetByID(ctx, id)
}

// CreateIssue records a manually reported issue at the end of the
// document's listing order and queues candidate generation for it
func (s *IssueServiceImpl) CreateIssue(ctx context.Context, documentID, pageID uuid.UUID, pageNumber int, region shared.BBox, detectedText string) (*issue.Issue, error) {
	sequence, err := s.issueRepo.NextSequence(ctx, documentID)
	if err != nil {
		return nil, err
	}

	iss, err := issue.New(documentID, pageID, pageNumber, sequence, region, issue.KindManual, detectedText)
	if err != nil {
		return nil, err
	}

	if err := s.issueRepo.Create(ctx, iss); err != nil {
		return nil, err
	}

	if err := s.publishCandidateRequest(ctx, iss, false); err != nil {
		// The issue exists; candidates can be requested again explicitly
		s.logger.Warn("Failed to queue candidate generation for new issue",
			"issue_id", iss.ID.String(),
			"error", err,
		)
	}

	s.logger.Info("Created manual issue",
		"issue_id", iss.ID.String(),
		"document_id", documentID.String(),
		"page_number", pageNumber,
	)
	return iss, nil
}

// RequestCandidates queues (re)generation of correction candidates
func (s *IssueServiceImpl) RequestCandidates(ctx context.Context, issueID uuid.UUID, force bool) error {
	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return err
	}
	return s.publishCandidateRequest(ctx, iss, force)
}

func (s *IssueServiceImpl) publishCandidateRequest(ctx context.Context, iss *issue.Issue, force bool) error {
	req := &shared.CandidateRequest{
		RequestID:     uuid.New(),
		IssueID:       iss.ID,
		DocumentID:    iss.DocumentID,
		Force:         force,
		CorrelationID: shared.CorrelationIDFromContext(ctx),
		Timestamp:     time.Now().UTC(),
	}

	if err := s.producer.Publish(ctx, iss.ID.String(), req); err != nil {
		return err
	}

	s.logger.Debug("Queued candidate generation",
		"issue_id", iss.ID.String(),
		"request_id", req.RequestID.String(),
		"force", force,
	)
	return nil
}
