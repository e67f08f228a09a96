package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pagemend/pagemend/internal/config"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/domain/shared"
	"github.com/pagemend/pagemend/internal/platform/generation"
)

// ErrRequestSuperseded indicates the request no longer applies to the
// issue's current state and must not be retried.
var ErrRequestSuperseded = errors.New("candidate request superseded by issue state")

// GenerationServiceImpl generates correction candidates for one issue at a
// time: it calls the generation backend, applies the auto-adoption rule and
// persists the refreshed candidate set.
type GenerationServiceImpl struct {
	cfg       *config.WorkflowConfig
	issueRepo issue.Repository
	gateway   generation.Invoker
	pages     PageResolver
	logger    *slog.Logger
}

// NewGenerationService creates a new candidate generation service
func NewGenerationService(
	logger *slog.Logger,
	cfg *config.WorkflowConfig,
	issueRepo issue.Repository,
	gateway generation.Invoker,
	pages PageResolver,
) *GenerationServiceImpl {
	return &GenerationServiceImpl{
		cfg:       cfg,
		issueRepo: issueRepo,
		gateway:   gateway,
		pages:     pages,
		logger:    logger,
	}
}

// GenerateCandidates fulfils one candidate request. Requests for resolved
// issues, and non-forced requests for issues that already have candidates,
// are dropped as superseded rather than retried: the message may have been
// redelivered long after the user moved on.
func (s *GenerationServiceImpl) GenerateCandidates(ctx context.Context, request *shared.CandidateRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	iss, err := s.issueRepo.GetByID(ctx, request.IssueID)
	if err != nil {
		if errors.Is(err, issue.ErrIssueNotFound{}) {
			logger.Warn("Candidate request for unknown issue", "issue_id", request.IssueID.String())
			return fmt.Errorf("%w: %s", ErrRequestSuperseded, err.Error())
		}
		logger.Error("Failed to load issue for candidate generation", "issue_id", request.IssueID.String(), "error", err)
		return fmt.Errorf("failed to load issue %s: %w", request.IssueID.String(), err)
	}

	if iss.Status.Resolved() {
		logger.Info("Skipping candidate generation for resolved issue",
			"issue_id", iss.ID.String(),
			"status", string(iss.Status),
		)
		return ErrRequestSuperseded
	}

	if len(iss.Candidates) > 0 && !request.Force {
		logger.Info("Issue already has candidates, skipping non-forced generation", "issue_id", iss.ID.String())
		return nil
	}

	artifactRef, err := s.pages.CurrentRef(ctx, iss.DocumentID, iss.PageID)
	if err != nil {
		logger.Error("Failed to resolve page artifact", "issue_id", iss.ID.String(), "error", err)
		return fmt.Errorf("failed to resolve page artifact for issue %s: %w", iss.ID.String(), err)
	}

	resp, err := s.gateway.GenerateCandidates(ctx, &generation.CandidatesRequest{
		ArtifactRef:  artifactRef,
		Region:       iss.Region,
		DetectedText: iss.DetectedText,
		Count:        s.cfg.CandidateCount,
	})
	if err != nil {
		logger.Error("Failed to generate candidates",
			"issue_id", iss.ID.String(),
			"retryable", generation.Retryable(err),
			"error", err,
		)
		return fmt.Errorf("candidate generation for issue %s failed: %w", iss.ID.String(), err)
	}

	chosen := adoptionDecision(iss.DetectedText, resp.Candidates, s.cfg.AutoAdoptThreshold)
	iss.ReplaceCandidates(resp.Candidates, chosen)

	if chosen == nil && iss.Status == issue.StatusDetected {
		if err := iss.Transition(issue.StatusNeedsReview); err != nil {
			return fmt.Errorf("failed to flag issue %s for review: %w", iss.ID.String(), err)
		}
	}

	if err := s.issueRepo.Update(ctx, iss); err != nil {
		logger.Error("Failed to store generated candidates", "issue_id", iss.ID.String(), "error", err)
		return fmt.Errorf("failed to store candidates for issue %s: %w", iss.ID.String(), err)
	}

	logger.Info("Generated correction candidates",
		"issue_id", iss.ID.String(),
		"candidates", len(resp.Candidates),
		"auto_adopted", chosen != nil,
		"status", string(iss.Status),
	)
	return nil
}

var _ GenerationService = (*GenerationServiceImpl)(nil)
