package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/config"
	"github.com/pagemend/pagemend/internal/domain/correction"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/platform/generation"
)

// WorkflowServiceImpl implements the WorkflowService interface
type WorkflowServiceImpl struct {
	issueRepo      issue.Repository
	correctionRepo correction.Repository
	ledgerSvc      LedgerService
	gateway        generation.Invoker
	pages          PageStore
	compositor     Compositor
	history        *History
	cfg            *config.WorkflowConfig
	logger         *slog.Logger

	// Applies on the same issue are mutually exclusive
	inflightMu sync.Mutex
	inflight   map[uuid.UUID]struct{}
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(
	logger *slog.Logger,
	cfg *config.WorkflowConfig,
	issueRepo issue.Repository,
	correctionRepo correction.Repository,
	ledgerSvc LedgerService,
	gateway generation.Invoker,
	pages PageStore,
	compositor Compositor,
) *WorkflowServiceImpl {
	return &WorkflowServiceImpl{
		issueRepo:      issueRepo,
		correctionRepo: correctionRepo,
		ledgerSvc:      ledgerSvc,
		gateway:        gateway,
		pages:          pages,
		compositor:     compositor,
		history:        NewHistory(cfg.UndoDepth),
		cfg:            cfg,
		logger:         logger,
		inflight:       make(map[uuid.UUID]struct{}),
	}
}

func (s *WorkflowServiceImpl) beginApply(issueID uuid.UUID) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[issueID]; busy {
		return false
	}
	s.inflight[issueID] = struct{}{}
	return true
}

func (s *WorkflowServiceImpl) endApply(issueID uuid.UUID) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, issueID)
}

func (s *WorkflowServiceImpl) cost(method correction.Method) int64 {
	if method == correction.MethodAIInpaint {
		return s.cfg.InpaintCost
	}
	return s.cfg.OverlayCost
}

// Apply commits a correction to an issue. The debit and, on failure, the
// refund are keyed by a fresh attempt nonce, so a retried HTTP request
// cannot double-charge while a deliberate re-apply is charged again. Once
// the debit commits the operation runs detached from the caller's
// cancellation; it always resolves to a committed artifact or a refund.
func (s *WorkflowServiceImpl) Apply(ctx context.Context, accountID, issueID uuid.UUID, params ApplyParams) (*ApplyResult, error) {
	if !params.Method.Valid() {
		return nil, correction.ErrInvalidMethod
	}
	if !s.beginApply(issueID) {
		return nil, ErrApplyInProgress{IssueID: issueID}
	}
	defer s.endApply(issueID)

	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if iss.Status.Resolved() {
		return nil, issue.ErrInvalidStatusChange
	}

	text, err := iss.CandidateText(params.SelectedText, params.CandidateIndex)
	if err != nil {
		return nil, err
	}

	priorRef, err := s.pages.CurrentRef(ctx, iss.DocumentID, iss.PageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current page artifact: %w", err)
	}

	entryID := s.history.Push(iss.DocumentID, Snapshot{
		IssueID:  issueID,
		PageID:   iss.PageID,
		PriorRef: priorRef,
	})

	nonce := uuid.NewString()
	cost := s.cost(params.Method)
	opCtx := context.WithoutCancel(ctx)

	txn, err := s.ledgerSvc.Debit(opCtx, accountID, cost,
		fmt.Sprintf("apply:%s:%s", issueID, nonce),
		fmt.Sprintf("%s correction for issue %s", params.Method, issueID))
	if err != nil {
		s.history.Drop(iss.DocumentID, entryID)
		return nil, err
	}

	result, applyErr := s.renderAndPersist(opCtx, iss, params, text, priorRef)
	if applyErr != nil {
		s.history.Drop(iss.DocumentID, entryID)
		return nil, s.refund(opCtx, accountID, issueID, cost, nonce, applyErr)
	}

	s.history.Complete(iss.DocumentID, entryID, result.Record.ID, result.Record.ResultArtifact)
	result.Transaction = txn

	if next, nextErr := s.NextUnresolved(ctx, iss.DocumentID); nextErr == nil {
		result.Next = next
	}

	s.logger.Info("Applied correction",
		"issue_id", issueID.String(),
		"method", string(params.Method),
		"cost", cost,
		"result_artifact", result.Record.ResultArtifact,
	)
	return result, nil
}

// renderAndPersist produces the corrected artifact and commits the result.
// Any failure here leaves the issue untouched and is answered by a refund.
func (s *WorkflowServiceImpl) renderAndPersist(ctx context.Context, iss *issue.Issue, params ApplyParams, text, priorRef string) (*ApplyResult, error) {
	var resultRef string
	if params.Method == correction.MethodAIInpaint {
		resp, err := s.gateway.Inpaint(ctx, &generation.InpaintRequest{
			ArtifactRef:  priorRef,
			Region:       iss.Region,
			OriginalText: iss.DetectedText,
			Replacement:  text,
		})
		if err != nil {
			return nil, err
		}
		resultRef = resp.ArtifactRef
	} else {
		ref, err := s.compositor.Overlay(ctx, priorRef, iss.Region, text)
		if err != nil {
			return nil, err
		}
		resultRef = ref
	}

	if err := s.correctionRepo.Supersede(ctx, iss.ID); err != nil {
		return nil, err
	}

	rec, err := correction.NewRecord(iss.ID, params.Method, iss.DetectedText, text, priorRef, resultRef)
	if err != nil {
		return nil, err
	}
	if err := s.correctionRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.pages.SetCurrentRef(ctx, iss.DocumentID, iss.PageID, resultRef); err != nil {
		return nil, err
	}

	if err := iss.Transition(issue.StatusCorrected); err != nil {
		return nil, err
	}
	if params.CandidateIndex != nil {
		iss.ChosenCandidate = params.CandidateIndex
	}
	if err := s.issueRepo.Update(ctx, iss); err != nil {
		return nil, err
	}

	return &ApplyResult{Issue: iss, Record: rec}, nil
}

// refund reverses the debit of a failed apply. A refund that itself fails
// leaves the account debited without an effect and is surfaced as its own
// alertable error, wrapping neither failure silently.
func (s *WorkflowServiceImpl) refund(ctx context.Context, accountID, issueID uuid.UUID, amount int64, nonce string, applyErr error) error {
	requestID := fmt.Sprintf("refund:%s:%s", issueID, nonce)

	if _, err := s.ledgerSvc.Refund(ctx, accountID, amount, requestID,
		fmt.Sprintf("refund failed apply of issue %s", issueID)); err != nil {
		s.logger.Error("Refund did not commit after failed apply",
			"account_id", accountID.String(),
			"issue_id", issueID.String(),
			"request_id", requestID,
			"amount", amount,
			"apply_error", applyErr,
			"refund_error", err,
		)
		return ErrRefundFailed{AccountID: accountID, IssueID: issueID, RequestID: requestID, Err: err}
	}

	s.logger.Warn("Apply failed, debit refunded",
		"account_id", accountID.String(),
		"issue_id", issueID.String(),
		"amount", amount,
		"error", applyErr,
	)
	return applyErr
}

// Skip resolves an issue without correcting it. Returns the skipped issue
// and the next unresolved one.
func (s *WorkflowServiceImpl) Skip(ctx context.Context, issueID uuid.UUID) (*issue.Issue, *issue.Issue, error) {
	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, nil, err
	}

	if err := iss.Transition(issue.StatusSkipped); err != nil {
		return nil, nil, err
	}
	if err := s.issueRepo.Update(ctx, iss); err != nil {
		return nil, nil, err
	}

	next, err := s.NextUnresolved(ctx, iss.DocumentID)
	if err != nil {
		return iss, nil, nil
	}
	return iss, next, nil
}

// Undo reverts the most recent applied correction of a document: the page
// is repointed at the pre-correction artifact and the issue returns to
// detected. The correction record survives, unapplied, for redo.
func (s *WorkflowServiceImpl) Undo(ctx context.Context, documentID uuid.UUID) (*issue.Issue, error) {
	snap, ok := s.history.Undo(documentID)
	if !ok {
		return nil, ErrNothingToUndo
	}

	iss, err := s.restore(ctx, documentID, snap, snap.PriorRef, false, issue.StatusDetected)
	if err != nil {
		// Put the entry back so the user can retry the undo
		s.history.Redo(documentID)
		return nil, err
	}

	s.logger.Info("Undid correction", "document_id", documentID.String(), "issue_id", snap.IssueID.String())
	return iss, nil
}

// Redo reapplies the most recently undone correction. The result was paid
// for when first applied; no new ledger transaction is created.
func (s *WorkflowServiceImpl) Redo(ctx context.Context, documentID uuid.UUID) (*issue.Issue, error) {
	snap, ok := s.history.Redo(documentID)
	if !ok {
		return nil, ErrNothingToRedo
	}

	iss, err := s.restore(ctx, documentID, snap, snap.ResultRef, true, issue.StatusCorrected)
	if err != nil {
		s.history.Undo(documentID)
		return nil, err
	}

	s.logger.Info("Redid correction", "document_id", documentID.String(), "issue_id", snap.IssueID.String())
	return iss, nil
}

func (s *WorkflowServiceImpl) restore(ctx context.Context, documentID uuid.UUID, snap *Snapshot, ref string, applied bool, to issue.Status) (*issue.Issue, error) {
	if err := s.pages.SetCurrentRef(ctx, documentID, snap.PageID, ref); err != nil {
		return nil, fmt.Errorf("failed to repoint page artifact: %w", err)
	}
	if err := s.correctionRepo.SetApplied(ctx, snap.RecordID, applied); err != nil {
		return nil, err
	}

	iss, err := s.issueRepo.GetByID(ctx, snap.IssueID)
	if err != nil {
		return nil, err
	}
	if err := iss.Transition(to); err != nil {
		return nil, err
	}
	if err := s.issueRepo.Update(ctx, iss); err != nil {
		return nil, err
	}
	return iss, nil
}

// NextUnresolved returns the first issue, in sequence order, that still
// needs attention; nil when the document is fully resolved.
func (s *WorkflowServiceImpl) NextUnresolved(ctx context.Context, documentID uuid.UUID) (*issue.Issue, error) {
	issues, err := s.issueRepo.ListByDocument(ctx, documentID, nil)
	if err != nil {
		return nil, err
	}
	for _, iss := range issues {
		if !iss.Status.Resolved() {
			return iss, nil
		}
	}
	return nil, nil
}

// CorrectionHistory returns all correction records of an issue, newest first
func (s *WorkflowServiceImpl) CorrectionHistory(ctx context.Context, issueID uuid.UUID) ([]*correction.Record, error) {
	return s.correctionRepo.ListByIssue(ctx, issueID)
}
