package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/api_gateway/middleware"
	"github.com/pagemend/pagemend/internal/api_gateway/service"
	"github.com/pagemend/pagemend/internal/domain/account"
	"github.com/pagemend/pagemend/internal/domain/correction"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/platform/generation"
)

// CorrectionHandler handles HTTP requests for the correction workflow
type CorrectionHandler struct {
	workflowService service.WorkflowService
	logger          *slog.Logger
}

// NewCorrectionHandler creates a new correction handler
func NewCorrectionHandler(logger *slog.Logger, workflowService service.WorkflowService) *CorrectionHandler {
	return &CorrectionHandler{
		workflowService: workflowService,
		logger:          logger,
	}
}

// Apply commits a correction to an issue, charging the per-method cost
func (h *CorrectionHandler) Apply(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid issue ID")
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.workflowService.Apply(c.Request.Context(), accountID, issueID, service.ApplyParams{
		Method:         correction.Method(req.Method),
		SelectedText:   req.SelectedText,
		CandidateIndex: req.CandidateIndex,
	})
	if err != nil {
		h.respondApplyError(c, issueID, err)
		return
	}

	resp := ApplyResponse{
		Issue:  mapIssueToResponse(result.Issue),
		Record: mapRecordToResponse(result.Record),
	}
	if result.Transaction != nil {
		txn := mapTransactionToResponse(result.Transaction)
		resp.Transaction = &txn
	}
	if result.Next != nil {
		next := mapIssueToResponse(result.Next)
		resp.Next = &next
	}
	RespondOK(c, resp)
}

// respondApplyError maps workflow failures onto the API's error surface
func (h *CorrectionHandler) respondApplyError(c *gin.Context, issueID uuid.UUID, err error) {
	switch {
	case errors.Is(err, account.ErrInsufficientBalance):
		RespondPaymentRequired(c, "Not enough credits for this correction")
	case errors.Is(err, service.ErrApplyInProgress{}):
		RespondConflict(c, "APPLY_IN_PROGRESS", "Another apply is already running for this issue")
	case errors.Is(err, issue.ErrIssueNotFound{}):
		RespondNotFound(c, "Issue not found")
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, "Account not found")
	case errors.Is(err, service.ErrRefundFailed{}):
		h.logger.Error("Refund failure surfaced to API", "issue_id", issueID.String(), "error", err)
		RespondWithError(c, http.StatusInternalServerError, "LEDGER_INCONSISTENCY",
			"The correction failed and the refund could not be committed; support has been notified")
	case errors.Is(err, issue.ErrNoCorrectedTextGiven),
		errors.Is(err, issue.ErrNoCandidates),
		errors.Is(err, issue.ErrCandidateOutOfRange),
		errors.Is(err, correction.ErrInvalidMethod):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, issue.ErrInvalidStatusChange):
		RespondConflict(c, "ISSUE_ALREADY_RESOLVED", "Issue is already corrected or skipped")
	default:
		var gerr *generation.Error
		if errors.As(err, &gerr) {
			if gerr.Kind == generation.FailureTerminal {
				RespondBadGateway(c, "GENERATION_REJECTED", "The generation backend rejected the request; credits were refunded")
			} else {
				RespondBadGateway(c, "GENERATION_UNAVAILABLE", "The generation backend is unavailable; credits were refunded, try again")
			}
			return
		}
		h.logger.Error("Failed to apply correction", "issue_id", issueID.String(), "error", err)
		RespondInternalError(c)
	}
}

// Skip resolves an issue without correcting it
func (h *CorrectionHandler) Skip(c *gin.Context) {
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid issue ID")
		return
	}

	skipped, next, err := h.workflowService.Skip(c.Request.Context(), issueID)
	if err != nil {
		if errors.Is(err, issue.ErrIssueNotFound{}) {
			RespondNotFound(c, "Issue not found")
			return
		}
		if errors.Is(err, issue.ErrInvalidStatusChange) {
			RespondConflict(c, "ISSUE_ALREADY_RESOLVED", "Issue is already corrected or skipped")
			return
		}
		h.logger.Error("Failed to skip issue", "issue_id", issueID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	resp := SkipResponse{Issue: mapIssueToResponse(skipped)}
	if next != nil {
		n := mapIssueToResponse(next)
		resp.Next = &n
	}
	RespondOK(c, resp)
}

// Undo reverts the most recent applied correction of a document
func (h *CorrectionHandler) Undo(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid document ID")
		return
	}

	iss, err := h.workflowService.Undo(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, service.ErrNothingToUndo) {
			RespondConflict(c, "NOTHING_TO_UNDO", "No applied correction to undo")
			return
		}
		h.logger.Error("Failed to undo correction", "document_id", documentID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapIssueToResponse(iss))
}

// Redo reapplies the most recently undone correction without a new debit
func (h *CorrectionHandler) Redo(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid document ID")
		return
	}

	iss, err := h.workflowService.Redo(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, service.ErrNothingToRedo) {
			RespondConflict(c, "NOTHING_TO_REDO", "No undone correction to redo")
			return
		}
		h.logger.Error("Failed to redo correction", "document_id", documentID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapIssueToResponse(iss))
}

// NextUnresolved returns the next issue of a document that needs attention
func (h *CorrectionHandler) NextUnresolved(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid document ID")
		return
	}

	next, err := h.workflowService.NextUnresolved(c.Request.Context(), documentID)
	if err != nil {
		h.logger.Error("Failed to find next unresolved issue", "document_id", documentID.String(), "error", err)
		RespondInternalError(c)
		return
	}
	if next == nil {
		RespondOK(c, gin.H{"resolved": true})
		return
	}

	RespondOK(c, mapIssueToResponse(next))
}

// History returns the correction history of an issue, newest first
func (h *CorrectionHandler) History(c *gin.Context) {
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid issue ID")
		return
	}

	records, err := h.workflowService.CorrectionHistory(c.Request.Context(), issueID)
	if err != nil {
		h.logger.Error("Failed to get correction history", "issue_id", issueID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]CorrectionRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapRecordToResponse(rec))
	}
	RespondOK(c, responses)
}
