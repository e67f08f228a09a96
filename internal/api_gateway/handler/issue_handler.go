package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/api_gateway/service"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

// IssueHandler handles HTTP requests for issue operations
type IssueHandler struct {
	issueService service.IssueService
	logger       *slog.Logger
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(logger *slog.Logger, issueService service.IssueService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
		logger:       logger,
	}
}

// ListByDocument returns the issues of a document in sequence order,
// optionally filtered by status
func (h *IssueHandler) ListByDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid document ID")
		return
	}

	var status *issue.Status
	if raw := c.Query("status"); raw != "" {
		s := issue.Status(raw)
		if !s.Valid() {
			RespondBadRequest(c, "Invalid status filter")
			return
		}
		status = &s
	}

	issues, err := h.issueService.ListIssues(c.Request.Context(), documentID, status)
	if err != nil {
		h.logger.Error("Failed to list issues", "document_id", documentID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]IssueResponse, 0, len(issues))
	for _, iss := range issues {
		responses = append(responses, mapIssueToResponse(iss))
	}
	RespondOK(c, responses)
}

// GetByID retrieves an issue by its ID, returning 404 if not found
func (h *IssueHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid issue ID")
		return
	}

	iss, err := h.issueService.GetIssue(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, issue.ErrIssueNotFound{}) {
			RespondNotFound(c, "Issue not found")
			return
		}
		h.logger.Error("Failed to get issue", "issue_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapIssueToResponse(iss))
}

// Create records a manually reported issue
func (h *IssueHandler) Create(c *gin.Context) {
	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		RespondBadRequest(c, "Invalid document ID")
		return
	}
	pageID, err := uuid.Parse(req.PageID)
	if err != nil {
		RespondBadRequest(c, "Invalid page ID")
		return
	}

	region := shared.BBox{X: req.Region.X, Y: req.Region.Y, Width: req.Region.Width, Height: req.Region.Height}

	iss, err := h.issueService.CreateIssue(c.Request.Context(), documentID, pageID, req.PageNumber, region, req.DetectedText)
	if err != nil {
		if errors.Is(err, issue.ErrInvalidRegion) {
			RespondBadRequest(c, "Issue region must have a positive area")
			return
		}
		h.logger.Error("Failed to create issue", "document_id", req.DocumentID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapIssueToResponse(iss))
}

// RequestCandidates queues (re)generation of correction candidates
func (h *IssueHandler) RequestCandidates(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid issue ID")
		return
	}

	// The body is optional; an empty request means a non-forced generation
	var req RequestCandidatesRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	if err := h.issueService.RequestCandidates(c.Request.Context(), id, req.Force); err != nil {
		if errors.Is(err, issue.ErrIssueNotFound{}) {
			RespondNotFound(c, "Issue not found")
			return
		}
		h.logger.Error("Failed to request candidates", "issue_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{"issue_id": id.String(), "force": req.Force})
}
