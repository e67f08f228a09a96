package handler

import (
	"time"

	"github.com/pagemend/pagemend/internal/domain/account"
	"github.com/pagemend/pagemend/internal/domain/correction"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/domain/ledger"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	OwnerID        string `json:"owner_id" binding:"required"`
	InitialBalance int64  `json:"initial_balance" binding:"min=0"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceResponse represents a point-in-time balance read
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	RequestID     string `json:"request_id"`
	Kind          string `json:"kind"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// PaymentWebhookRequest represents a payment processor event. The payment
// id doubles as the ledger request id, so a redelivered webhook is a no-op.
type PaymentWebhookRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	AccountID string `json:"account_id" binding:"required,uuid"`
	Credits   int64  `json:"credits" binding:"required,gt=0"`
}

// RegionPayload represents a page region in API requests and responses
type RegionPayload struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width" binding:"required,gt=0"`
	Height int `json:"height" binding:"required,gt=0"`
}

// CreateIssueRequest represents a manual issue report
type CreateIssueRequest struct {
	DocumentID   string        `json:"document_id" binding:"required,uuid"`
	PageID       string        `json:"page_id" binding:"required,uuid"`
	PageNumber   int           `json:"page_number" binding:"required,min=1"`
	Region       RegionPayload `json:"region" binding:"required"`
	DetectedText string        `json:"detected_text"`
}

// CandidateResponse represents a correction candidate in API responses
type CandidateResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// IssueResponse represents an issue in API responses
type IssueResponse struct {
	ID              string              `json:"id"`
	DocumentID      string              `json:"document_id"`
	PageID          string              `json:"page_id"`
	PageNumber      int                 `json:"page_number"`
	Sequence        int                 `json:"sequence"`
	Region          RegionPayload       `json:"region"`
	Kind            string              `json:"kind"`
	DetectedText    string              `json:"detected_text,omitempty"`
	Confidence      *float64            `json:"confidence,omitempty"`
	Status          string              `json:"status"`
	Candidates      []CandidateResponse `json:"candidates,omitempty"`
	ChosenCandidate *int                `json:"chosen_candidate,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

// RequestCandidatesRequest asks for (re)generation of candidates
type RequestCandidatesRequest struct {
	Force bool `json:"force"`
}

// ApplyRequest represents a request to apply a correction to an issue
type ApplyRequest struct {
	Method         string `json:"method" binding:"required,oneof=text_overlay ai_inpaint"`
	SelectedText   string `json:"selected_text"`
	CandidateIndex *int   `json:"candidate_index"`
}

// CorrectionRecordResponse represents a correction record in API responses
type CorrectionRecordResponse struct {
	ID             string `json:"id"`
	IssueID        string `json:"issue_id"`
	Method         string `json:"method"`
	OriginalText   string `json:"original_text,omitempty"`
	CorrectedText  string `json:"corrected_text"`
	PriorArtifact  string `json:"prior_artifact"`
	ResultArtifact string `json:"result_artifact"`
	Applied        bool   `json:"applied"`
	Superseded     bool   `json:"superseded"`
	AppliedAt      string `json:"applied_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// ApplyResponse represents the outcome of a successful apply
type ApplyResponse struct {
	Issue       IssueResponse            `json:"issue"`
	Record      CorrectionRecordResponse `json:"record"`
	Transaction *TransactionResponse     `json:"transaction,omitempty"`
	Next        *IssueResponse           `json:"next,omitempty"`
}

// SkipResponse represents the outcome of skipping an issue
type SkipResponse struct {
	Issue IssueResponse  `json:"issue"`
	Next  *IssueResponse `json:"next,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		OwnerID:   acc.OwnerID,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}

func mapTransactionToResponse(txn *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            txn.ID.String(),
		AccountID:     txn.AccountID.String(),
		RequestID:     txn.RequestID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount,
		BalanceBefore: txn.BalanceBefore,
		BalanceAfter:  txn.BalanceAfter,
		Description:   txn.Description,
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
	}
}

func mapRegionToResponse(b shared.BBox) RegionPayload {
	return RegionPayload{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func mapIssueToResponse(iss *issue.Issue) IssueResponse {
	resp := IssueResponse{
		ID:              iss.ID.String(),
		DocumentID:      iss.DocumentID.String(),
		PageID:          iss.PageID.String(),
		PageNumber:      iss.PageNumber,
		Sequence:        iss.Sequence,
		Region:          mapRegionToResponse(iss.Region),
		Kind:            string(iss.Kind),
		DetectedText:    iss.DetectedText,
		Confidence:      iss.Confidence,
		Status:          string(iss.Status),
		ChosenCandidate: iss.ChosenCandidate,
		CreatedAt:       iss.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       iss.UpdatedAt.Format(time.RFC3339),
	}
	for _, cand := range iss.Candidates {
		resp.Candidates = append(resp.Candidates, CandidateResponse{
			Text:       cand.Text,
			Confidence: cand.Confidence,
			Rationale:  cand.Rationale,
		})
	}
	return resp
}

func mapRecordToResponse(rec *correction.Record) CorrectionRecordResponse {
	resp := CorrectionRecordResponse{
		ID:             rec.ID.String(),
		IssueID:        rec.IssueID.String(),
		Method:         string(rec.Method),
		OriginalText:   rec.OriginalText,
		CorrectedText:  rec.CorrectedText,
		PriorArtifact:  rec.PriorArtifact,
		ResultArtifact: rec.ResultArtifact,
		Applied:        rec.Applied,
		Superseded:     rec.Superseded,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.AppliedAt != nil {
		resp.AppliedAt = rec.AppliedAt.Format(time.RFC3339)
	}
	return resp
}
