package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/domain/account"
	"github.com/pagemend/pagemend/internal/domain/correction"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/domain/ledger"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount creates an account for an owner
	// Returns ErrDuplicateOwner if the owner already has an account
	CreateAccount(ctx context.Context, ownerID string, initialBalance int64) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// GetAccountByOwnerID retrieves an account by its owner, or nil when
	// the owner has no account yet
	GetAccountByOwnerID(ctx context.Context, ownerID string) (*account.Account, error)
}

// LedgerService exposes the atomic credit operations. All mutations are
// idempotent by (account, request id, kind): a replayed request id returns
// the previously committed transaction without changing the balance.
type LedgerService interface {
	// Debit decreases the balance, failing with ErrInsufficientBalance
	// when the balance cannot cover the amount
	Debit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error)

	// Credit increases the balance
	Credit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error)

	// Refund reverses a prior debit. The request id must differ from the
	// debit's request id but is itself idempotent.
	Refund(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error)

	// Balance returns the point-in-time balance
	Balance(ctx context.Context, accountID uuid.UUID) (int64, error)

	// History returns a page of the transaction log plus the total count
	History(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Transaction, int64, error)
}

// IssueService manages issue listing, manual creation and candidate
// generation requests
type IssueService interface {
	ListIssues(ctx context.Context, documentID uuid.UUID, status *issue.Status) ([]*issue.Issue, error)
	GetIssue(ctx context.Context, id uuid.UUID) (*issue.Issue, error)

	// CreateIssue records a manually reported issue and queues candidate
	// generation for it
	CreateIssue(ctx context.Context, documentID, pageID uuid.UUID, pageNumber int, region shared.BBox, detectedText string) (*issue.Issue, error)

	// RequestCandidates queues (re)generation of correction candidates.
	// With force set, existing candidates are replaced wholesale.
	RequestCandidates(ctx context.Context, issueID uuid.UUID, force bool) error
}

// ApplyParams describes one apply request. The replacement text is either
// given explicitly or resolved from the issue's candidate list.
type ApplyParams struct {
	Method         correction.Method
	SelectedText   string
	CandidateIndex *int
}

// ApplyResult is the outcome of a successful apply
type ApplyResult struct {
	Issue       *issue.Issue
	Record      *correction.Record
	Transaction *ledger.Transaction
	Next        *issue.Issue // Next unresolved issue, nil when none remain
}

// WorkflowService orchestrates the correction workflow: debit, render,
// refund on failure, issue state transitions, and the undo/redo history.
type WorkflowService interface {
	// Apply commits a correction to an issue, charging the per-method cost
	Apply(ctx context.Context, accountID, issueID uuid.UUID, params ApplyParams) (*ApplyResult, error)

	// Skip resolves an issue without correcting it; no ledger interaction
	Skip(ctx context.Context, issueID uuid.UUID) (*issue.Issue, *issue.Issue, error)

	// Undo reverts the most recent applied correction of a document
	Undo(ctx context.Context, documentID uuid.UUID) (*issue.Issue, error)

	// Redo reapplies the most recently undone correction without a new debit
	Redo(ctx context.Context, documentID uuid.UUID) (*issue.Issue, error)

	// NextUnresolved returns the first issue of the document, in sequence
	// order, that is neither corrected nor skipped; nil when none remain
	NextUnresolved(ctx context.Context, documentID uuid.UUID) (*issue.Issue, error)

	// CorrectionHistory returns all correction records of an issue, newest first
	CorrectionHistory(ctx context.Context, issueID uuid.UUID) ([]*correction.Record, error)
}

// PageStore resolves and repoints the artifact currently shown for a page
type PageStore interface {
	CurrentRef(ctx context.Context, documentID, pageID uuid.UUID) (string, error)
	SetCurrentRef(ctx context.Context, documentID, pageID uuid.UUID, ref string) error
}

// Compositor performs the local text overlay correction method
type Compositor interface {
	Overlay(ctx context.Context, baseRef string, region shared.BBox, text string) (string, error)
}
