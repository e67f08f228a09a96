package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/pagemend/pagemend/internal/api_gateway/middleware"
	"github.com/pagemend/pagemend/internal/api_gateway/service"
	"github.com/pagemend/pagemend/internal/domain/account"
)

// LedgerHandler handles HTTP requests for accounts and the credit ledger
type LedgerHandler struct {
	accountService service.AccountService
	ledgerService  service.LedgerService
	logger         *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, accountService service.AccountService, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
		logger:         logger,
	}
}

// CreateAccount handles creation of a new credit account
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.OwnerID, req.InitialBalance)
	if err != nil {
		var duplicateErr account.ErrDuplicateOwner
		if errors.As(err, &duplicateErr) {
			h.logger.Warn("Attempt to create duplicate account", "owner_id", duplicateErr.OwnerID)
			RespondConflict(c, "DUPLICATE_ACCOUNT", "Account for this owner already exists")
			return
		}
		h.logger.Error("Failed to create account", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetAccount returns the authenticated caller's account
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetBalance returns the caller's point-in-time credit balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	balance, err := h.ledgerService.Balance(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get balance", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalanceResponse{AccountID: accountID.String(), Balance: balance})
}

// GetTransactions returns a page of the caller's transaction history
func (h *LedgerHandler) GetTransactions(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	txns, total, err := h.ledgerService.History(c.Request.Context(), accountID, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to get transaction history", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}

	RespondWithPaginatedData(c, 200, responses, params.Page, params.PerPage, int(total))
}
