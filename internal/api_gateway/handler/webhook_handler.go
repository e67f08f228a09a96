package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/api_gateway/service"
)

// WebhookHandler handles events from the external payment processor
type WebhookHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *slog.Logger, ledgerService service.LedgerService) *WebhookHandler {
	return &WebhookHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// PaymentCompleted credits purchased credits to an account. The ledger
// request id is the payment id, so redelivered webhooks replay to the
// same committed transaction.
func (h *WebhookHandler) PaymentCompleted(c *gin.Context) {
	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid payment webhook body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	txn, err := h.ledgerService.Credit(c.Request.Context(), accountID, req.Credits, req.PaymentID,
		"credit purchase "+req.PaymentID)
	if err != nil {
		h.logger.Error("Failed to credit purchased credits",
			"account_id", req.AccountID,
			"payment_id", req.PaymentID,
			"credits", req.Credits,
			"error", err,
		)
		RespondInternalError(c)
		return
	}

	h.logger.Info("Credited purchased credits",
		"account_id", req.AccountID,
		"payment_id", req.PaymentID,
		"credits", req.Credits,
		"transaction_id", txn.ID.String(),
	)
	RespondOK(c, mapTransactionToResponse(txn))
}
