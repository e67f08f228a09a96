package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagemend/pagemend/internal/api_gateway/handler"
	"github.com/pagemend/pagemend/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application.
// Account-scoped routes sit behind the identity middleware; the payment
// webhook and account creation do not, since their callers carry no
// account identity of their own.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	ledgerHandler *handler.LedgerHandler,
	webhookHandler *handler.WebhookHandler,
	issueHandler *handler.IssueHandler,
	correctionHandler *handler.CorrectionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account and ledger operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", ledgerHandler.CreateAccount)
			accounts.GET("/me", middleware.Identity(), ledgerHandler.GetAccount)
			accounts.GET("/me/balance", middleware.Identity(), ledgerHandler.GetBalance)
			accounts.GET("/me/transactions", middleware.Identity(), ledgerHandler.GetTransactions)
		}

		// Payment processor callbacks
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/payments", webhookHandler.PaymentCompleted)
		}

		// Document-scoped issue listing and workflow navigation
		documents := v1.Group("/documents", middleware.Identity())
		{
			documents.GET("/:id/issues", issueHandler.ListByDocument)
			documents.GET("/:id/issues/next", correctionHandler.NextUnresolved)
			documents.POST("/:id/undo", correctionHandler.Undo)
			documents.POST("/:id/redo", correctionHandler.Redo)
		}

		// Issue operations
		issues := v1.Group("/issues", middleware.Identity())
		{
			issues.POST("", issueHandler.Create)
			issues.GET("/:id", issueHandler.GetByID)
			issues.POST("/:id/candidates", issueHandler.RequestCandidates)
			issues.POST("/:id/apply", correctionHandler.Apply)
			issues.POST("/:id/skip", correctionHandler.Skip)
			issues.GET("/:id/corrections", correctionHandler.History)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
