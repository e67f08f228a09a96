package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pagemend/pagemend/internal/candidate_worker/service"
	"github.com/pagemend/pagemend/internal/domain/shared"
	"github.com/pagemend/pagemend/internal/platform/generation"
	"github.com/pagemend/pagemend/internal/platform/messaging/producers"
)

// CandidateEventHandler handles incoming candidate request messages from Kafka
type CandidateEventHandler struct {
	generationService service.GenerationService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewCandidateEventHandler creates a new handler
func NewCandidateEventHandler(
	logger *slog.Logger,
	generationService service.GenerationService,
	producer producers.DeadLetterPublisher,
) *CandidateEventHandler {
	return &CandidateEventHandler{
		generationService: generationService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages. Retryable failures are returned
// so the message is redelivered; permanent ones go to the DLQ and the
// offset is committed.
func (h *CandidateEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.CandidateRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal candidate request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)
		return h.sendToDLQ(ctx, key, value, fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error()), err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received candidate request for processing",
		"request_id", request.RequestID.String(),
		"issue_id", request.IssueID.String(),
		"document_id", request.DocumentID.String(),
		"force", request.Force,
	)

	err := h.generationService.GenerateCandidates(ctx, &request)
	if err == nil {
		logger.Info("Successfully processed candidate request", "request_id", request.RequestID.String())
		return nil
	}

	if errors.Is(err, service.ErrRequestSuperseded) {
		logger.Info("Dropping superseded candidate request",
			"request_id", request.RequestID.String(),
			"issue_id", request.IssueID.String(),
			"reason", err.Error(),
		)
		return nil
	}

	logger.Error("Failed to process candidate request",
		"request_id", request.RequestID.String(),
		"issue_id", request.IssueID.String(),
		"error", err,
	)

	if generation.IsTerminal(err) {
		return h.sendToDLQ(ctx, key, value, "generation backend rejected the request: "+err.Error(), err)
	}

	// Allow Kafka retries
	return fmt.Errorf("processing candidate request %s failed: %w", request.RequestID.String(), err)
}

// sendToDLQ parks an unprocessable message. When the DLQ itself fails the
// original error is returned so the message is redelivered.
func (h *CandidateEventHandler) sendToDLQ(ctx context.Context, key, value []byte, reason string, original error) error {
	if h.producer == nil {
		return fmt.Errorf("no dead letter queue configured: %w", original)
	}

	if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", original,
			"message_key", string(key),
		)
		return fmt.Errorf("failed to park message in DLQ: %w", original)
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
