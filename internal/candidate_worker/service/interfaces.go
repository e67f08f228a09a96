package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/domain/shared"
)

// GenerationService defines the interface for handling candidate
// generation requests.
type GenerationService interface {
	GenerateCandidates(ctx context.Context, request *shared.CandidateRequest) error
}

// PageResolver resolves the artifact currently shown for a page
type PageResolver interface {
	CurrentRef(ctx context.Context, documentID, pageID uuid.UUID) (string, error)
}
