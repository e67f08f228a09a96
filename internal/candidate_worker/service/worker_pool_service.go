package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pagemend/pagemend/internal/config"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

// WorkerPoolGenerationService fans candidate requests out to a bounded
// worker pool while keeping the per-message result available to the
// consumer, so offsets are only committed for fully handled requests.
type WorkerPoolGenerationService struct {
	baseService GenerationService
	pool        *ants.Pool
	logger      *slog.Logger
	mu          sync.Mutex
	results     map[string]chan error
}

func NewWorkerPoolGenerationService(
	baseService GenerationService,
	cfg config.WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolGenerationService, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolGenerationService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// GenerateCandidates submits a candidate request to the worker pool and
// waits for its outcome.
func (s *WorkerPoolGenerationService) GenerateCandidates(ctx context.Context, request *shared.CandidateRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Submitting candidate request to worker pool",
		"request_id", request.RequestID.String(),
		"issue_id", request.IssueID.String(),
	)

	resultChan := make(chan error, 1)

	requestID := request.RequestID.String()
	s.mu.Lock()
	s.results[requestID] = resultChan
	s.mu.Unlock()

	// Copy the request to avoid data races with the caller
	requestCopy := *request

	err := s.pool.Submit(func() {
		err := s.baseService.GenerateCandidates(ctx, &requestCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, requestID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, requestID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit candidate request to worker pool",
			"request_id", request.RequestID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolGenerationService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolGenerationService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolGenerationService) Capacity() int {
	return s.pool.Cap()
}
