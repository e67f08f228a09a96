package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pagemend/pagemend/internal/config"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

// InpaintRequest asks the backend to re-render a page region with the
// replacement text while preserving the surrounding design.
type InpaintRequest struct {
	ArtifactRef  string      `json:"artifact_ref"` // Page artifact to edit
	Region       shared.BBox `json:"region"`       // Mask over the text to replace
	OriginalText string      `json:"original_text"`
	Replacement  string      `json:"replacement"`
	StyleRef     string      `json:"style_ref,omitempty"` // Optional reference style artifact
}

// InpaintResponse carries the rendered result artifact
type InpaintResponse struct {
	ArtifactRef string `json:"artifact_ref"`
}

// CandidatesRequest asks the backend for correction candidates for a
// detected text region.
type CandidatesRequest struct {
	ArtifactRef   string      `json:"artifact_ref"`
	Region        shared.BBox `json:"region"`
	DetectedText  string      `json:"detected_text"`
	ContextBefore string      `json:"context_before,omitempty"`
	ContextAfter  string      `json:"context_after,omitempty"`
	Count         int         `json:"count"`
}

// CandidatesResponse carries proposed replacements with confidence and rationale
type CandidatesResponse struct {
	Candidates []issue.Candidate `json:"candidates"`
}

// Invoker is the gateway surface the workflow and worker depend on
type Invoker interface {
	Inpaint(ctx context.Context, req *InpaintRequest) (*InpaintResponse, error)
	GenerateCandidates(ctx context.Context, req *CandidatesRequest) (*CandidatesResponse, error)
}

// Client calls the generation backend over HTTP with the bounded retry
// policy applied to every invocation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retry      *RetryPolicy
	logger     *slog.Logger
}

// NewClient creates a generation backend client from configuration
func NewClient(logger *slog.Logger, cfg *config.GatewayConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		retry:      NewRetryPolicy(cfg.MaxAttempts, cfg.BackoffBase),
		logger:     logger,
	}
}

// Inpaint renders the replacement text into the masked region. Retryable
// failures (rate limits, 5xx, timeouts) are retried within the attempt
// budget; terminal failures propagate immediately.
func (c *Client) Inpaint(ctx context.Context, req *InpaintRequest) (*InpaintResponse, error) {
	var resp InpaintResponse
	if err := c.post(ctx, "/v1/inpaint", req, &resp); err != nil {
		return nil, err
	}
	if resp.ArtifactRef == "" {
		return nil, terminalErr(http.StatusOK, "backend returned no artifact")
	}
	return &resp, nil
}

// GenerateCandidates requests correction candidates for a region
func (c *Client) GenerateCandidates(ctx context.Context, req *CandidatesRequest) (*CandidatesResponse, error) {
	var resp CandidatesResponse
	if err := c.post(ctx, "/v1/candidates", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return terminalErr(0, fmt.Sprintf("failed to marshal request: %v", err))
	}

	return c.retry.Do(ctx, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return terminalErr(0, fmt.Sprintf("failed to build request: %v", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			// Transport errors and timeouts count as retryable
			c.logger.Warn("Generation backend request failed", "path", path, "error", err)
			return retryableErr("request failed", err)
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode != http.StatusOK {
			cerr := classifyStatus(httpResp.StatusCode)
			c.logger.Warn("Generation backend returned error status",
				"path", path,
				"status", httpResp.StatusCode,
				"kind", string(cerr.Kind))
			return cerr
		}

		if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
			return retryableErr("failed to decode response", err)
		}
		return nil
	})
}

// Ensure the concrete client satisfies the gateway surface
var _ Invoker = (*Client)(nil)

// IsTerminal reports whether err is a terminal gateway failure
func IsTerminal(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind == FailureTerminal
	}
	return false
}
