package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

// maxResponseBytes caps how much of a decision service answer is read
const maxResponseBytes = 4 << 20

// HTTPOracle posts batches to a decision service.
// Request body: {"items": [...]}; response body: a JSON array of decisions.
type HTTPOracle struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// NewHTTPOracle creates a client for the decision service at baseURL
func NewHTTPOracle(baseURL, apiKey string) *HTTPOracle {
	return &HTTPOracle{
		httpClient: &http.Client{
			Timeout: 2 * time.Minute, // adjudicator applies the per-call timeout
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     logger.Named("oracle.http"),
	}
}

// Decide submits one batch. Transport errors and non-2xx answers wrap
// domain.ErrOracleFailure; undecodable bodies wrap domain.ErrMalformedResponse.
func (o *HTTPOracle) Decide(ctx context.Context, req domain.AdjudicationRequest) ([]domain.OracleDecision, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "NutriCurator/1.0")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrOracleFailure, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %w: status %d", domain.ErrOracleFailure, domain.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		o.log.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(raw), 256)).Msg("decision service error")
		return nil, fmt.Errorf("%w: status %d", domain.ErrOracleFailure, resp.StatusCode)
	}

	return DecodeDecisions(raw)
}
