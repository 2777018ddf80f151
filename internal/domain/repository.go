package domain

import (
	"context"
	"time"
)

// OracleCandidate is a candidate as shown to the oracle; scores are withheld
type OracleCandidate struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// AdjudicationItem is one query of a batch submitted to the oracle
type AdjudicationItem struct {
	ID         int               `json:"id"`
	Query      string            `json:"query"`
	Candidates []OracleCandidate `json:"candidates"`
}

// AdjudicationRequest is one batch submitted to the oracle
type AdjudicationRequest struct {
	Items []AdjudicationItem `json:"items"`
}

// OracleDecision is one entry of an oracle response.
// A nil MatchedIndex is an explicit "no match", not an error.
type OracleDecision struct {
	ID           int    `json:"id"`
	MatchedIndex *int   `json:"matched_index"`
	Reason       string `json:"reason"`
}

// AdjudicationResult is the resolved decision for one query
type AdjudicationResult struct {
	ID           int     `json:"id"`
	MatchedIndex *int    `json:"matchedIndex"`
	Reason       string  `json:"reason"`
	Outcome      Outcome `json:"outcome"`
}

// Oracle decides which candidate, if any, is the true match for each item.
// Responses may come back in any order; callers re-index them by ID.
type Oracle interface {
	Decide(ctx context.Context, req AdjudicationRequest) ([]OracleDecision, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AuditStore persists finished runs for later verification
type AuditStore interface {
	SaveRun(ctx context.Context, report *Report) error
	Close() error
}
