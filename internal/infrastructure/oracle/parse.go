// Package oracle holds the decision oracle adapters used by the adjudicator
package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

var codeFenceRegex = regexp.MustCompile("```[^\\n]*\\n?")

// wireDecision keeps the id optional so a missing key can be told apart from id 0
type wireDecision struct {
	ID           *int   `json:"id"`
	MatchedIndex *int   `json:"matched_index"`
	Reason       string `json:"reason"`
}

// ParseDecisions decodes an oracle answer: a JSON array of
// {"id", "matched_index", "reason"}, optionally wrapped in code fences or prose.
func ParseDecisions(raw string) ([]domain.OracleDecision, error) {
	text := strings.TrimSpace(codeFenceRegex.ReplaceAllString(raw, ""))

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in response", domain.ErrMalformedResponse)
	}
	return DecodeDecisions([]byte(text[start : end+1]))
}

// DecodeDecisions decodes a JSON array of decisions. Every entry must carry an id.
func DecodeDecisions(data []byte) ([]domain.OracleDecision, error) {
	var wire []wireDecision
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	decisions := make([]domain.OracleDecision, len(wire))
	for i, w := range wire {
		if w.ID == nil {
			return nil, fmt.Errorf("%w: decision %d has no id", domain.ErrMalformedResponse, i)
		}
		decisions[i] = domain.OracleDecision{
			ID:           *w.ID,
			MatchedIndex: w.MatchedIndex,
			Reason:       w.Reason,
		}
	}
	return decisions, nil
}

// truncate shortens s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
