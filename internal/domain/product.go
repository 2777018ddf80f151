package domain

import "time"

// ReferenceRecord is one entry of the reference nutrition catalog
type ReferenceRecord struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Nutrients Nutrients `json:"nutrients,omitempty"`
}

// Catalog is the read-only reference record set for one run.
// Record i always carries Index == i.
type Catalog struct {
	records []ReferenceRecord
}

// NewCatalog builds a catalog, reassigning indexes to slice positions
func NewCatalog(records []ReferenceRecord) *Catalog {
	out := make([]ReferenceRecord, len(records))
	for i, r := range records {
		out[i] = ReferenceRecord{
			Index:     i,
			Name:      r.Name,
			Nutrients: r.Nutrients.Clone(),
		}
	}
	return &Catalog{records: out}
}

// Len returns the number of records
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Record returns the record at index i
func (c *Catalog) Record(i int) (ReferenceRecord, bool) {
	if c == nil || i < 0 || i >= len(c.records) {
		return ReferenceRecord{}, false
	}
	return c.records[i], true
}

// Names returns the display names in catalog order
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.records))
	for i, r := range c.records {
		names[i] = r.Name
	}
	return names
}

// Query is one raw product name and its position in the input batch
type Query struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
}

// Candidate is a reference entry retrieved for a query
type Candidate struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Score float64 `json:"score"` // cosine similarity in [0,1]
}

// CandidateSet is ordered by descending score, ties by ascending index
type CandidateSet []Candidate

// Top returns the best candidate, if any
func (s CandidateSet) Top() (Candidate, bool) {
	if len(s) == 0 {
		return Candidate{}, false
	}
	return s[0], true
}

// TopScore returns the best score, 0 for an empty set
func (s CandidateSet) TopScore() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].Score
}

// Contains reports whether index is one of the candidates
func (s CandidateSet) Contains(index int) bool {
	for _, c := range s {
		if c.Index == index {
			return true
		}
	}
	return false
}

// Gate reasons recorded for queries that skip adjudication
const (
	GateScoreTooLow  = "score_too_low"
	GateNoCandidates = "no_candidates"
)

// Retrieval is the retriever's output for one query
type Retrieval struct {
	Query      Query        `json:"query"`
	Normalized string       `json:"normalized"`
	Candidates CandidateSet `json:"candidates"`
	Gated      bool         `json:"gated"`
	GateReason string       `json:"gateReason,omitempty"`
}

// Outcome classifies how a query was resolved
type Outcome string

const (
	OutcomeMatched  Outcome = "matched"  // oracle picked a candidate
	OutcomeDeclined Outcome = "declined" // oracle explicitly declined
	OutcomeGated    Outcome = "gated"    // never adjudicated
	OutcomeFallback Outcome = "fallback" // oracle unavailable, top-1 used
	OutcomeLexical  Outcome = "lexical"  // no oracle configured, top-1 used
	OutcomeMissing  Outcome = "unresolved"
)

// MatchRecord is the final per-query result.
// MatchedIndex != nil iff Nutrients is a full copy of that reference record.
type MatchRecord struct {
	Ordinal      int       `json:"ordinal"`
	Query        string    `json:"query"`
	MatchedIndex *int      `json:"matchedIndex"`
	MatchedName  string    `json:"matchedName"`
	TopScore     float64   `json:"topScore"`
	Reason       string    `json:"reason"`
	Outcome      Outcome   `json:"outcome"`
	Nutrients    Nutrients `json:"nutrients,omitempty"`
}

// Matched reports whether the record resolved to a reference entry
func (m MatchRecord) Matched() bool {
	return m.MatchedIndex != nil
}

// Summary aggregates the outcome of one run
type Summary struct {
	Total     int     `json:"total"`
	Matched   int     `json:"matched"`
	Unmatched int     `json:"unmatched"`
	Gated     int     `json:"gated"`
	Declined  int     `json:"declined"`
	Fallback  int     `json:"fallback"`
	MatchRate float64 `json:"matchRate"` // 0-1
}

// Report is the result of one pipeline run
type Report struct {
	RunID      string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Records    []MatchRecord `json:"records"`
	Summary    Summary       `json:"summary"`
	Cancelled  bool          `json:"cancelled,omitempty"`
}
