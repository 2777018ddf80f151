package usecase

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

// Retriever produces gated candidate sets from a lexical index
type Retriever struct {
	index    *LexicalIndex
	topK     int
	minScore float64
	workers  int
}

// NewRetriever creates a retriever; non-positive topK/workers fall back to 5 and 1
func NewRetriever(index *LexicalIndex, topK int, minScore float64, workers int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if workers <= 0 {
		workers = 1
	}
	return &Retriever{
		index:    index,
		topK:     topK,
		minScore: minScore,
		workers:  workers,
	}
}

// Retrieve returns up to k candidates for text, best first.
// Ties are broken by ascending catalog index; zero-score entries still fill the set.
func (r *Retriever) Retrieve(text string, k int) domain.CandidateSet {
	return topCandidates(r.index, text, k)
}

func topCandidates(index *LexicalIndex, text string, k int) domain.CandidateSet {
	if index == nil || index.Size() == 0 || k <= 0 || Normalize(text) == "" {
		return domain.CandidateSet{}
	}

	scores := index.Similarities(text)
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make(domain.CandidateSet, 0, k)
	for _, i := range order[:k] {
		rec, _ := index.Catalog().Record(i)
		out = append(out, domain.Candidate{
			Index: i,
			Name:  rec.Name,
			Score: scores[i],
		})
	}
	return out
}

// Gate reports whether a candidate set should skip adjudication, and why
func Gate(set domain.CandidateSet, minScore float64) (bool, string) {
	if len(set) == 0 {
		return true, domain.GateNoCandidates
	}
	if set.TopScore() < minScore {
		return true, domain.GateScoreTooLow
	}
	return false, ""
}

// RetrieveAll retrieves and gates every query. Output order matches input order.
func (r *Retriever) RetrieveAll(queries []domain.Query) []domain.Retrieval {
	out := make([]domain.Retrieval, len(queries))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := range queries {
		g.Go(func() error {
			out[i] = r.retrieveOne(queries[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (r *Retriever) retrieveOne(q domain.Query) domain.Retrieval {
	set := r.Retrieve(q.Text, r.topK)
	gated, reason := Gate(set, r.minScore)
	return domain.Retrieval{
		Query:      q,
		Normalized: Normalize(q.Text),
		Candidates: set,
		Gated:      gated,
		GateReason: reason,
	}
}
