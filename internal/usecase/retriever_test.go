package usecase

import (
	"fmt"
	"testing"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

func TestNewRetriever(t *testing.T) {
	t.Run("uses defaults for non-positive values", func(t *testing.T) {
		r := NewRetriever(BuildIndex(catalogOf("a")), 0, 0.15, -1)
		if r.topK != 5 {
			t.Errorf("topK = %d, want 5 (default)", r.topK)
		}
		if r.workers != 1 {
			t.Errorf("workers = %d, want 1 (default)", r.workers)
		}
	})
}

func TestRetrieve(t *testing.T) {
	idx := BuildIndex(catalogOf("저염 어묵", "어묵볶음", "딸기잼", "whole milk", "skim milk"))
	r := NewRetriever(idx, 3, 0.15, 1)

	t.Run("best candidate first", func(t *testing.T) {
		got := r.Retrieve("저염어묵 120g", 3)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		if got[0].Index != 0 || got[0].Name != "저염 어묵" {
			t.Errorf("top = %+v, want index 0 저염 어묵", got[0])
		}
		for i := 1; i < len(got); i++ {
			if got[i].Score > got[i-1].Score {
				t.Errorf("scores not descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
			}
		}
	})

	t.Run("size is min of k and catalog", func(t *testing.T) {
		if got := r.Retrieve("milk", 10); len(got) != idx.Size() {
			t.Errorf("len = %d, want %d", len(got), idx.Size())
		}
		if got := r.Retrieve("milk", 2); len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})

	t.Run("ties break by ascending index", func(t *testing.T) {
		got := r.Retrieve("자동차 타이어", 5)
		if len(got) != 5 {
			t.Fatalf("len = %d, want 5: zero-score entries still fill the set", len(got))
		}
		for i, c := range got {
			if c.Score != 0 {
				t.Errorf("score[%d] = %v, want 0", i, c.Score)
			}
			if c.Index != i {
				t.Errorf("candidate %d index = %d, want %d", i, c.Index, i)
			}
		}
	})

	t.Run("indices are distinct and valid", func(t *testing.T) {
		seen := map[int]bool{}
		for _, c := range r.Retrieve("milk 어묵", 5) {
			if c.Index < 0 || c.Index >= idx.Size() {
				t.Errorf("index %d out of range", c.Index)
			}
			if seen[c.Index] {
				t.Errorf("duplicate index %d", c.Index)
			}
			seen[c.Index] = true
		}
	})

	t.Run("empty normalized query", func(t *testing.T) {
		if got := r.Retrieve("!!! ---", 3); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("non-positive k", func(t *testing.T) {
		if got := r.Retrieve("milk", 0); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("empty catalog", func(t *testing.T) {
		empty := NewRetriever(BuildIndex(domain.NewCatalog(nil)), 3, 0.15, 1)
		if got := empty.Retrieve("milk", 3); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}

func TestGate(t *testing.T) {
	tests := []struct {
		name       string
		set        domain.CandidateSet
		minScore   float64
		wantGated  bool
		wantReason string
	}{
		{"empty set", domain.CandidateSet{}, 0.15, true, domain.GateNoCandidates},
		{"below threshold", domain.CandidateSet{{Index: 0, Score: 0.1}}, 0.15, true, domain.GateScoreTooLow},
		{"zero score", domain.CandidateSet{{Index: 0, Score: 0}}, 0.15, true, domain.GateScoreTooLow},
		{"at threshold passes", domain.CandidateSet{{Index: 0, Score: 0.15}}, 0.15, false, ""},
		{"above threshold", domain.CandidateSet{{Index: 0, Score: 0.7}, {Index: 1, Score: 0.1}}, 0.15, false, ""},
		{"zero min score admits zero", domain.CandidateSet{{Index: 0, Score: 0}}, 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gated, reason := Gate(tt.set, tt.minScore)
			if gated != tt.wantGated || reason != tt.wantReason {
				t.Errorf("Gate() = (%v, %q), want (%v, %q)", gated, reason, tt.wantGated, tt.wantReason)
			}
		})
	}
}

func TestRetrieveAll(t *testing.T) {
	idx := BuildIndex(catalogOf("저염 어묵", "딸기잼", "whole milk"))

	t.Run("preserves input order across workers", func(t *testing.T) {
		r := NewRetriever(idx, 2, 0.15, 4)
		queries := make([]domain.Query, 50)
		for i := range queries {
			text := "자동차 타이어"
			if i%2 == 0 {
				text = fmt.Sprintf("저염어묵 %dg", i)
			}
			queries[i] = domain.Query{Ordinal: i, Text: text}
		}

		got := r.RetrieveAll(queries)
		if len(got) != len(queries) {
			t.Fatalf("len = %d, want %d", len(got), len(queries))
		}
		for i, ret := range got {
			if ret.Query.Ordinal != i {
				t.Errorf("retrieval %d ordinal = %d", i, ret.Query.Ordinal)
			}
			if i%2 == 0 && ret.Gated {
				t.Errorf("retrieval %d gated (%s), want passed", i, ret.GateReason)
			}
			if i%2 == 1 && (!ret.Gated || ret.GateReason != domain.GateScoreTooLow) {
				t.Errorf("retrieval %d = gated %v reason %q, want score_too_low", i, ret.Gated, ret.GateReason)
			}
		}
	})

	t.Run("records normalized text", func(t *testing.T) {
		r := NewRetriever(idx, 2, 0.15, 1)
		got := r.RetrieveAll([]domain.Query{{Ordinal: 0, Text: "Whole-MILK"}})
		if got[0].Normalized != "whole milk" {
			t.Errorf("normalized = %q, want %q", got[0].Normalized, "whole milk")
		}
	})

	t.Run("empty catalog gates every query", func(t *testing.T) {
		r := NewRetriever(BuildIndex(domain.NewCatalog(nil)), 2, 0.15, 2)
		got := r.RetrieveAll([]domain.Query{{Ordinal: 0, Text: "milk"}, {Ordinal: 1, Text: "jam"}})
		for i, ret := range got {
			if !ret.Gated || ret.GateReason != domain.GateNoCandidates {
				t.Errorf("retrieval %d = gated %v reason %q, want no_candidates", i, ret.Gated, ret.GateReason)
			}
		}
	})

	t.Run("no queries", func(t *testing.T) {
		r := NewRetriever(idx, 2, 0.15, 2)
		if got := r.RetrieveAll(nil); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}
