package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

// N-gram range used for the character model
const (
	minNGram = 2
	maxNGram = 4
)

// sparseVector holds term ids in ascending order with their weights
type sparseVector struct {
	terms   []int
	weights []float64
}

// LexicalIndex is a character n-gram tf-idf model over the catalog names.
// It is read-only after BuildIndex and safe for concurrent use.
type LexicalIndex struct {
	catalog *domain.Catalog
	vocab   map[string]int
	idf     []float64
	rows    []sparseVector
}

// BuildIndex fits the vector space over every normalized reference name.
// Every distinct n-gram is admitted (minimum document frequency 1).
func BuildIndex(catalog *domain.Catalog) *LexicalIndex {
	n := catalog.Len()
	docs := make([]map[string]int, n)
	df := make(map[string]int)

	for i := 0; i < n; i++ {
		rec, _ := catalog.Record(i)
		counts := countNGrams(Normalize(rec.Name))
		docs[i] = counts
		for gram := range counts {
			df[gram]++
		}
	}

	grams := make([]string, 0, len(df))
	for gram := range df {
		grams = append(grams, gram)
	}
	sort.Strings(grams)

	vocab := make(map[string]int, len(grams))
	idf := make([]float64, len(grams))
	for id, gram := range grams {
		vocab[gram] = id
		// smoothed idf: ln((1+N)/(1+df)) + 1
		idf[id] = math.Log(float64(1+n)/float64(1+df[gram])) + 1
	}

	idx := &LexicalIndex{
		catalog: catalog,
		vocab:   vocab,
		idf:     idf,
		rows:    make([]sparseVector, n),
	}
	for i, counts := range docs {
		idx.rows[i] = idx.weigh(counts)
	}
	return idx
}

// Size returns the number of indexed reference records
func (idx *LexicalIndex) Size() int {
	return len(idx.rows)
}

// VocabularySize returns the number of distinct n-grams in the model
func (idx *LexicalIndex) VocabularySize() int {
	return len(idx.vocab)
}

// Catalog returns the catalog the index was built over
func (idx *LexicalIndex) Catalog() *domain.Catalog {
	return idx.catalog
}

// Similarities returns the cosine similarity of text against every row.
// text is normalized first; n-grams unknown to the model are ignored.
func (idx *LexicalIndex) Similarities(text string) []float64 {
	scores := make([]float64, len(idx.rows))
	q := idx.project(Normalize(text))
	if len(q) == 0 {
		return scores
	}
	for i, row := range idx.rows {
		var dot float64
		for j, term := range row.terms {
			if w, ok := q[term]; ok {
				dot += w * row.weights[j]
			}
		}
		scores[i] = clampUnit(dot)
	}
	return scores
}

// project maps normalized text into the model space as a term -> weight map
func (idx *LexicalIndex) project(normalized string) map[int]float64 {
	if normalized == "" {
		return nil
	}
	vec := idx.weigh(countNGrams(normalized))
	out := make(map[int]float64, len(vec.terms))
	for i, term := range vec.terms {
		out[term] = vec.weights[i]
	}
	return out
}

// weigh applies sublinear tf and idf, then L2-normalizes.
// Grams outside the vocabulary are dropped.
func (idx *LexicalIndex) weigh(counts map[string]int) sparseVector {
	tf := make(map[int]int, len(counts))
	for gram, c := range counts {
		if id, ok := idx.vocab[gram]; ok {
			tf[id] = c
		}
	}

	vec := sparseVector{
		terms:   make([]int, 0, len(tf)),
		weights: make([]float64, 0, len(tf)),
	}
	for id := range tf {
		vec.terms = append(vec.terms, id)
	}
	sort.Ints(vec.terms)

	var norm float64
	for _, id := range vec.terms {
		w := (1 + math.Log(float64(tf[id]))) * idx.idf[id]
		vec.weights = append(vec.weights, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.weights {
			vec.weights[i] /= norm
		}
	}
	return vec
}

// countNGrams counts word-bounded character n-grams of normalized text.
// Each whitespace token is padded with one space per side; a padded token
// shorter than n contributes itself once and stops the longer n.
func countNGrams(normalized string) map[string]int {
	counts := make(map[string]int)
	for _, word := range strings.Fields(normalized) {
		padded := []rune(" " + word + " ")
		for n := minNGram; n <= maxNGram; n++ {
			if len(padded) <= n {
				counts[string(padded)]++
				break
			}
			for offset := 0; offset+n <= len(padded); offset++ {
				counts[string(padded[offset:offset+n])]++
			}
		}
	}
	return counts
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
