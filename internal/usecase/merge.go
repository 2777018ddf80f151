package usecase

import "github.com/HyungsunSo/AI-NutriCurator/internal/domain"

// Merge folds retrievals and adjudication results into one MatchRecord per
// query, in input order, plus the run summary. It has no side effects.
func Merge(retrievals []domain.Retrieval, results map[int]domain.AdjudicationResult, catalog *domain.Catalog) ([]domain.MatchRecord, domain.Summary) {
	records := make([]domain.MatchRecord, 0, len(retrievals))
	var sum domain.Summary

	for _, r := range retrievals {
		rec := domain.MatchRecord{
			Ordinal:  r.Query.Ordinal,
			Query:    r.Query.Text,
			TopScore: r.Candidates.TopScore(),
		}

		switch res, ok := results[r.Query.Ordinal]; {
		case r.Gated:
			rec.Reason = r.GateReason
			rec.Outcome = domain.OutcomeGated
		case !ok:
			rec.Reason = string(domain.OutcomeMissing)
			rec.Outcome = domain.OutcomeMissing
		default:
			rec.Reason = res.Reason
			rec.Outcome = res.Outcome
			if res.MatchedIndex != nil {
				ref, found := catalog.Record(*res.MatchedIndex)
				if !found {
					rec.Reason = string(domain.OutcomeMissing)
					rec.Outcome = domain.OutcomeMissing
					break
				}
				idx := ref.Index
				rec.MatchedIndex = &idx
				rec.MatchedName = ref.Name
				rec.Nutrients = ref.Nutrients.Clone()
			}
		}

		tally(&sum, rec)
		records = append(records, rec)
	}

	if sum.Total > 0 {
		sum.MatchRate = float64(sum.Matched) / float64(sum.Total)
	}
	return records, sum
}

func tally(sum *domain.Summary, rec domain.MatchRecord) {
	sum.Total++
	if rec.Matched() {
		sum.Matched++
	} else {
		sum.Unmatched++
	}
	switch rec.Outcome {
	case domain.OutcomeGated:
		sum.Gated++
	case domain.OutcomeDeclined:
		sum.Declined++
	case domain.OutcomeFallback:
		sum.Fallback++
	}
}
