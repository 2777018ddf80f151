package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

func recommendationCatalog() *domain.Catalog {
	return domain.NewCatalog([]domain.ReferenceRecord{
		{Name: "저염 어묵", Nutrients: domain.Nutrients{domain.AttrSodium: 300}},
		{Name: "짬뽕 라면", Nutrients: domain.Nutrients{domain.AttrSodium: 1800}},
	})
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("low sodium product is a great choice", func(t *testing.T) {
		svc := NewRecommendationService(
			NewMatchingService(recommendationCatalog(), nil, nil, defaultMatchConfig()), nil,
			RecommendationServiceConfig{},
		)
		rec, err := svc.Recommend(ctx, "저염어묵 120g", domain.ProfileHypertension)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Assessment == nil || rec.Assessment.Score != 70 {
			t.Fatalf("assessment = %+v", rec.Assessment)
		}
		if rec.Decision != DecisionGreatChoice || !strings.HasPrefix(rec.Message, "[GREAT CHOICE]") {
			t.Errorf("decision %q message %q", rec.Decision, rec.Message)
		}
	})

	t.Run("salty product warns", func(t *testing.T) {
		svc := NewRecommendationService(
			NewMatchingService(recommendationCatalog(), nil, nil, defaultMatchConfig()), nil,
			RecommendationServiceConfig{},
		)
		rec, err := svc.Recommend(ctx, "짬뽕라면", domain.ProfileHypertension)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Decision != DecisionWarning || !strings.HasPrefix(rec.Message, "[WARNING]") {
			t.Errorf("decision %q message %q", rec.Decision, rec.Message)
		}
	})

	t.Run("unmatched product gets no advice", func(t *testing.T) {
		svc := NewRecommendationService(
			NewMatchingService(recommendationCatalog(), nil, nil, defaultMatchConfig()), nil,
			RecommendationServiceConfig{},
		)
		rec, err := svc.Recommend(ctx, "자동차 타이어", domain.ProfileDiabetes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Decision != DecisionUnknown || rec.Message != "" || rec.Assessment != nil {
			t.Errorf("recommendation = %+v, want unknown", rec)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		svc := NewRecommendationService(
			NewMatchingService(recommendationCatalog(), nil, nil, defaultMatchConfig()), nil,
			RecommendationServiceConfig{},
		)
		if _, err := svc.Recommend(ctx, "  ", domain.ProfileDiabetes); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
		if _, err := svc.Recommend(ctx, "어묵", "gout"); !errors.Is(err, domain.ErrUnknownProfile) {
			t.Errorf("error = %v, want ErrUnknownProfile", err)
		}
	})

	t.Run("serves repeated requests from cache", func(t *testing.T) {
		cache := NewMockCacheRepository()
		oracle := &mockOracle{steps: []func(domain.AdjudicationRequest) ([]domain.OracleDecision, error){pickTop}}
		matcher := NewMatchingService(recommendationCatalog(), NewAdjudicator(oracle, fastConfig()), nil, defaultMatchConfig())
		svc := NewRecommendationService(matcher, cache, RecommendationServiceConfig{})

		first, err := svc.Recommend(ctx, "저염어묵 120g", domain.ProfileCKDPreDialysis)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := svc.Recommend(ctx, "저염어묵 120g", domain.ProfileCKDPreDialysis)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if oracle.calls() != 1 {
			t.Errorf("oracle calls = %d, want 1", oracle.calls())
		}
		if second.Message != first.Message || second.Decision != first.Decision {
			t.Errorf("cached = %+v, want %+v", second, first)
		}
	})

	t.Run("fallback answers are not cached", func(t *testing.T) {
		cache := NewMockCacheRepository()
		oracle := &mockOracle{steps: []func(domain.AdjudicationRequest) ([]domain.OracleDecision, error){failing}}
		matcher := NewMatchingService(recommendationCatalog(), NewAdjudicator(oracle, fastConfig()), nil, defaultMatchConfig())
		svc := NewRecommendationService(matcher, cache, RecommendationServiceConfig{})

		rec, err := svc.Recommend(ctx, "저염어묵 120g", domain.ProfileHypertension)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Match.Outcome != domain.OutcomeFallback {
			t.Errorf("outcome = %q, want fallback", rec.Match.Outcome)
		}
		if len(cache.data) != 0 {
			t.Errorf("cache entries = %d, want 0", len(cache.data))
		}
	})
}

func TestCompareSwap(t *testing.T) {
	ctx := context.Background()
	svc := NewRecommendationService(
		NewMatchingService(recommendationCatalog(), nil, nil, defaultMatchConfig()), nil,
		RecommendationServiceConfig{},
	)

	tests := []struct {
		name        string
		chosen      string
		alternative string
		wantBetter  bool
		wantErr     error
	}{
		{"lower sodium alternative", "짬뽕라면", "저염어묵", true, nil},
		{"saltier alternative", "저염어묵", "짬뽕라면", false, nil},
		{"same product", "저염어묵", "저염 어묵", false, nil},
		{"unmatched alternative", "저염어묵", "자동차 타이어", false, domain.ErrNoMatch},
		{"blank side", "", "저염어묵", false, domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := svc.CompareSwap(ctx, tt.chosen, tt.alternative, domain.ProfileHypertension)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Better != tt.wantBetter {
				t.Errorf("Better = %v, want %v", verdict.Better, tt.wantBetter)
			}
		})
	}

	if _, err := svc.CompareSwap(ctx, "어묵", "라면", "gout"); !errors.Is(err, domain.ErrUnknownProfile) {
		t.Errorf("error = %v, want ErrUnknownProfile", err)
	}
}
