package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

// RecommendationServiceConfig holds configuration for the recommendation service
type RecommendationServiceConfig struct {
	CacheTTL time.Duration
}

// RecommendationService matches a product and turns its nutrients into advice
type RecommendationService struct {
	matcher  *MatchingService
	cache    domain.CacheRepository
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewRecommendationService creates a recommendation service; cache may be nil
func NewRecommendationService(
	matcher *MatchingService,
	cache domain.CacheRepository,
	config RecommendationServiceConfig,
) *RecommendationService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour // Default 30 days
	}

	return &RecommendationService{
		matcher:  matcher,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      logger.Named("recommendation"),
	}
}

// Recommend resolves productName against the catalog and scores it for profile.
// Flow: check cache -> match -> assess -> advise -> cache -> return.
// An unmatched product yields decision "unknown" and no message.
func (s *RecommendationService) Recommend(ctx context.Context, productName string, profile domain.DiseaseProfile) (*domain.Recommendation, error) {
	if Normalize(productName) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if _, ok := scorers[profile]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProfile, profile)
	}

	key := recommendationKey(productName, profile)
	if cached, err := s.getFromCache(ctx, key); err == nil {
		return cached, nil
	}

	record, err := s.matcher.MatchOne(ctx, productName)
	if err != nil {
		return nil, err
	}

	rec := &domain.Recommendation{Match: record, Decision: DecisionUnknown}
	if !record.Matched() {
		s.log.Debug().Str("product", productName).Str("reason", record.Reason).Msg("no match, skipping advice")
		return rec, nil
	}

	assessment, err := Assess(profile, record.MatchedName, record.Nutrients)
	if err != nil {
		return nil, err
	}
	rec.Assessment = assessment
	rec.Decision = DecisionFor(assessment.Risk)
	rec.Message = Advise(profile, *assessment)

	// fallback answers are provisional and not worth keeping
	if record.Outcome != domain.OutcomeFallback {
		s.setInCache(ctx, key, rec)
	}
	return rec, nil
}

// recommendationKey format: "recommendation:{profile}:{normalized_name}"
func recommendationKey(productName string, profile domain.DiseaseProfile) string {
	return fmt.Sprintf("recommendation:%s:%s", profile, Normalize(productName))
}

func (s *RecommendationService) getFromCache(ctx context.Context, key string) (*domain.Recommendation, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var rec domain.Recommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &rec, nil
}

func (s *RecommendationService) setInCache(ctx context.Context, key string, rec *domain.Recommendation) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache recommendation")
	}
}

// CompareSwap matches both products and reports whether alternative is the
// healthier pick for profile. Either side unmatched is ErrNoMatch.
func (s *RecommendationService) CompareSwap(ctx context.Context, chosen, alternative string, profile domain.DiseaseProfile) (*domain.SwapVerdict, error) {
	if Normalize(chosen) == "" || Normalize(alternative) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if _, ok := scorers[profile]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProfile, profile)
	}

	verdict := &domain.SwapVerdict{Profile: profile}
	for _, side := range []struct {
		name string
		out  *domain.MatchRecord
	}{
		{chosen, &verdict.Chosen},
		{alternative, &verdict.Alternative},
	} {
		record, err := s.matcher.MatchOne(ctx, side.name)
		if err != nil {
			return nil, err
		}
		if !record.Matched() {
			return nil, fmt.Errorf("%w: %q (%s)", domain.ErrNoMatch, side.name, record.Reason)
		}
		*side.out = record
	}

	better, err := ValidateSwap(profile, verdict.Chosen.Nutrients, verdict.Alternative.Nutrients)
	if err != nil {
		return nil, err
	}
	verdict.Better = better
	return verdict, nil
}
