package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	TopK     int
	MinScore float64
	Workers  int
}

// MatchingService runs the normalize -> retrieve -> adjudicate -> merge pipeline
type MatchingService struct {
	catalog     *domain.Catalog
	index       *LexicalIndex
	retriever   *Retriever
	adjudicator *Adjudicator
	audit       domain.AuditStore
	log         *logger.Logger
	now         func() time.Time
}

// NewMatchingService builds the lexical index over catalog once.
// adjudicator may be nil (lexical mode); audit may be nil.
func NewMatchingService(
	catalog *domain.Catalog,
	adjudicator *Adjudicator,
	audit domain.AuditStore,
	config MatchConfig,
) *MatchingService {
	if catalog == nil {
		catalog = domain.NewCatalog(nil)
	}
	if adjudicator == nil {
		adjudicator = NewAdjudicator(nil, AdjudicatorConfig{})
	}

	log := logger.Named("matching")
	start := time.Now()
	index := BuildIndex(catalog)
	log.Info().
		Int("records", index.Size()).
		Int("vocabulary", index.VocabularySize()).
		Dur("took", time.Since(start)).
		Msg("lexical index built")

	return &MatchingService{
		catalog:     catalog,
		index:       index,
		retriever:   NewRetriever(index, config.TopK, config.MinScore, config.Workers),
		adjudicator: adjudicator,
		audit:       audit,
		log:         log,
		now:         time.Now,
	}
}

// Catalog returns the reference catalog the service matches against
func (s *MatchingService) Catalog() *domain.Catalog {
	return s.catalog
}

// Run matches every query and returns one record per non-blank query, in order.
// Blank queries (empty after normalization) are dropped before ordinals are assigned.
// Oracle failures and cancellation never fail the run; they resolve through fallback.
func (s *MatchingService) Run(ctx context.Context, queries []string) (*domain.Report, error) {
	report := &domain.Report{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}

	batch := make([]domain.Query, 0, len(queries))
	for _, q := range queries {
		if Normalize(q) == "" {
			continue
		}
		batch = append(batch, domain.Query{Ordinal: len(batch), Text: q})
	}
	if dropped := len(queries) - len(batch); dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("skipping blank queries")
	}

	retrievals := s.retriever.RetrieveAll(batch)
	results := s.adjudicator.Adjudicate(ctx, retrievals)
	report.Records, report.Summary = Merge(retrievals, results, s.catalog)
	report.FinishedAt = s.now()
	report.Cancelled = ctx.Err() != nil

	s.log.Info().
		Str("run_id", report.RunID).
		Int("total", report.Summary.Total).
		Int("matched", report.Summary.Matched).
		Int("gated", report.Summary.Gated).
		Int("declined", report.Summary.Declined).
		Int("fallback", report.Summary.Fallback).
		Float64("match_rate", report.Summary.MatchRate).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("matching run finished")

	if s.audit != nil {
		// persist even when the caller went away
		if err := s.audit.SaveRun(context.WithoutCancel(ctx), report); err != nil {
			s.log.Error().Err(err).Str("run_id", report.RunID).Msg("failed to save audit run")
		}
	}

	return report, nil
}

// MatchOne runs a single query through the pipeline without auditing
func (s *MatchingService) MatchOne(ctx context.Context, query string) (domain.MatchRecord, error) {
	if Normalize(query) == "" {
		return domain.MatchRecord{}, domain.ErrInvalidRequest
	}
	retrievals := s.retriever.RetrieveAll([]domain.Query{{Ordinal: 0, Text: query}})
	results := s.adjudicator.Adjudicate(ctx, retrievals)
	records, _ := Merge(retrievals, results, s.catalog)
	return records[0], nil
}
