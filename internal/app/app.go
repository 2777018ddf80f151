// Package app assembles the matching pipeline from configuration
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/HyungsunSo/AI-NutriCurator/config"
	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/infrastructure/audit"
	"github.com/HyungsunSo/AI-NutriCurator/internal/infrastructure/cache"
	"github.com/HyungsunSo/AI-NutriCurator/internal/infrastructure/csvio"
	"github.com/HyungsunSo/AI-NutriCurator/internal/infrastructure/oracle"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
	"github.com/HyungsunSo/AI-NutriCurator/internal/usecase"
)

// Options adjusts wiring for a particular entry point
type Options struct {
	// OnBatch receives adjudication progress
	OnBatch func(done, total int)
}

// App holds the wired services and the resources they own
type App struct {
	Config      *config.Config
	Catalog     *domain.Catalog
	Matcher     *usecase.MatchingService
	Recommender *usecase.RecommendationService
	Audit       *audit.SQLiteStore // nil when audit is disabled

	closers []func() error
}

// New loads the catalog and wires cache, oracle, audit store and services
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.Named("app")

	if cfg.Catalog.Path == "" {
		return nil, fmt.Errorf("%w: catalog path is required (set NUTRICURATOR_CATALOG_PATH)", domain.ErrInvalidRequest)
	}
	catalog, err := csvio.LoadCatalogFile(cfg.Catalog.Path, SourceOptions(cfg.Catalog))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	a := &App{Config: cfg, Catalog: catalog}

	store, closeCache, err := NewCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.onClose(closeCache)

	decider, err := NewOracle(cfg.Oracle)
	if err != nil {
		a.Close()
		return nil, err
	}

	var auditStore domain.AuditStore
	if cfg.Audit.Enabled {
		a.Audit, err = audit.NewSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		auditStore = a.Audit
		a.onClose(a.Audit.Close)
	}

	adjudicator := usecase.NewAdjudicator(decider, usecase.AdjudicatorConfig{
		BatchSize:   cfg.Oracle.BatchSize,
		MaxAttempts: cfg.Oracle.MaxAttempts,
		BackoffBase: cfg.Oracle.BackoffBase,
		CallTimeout: cfg.Oracle.CallTimeout,
		MinInterval: cfg.Oracle.MinInterval,
		Concurrency: cfg.Oracle.Concurrency,
		Cache:       store,
		CacheTTL:    cfg.Cache.TTL,
		OnBatch:     opts.OnBatch,
	})

	a.Matcher = usecase.NewMatchingService(catalog, adjudicator, auditStore, usecase.MatchConfig{
		TopK:     cfg.Matching.TopK,
		MinScore: cfg.Matching.MinScore,
		Workers:  cfg.Matching.Workers,
	})
	a.Recommender = usecase.NewRecommendationService(a.Matcher, store, usecase.RecommendationServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	log.Info().
		Int("catalog", catalog.Len()).
		Str("oracle", cfg.Oracle.Provider).
		Str("cache", cfg.Cache.Type).
		Bool("audit", cfg.Audit.Enabled).
		Msg("pipeline ready")
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// NewCache builds the configured decision cache. A nil repository means caching is off.
func NewCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func() error, error) {
	switch cfg.Type {
	case "memory":
		c := cache.NewMemoryCache(0)
		return c, c.Close, nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, "")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return c, c.Close, nil
	case "none", "":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// NewOracle builds the configured decision oracle. A nil oracle selects lexical mode.
func NewOracle(cfg config.OracleConfig) (domain.Oracle, error) {
	switch cfg.Provider {
	case "openai":
		return oracle.NewLLMOracle(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens), nil
	case "http":
		return oracle.NewHTTPOracle(cfg.BaseURL, cfg.APIKey), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

// SourceOptions converts a source section into loader options
func SourceOptions(cfg config.SourceConfig) csvio.SourceOptions {
	return csvio.SourceOptions{
		NameColumn: cfg.NameColumn,
		SkipRows:   cfg.SkipRows,
		Encoding:   cfg.Encoding,
		Aliases:    cfg.Aliases,
	}
}
