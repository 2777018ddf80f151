package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

// ReasonFallback marks a top-1 resolution used after the oracle failed
const ReasonFallback = "fallback"

// AdjudicatorConfig holds batching and retry parameters
type AdjudicatorConfig struct {
	BatchSize   int
	MaxAttempts int
	BackoffBase time.Duration
	CallTimeout time.Duration // per oracle call; 0 disables
	MinInterval time.Duration // between submissions; 0 disables
	Concurrency int

	Cache    domain.CacheRepository // optional
	CacheTTL time.Duration

	// OnBatch is called after each batch resolves. Calls are serialized and
	// done increases by one per call.
	OnBatch func(done, total int)
}

// Adjudicator resolves gated-through retrievals through a decision oracle
type Adjudicator struct {
	oracle  domain.Oracle
	cfg     AdjudicatorConfig
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewAdjudicator creates an adjudicator. A nil oracle selects lexical mode,
// where every item resolves to its top-1 candidate without external calls.
func NewAdjudicator(oracle domain.Oracle, cfg AdjudicatorConfig) *Adjudicator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &Adjudicator{
		oracle:  oracle,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.Named("adjudicator"),
	}
}

// batch is one oracle submission and the retrievals behind it
type batch struct {
	seq   int
	items []domain.AdjudicationItem
	byID  map[int]domain.Retrieval
}

// Adjudicate returns one result per ungated retrieval, keyed by query ordinal.
// It never fails: exhausted retries and cancellation both resolve through fallback.
func (a *Adjudicator) Adjudicate(ctx context.Context, retrievals []domain.Retrieval) map[int]domain.AdjudicationResult {
	results := make(map[int]domain.AdjudicationResult)

	var pending []domain.Retrieval
	for _, r := range retrievals {
		if r.Gated {
			continue
		}
		pending = append(pending, r)
	}

	if a.oracle == nil {
		for _, r := range pending {
			results[r.Query.Ordinal] = lexicalResult(r)
		}
		return results
	}

	pending = a.fromCache(ctx, pending, results)
	batches := a.partition(pending)
	if len(batches) == 0 {
		return results
	}

	slots := make([][]domain.AdjudicationResult, len(batches))
	var (
		mu   sync.Mutex
		done int
	)
	finish := func(b batch, out []domain.AdjudicationResult) {
		slots[b.seq] = out
		if a.cfg.OnBatch == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		a.cfg.OnBatch(done, len(batches))
	}

	if a.cfg.Concurrency == 1 {
		for _, b := range batches {
			finish(b, a.resolve(ctx, b))
		}
	} else {
		var g errgroup.Group
		g.SetLimit(a.cfg.Concurrency)
		for _, b := range batches {
			g.Go(func() error {
				finish(b, a.resolve(ctx, b))
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, out := range slots {
		for _, res := range out {
			results[res.ID] = res
		}
	}
	return results
}

func (a *Adjudicator) partition(pending []domain.Retrieval) []batch {
	var batches []batch
	for start := 0; start < len(pending); start += a.cfg.BatchSize {
		end := min(start+a.cfg.BatchSize, len(pending))
		b := batch{
			seq:  len(batches),
			byID: make(map[int]domain.Retrieval, end-start),
		}
		for _, r := range pending[start:end] {
			b.items = append(b.items, toItem(r))
			b.byID[r.Query.Ordinal] = r
		}
		batches = append(batches, b)
	}
	return batches
}

func toItem(r domain.Retrieval) domain.AdjudicationItem {
	cands := make([]domain.OracleCandidate, len(r.Candidates))
	for i, c := range r.Candidates {
		cands[i] = domain.OracleCandidate{Index: c.Index, Name: c.Name}
	}
	return domain.AdjudicationItem{
		ID:         r.Query.Ordinal,
		Query:      r.Normalized,
		Candidates: cands,
	}
}

// resolve runs one batch through PENDING -> RETRYING -> SUCCESS or FALLBACK
func (a *Adjudicator) resolve(ctx context.Context, b batch) []domain.AdjudicationResult {
	req := domain.AdjudicationRequest{Items: b.items}

	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		out, err := a.attempt(ctx, req, b)
		if err == nil {
			a.toCache(ctx, b, out)
			return out
		}
		lastErr = err
		a.log.Warn().Err(err).
			Int("batch", b.seq).
			Int("attempt", attempt).
			Int("max_attempts", a.cfg.MaxAttempts).
			Msg("oracle attempt failed")

		if ctx.Err() != nil {
			break
		}
		if attempt < a.cfg.MaxAttempts {
			if err := sleepContext(ctx, exponentialBackoff(a.cfg.BackoffBase, attempt)); err != nil {
				break
			}
		}
	}

	a.log.Error().Err(lastErr).
		Int("batch", b.seq).
		Int("items", len(b.items)).
		Msg("oracle unavailable, using top-1 fallback")
	return fallbackResults(b)
}

// attempt makes one bounded oracle call and validates the answer
func (a *Adjudicator) attempt(ctx context.Context, req domain.AdjudicationRequest, b batch) ([]domain.AdjudicationResult, error) {
	callCtx := ctx
	if a.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.cfg.CallTimeout)
		defer cancel()
	}

	decisions, err := a.oracle.Decide(callCtx, req)
	if err != nil {
		return nil, err
	}
	return a.validate(b, decisions)
}

// validate re-indexes decisions by id. Every request id must be answered and
// every matched index must belong to that item's candidates.
func (a *Adjudicator) validate(b batch, decisions []domain.OracleDecision) ([]domain.AdjudicationResult, error) {
	byID := make(map[int]domain.OracleDecision, len(decisions))
	for _, d := range decisions {
		r, ok := b.byID[d.ID]
		if !ok {
			a.log.Warn().Int("id", d.ID).Int("batch", b.seq).Msg("ignoring decision for unknown id")
			continue
		}
		if _, dup := byID[d.ID]; dup {
			a.log.Warn().Int("id", d.ID).Int("batch", b.seq).Msg("ignoring duplicate decision")
			continue
		}
		if d.MatchedIndex != nil && !r.Candidates.Contains(*d.MatchedIndex) {
			return nil, fmt.Errorf("%w: id %d picked index %d outside its candidates",
				domain.ErrMalformedResponse, d.ID, *d.MatchedIndex)
		}
		byID[d.ID] = d
	}

	out := make([]domain.AdjudicationResult, 0, len(b.items))
	for _, item := range b.items {
		d, ok := byID[item.ID]
		if !ok {
			return nil, fmt.Errorf("%w: no decision for id %d", domain.ErrMalformedResponse, item.ID)
		}
		out = append(out, decisionResult(d))
	}
	return out, nil
}

func decisionResult(d domain.OracleDecision) domain.AdjudicationResult {
	outcome := domain.OutcomeMatched
	if d.MatchedIndex == nil {
		outcome = domain.OutcomeDeclined
	}
	return domain.AdjudicationResult{
		ID:           d.ID,
		MatchedIndex: cloneIndex(d.MatchedIndex),
		Reason:       d.Reason,
		Outcome:      outcome,
	}
}

func fallbackResults(b batch) []domain.AdjudicationResult {
	out := make([]domain.AdjudicationResult, 0, len(b.items))
	for _, item := range b.items {
		res := domain.AdjudicationResult{
			ID:      item.ID,
			Reason:  ReasonFallback,
			Outcome: domain.OutcomeFallback,
		}
		if top, ok := b.byID[item.ID].Candidates.Top(); ok {
			idx := top.Index
			res.MatchedIndex = &idx
		}
		out = append(out, res)
	}
	return out
}

func lexicalResult(r domain.Retrieval) domain.AdjudicationResult {
	res := domain.AdjudicationResult{
		ID:      r.Query.Ordinal,
		Outcome: domain.OutcomeLexical,
	}
	if top, ok := r.Candidates.Top(); ok {
		idx := top.Index
		res.MatchedIndex = &idx
		res.Reason = fmt.Sprintf("tfidf:%.3f", top.Score)
	}
	return res
}

// exponentialBackoff returns base * 2^(attempt-1)
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneIndex(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cachedDecision is the stored form of a successful adjudication
type cachedDecision struct {
	MatchedIndex *int   `json:"matchedIndex"`
	Reason       string `json:"reason"`
}

// decisionKey identifies a decision by normalized query and candidate list
func decisionKey(r domain.Retrieval) string {
	var sb strings.Builder
	sb.WriteString(r.Normalized)
	for _, c := range r.Candidates {
		sb.WriteByte('\x1f')
		sb.WriteString(strconv.Itoa(c.Index))
		sb.WriteByte(':')
		sb.WriteString(c.Name)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return "decision:" + hex.EncodeToString(sum[:])
}

// fromCache fills results from cached decisions and returns the retrievals still pending
func (a *Adjudicator) fromCache(ctx context.Context, pending []domain.Retrieval, results map[int]domain.AdjudicationResult) []domain.Retrieval {
	if a.cfg.Cache == nil {
		return pending
	}

	rest := pending[:0:0]
	for _, r := range pending {
		raw, err := a.cfg.Cache.Get(ctx, decisionKey(r))
		if err != nil {
			if !errors.Is(err, domain.ErrCacheMiss) {
				a.log.Debug().Err(err).Msg("decision cache read failed")
			}
			rest = append(rest, r)
			continue
		}

		var cd cachedDecision
		if err := json.Unmarshal(raw, &cd); err != nil ||
			(cd.MatchedIndex != nil && !r.Candidates.Contains(*cd.MatchedIndex)) {
			rest = append(rest, r)
			continue
		}

		results[r.Query.Ordinal] = decisionResult(domain.OracleDecision{
			ID:           r.Query.Ordinal,
			MatchedIndex: cd.MatchedIndex,
			Reason:       cd.Reason,
		})
	}

	if hits := len(pending) - len(rest); hits > 0 {
		a.log.Info().Int("hits", hits).Int("pending", len(rest)).Msg("decision cache")
	}
	return rest
}

// toCache stores oracle decisions; fallback results never reach here
func (a *Adjudicator) toCache(ctx context.Context, b batch, out []domain.AdjudicationResult) {
	if a.cfg.Cache == nil {
		return
	}
	for _, res := range out {
		raw, err := json.Marshal(cachedDecision{MatchedIndex: res.MatchedIndex, Reason: res.Reason})
		if err != nil {
			continue
		}
		if err := a.cfg.Cache.Set(ctx, decisionKey(b.byID[res.ID]), raw, a.cfg.CacheTTL); err != nil {
			a.log.Debug().Err(err).Msg("decision cache write failed")
		}
	}
}
