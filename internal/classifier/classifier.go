// Package classifier sequences one hype-cycle classification: cache lookup,
// concurrent collection, optional query expansion, quorum check, model
// analysis and persistence.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hypecycle/internal/ai"
	"github.com/kiranshivaraju/hypecycle/internal/collector"
	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/internal/store"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// Analyzer classifies collected data and suggests expansion terms.
type Analyzer interface {
	TermGenerator
	Analyze(ctx context.Context, keyword string, data models.CollectorData) (*ai.Analysis, error)
}

// Store is the durable result store.
type Store interface {
	LatestAnalysis(ctx context.Context, keyword string, now time.Time) (*models.ClassificationResult, error)
	InsertAnalysis(ctx context.Context, r *models.ClassificationResult) error
}

// HotCache fronts the store with short-lived copies of fresh results.
type HotCache interface {
	GetAnalysis(ctx context.Context, keyword string) (*models.ClassificationResult, bool, error)
	SetAnalysis(ctx context.Context, r *models.ClassificationResult) error
}

// Classifier is the top-level classification pipeline.
type Classifier struct {
	factory          collector.Factory
	analyzer         Analyzer
	store            Store
	hot              HotCache
	expander         *Expander
	cacheTTL         time.Duration
	collectorTimeout time.Duration
	minSources       int
	now              func() time.Time
}

// New creates a Classifier. hot may be nil when no hot cache is configured.
func New(cfg config.ClassifierConfig, factory collector.Factory, analyzer Analyzer, st Store, hot HotCache) *Classifier {
	return &Classifier{
		factory:          factory,
		analyzer:         analyzer,
		store:            st,
		hot:              hot,
		expander:         NewExpander(factory, analyzer, cfg.CollectorTimeout),
		cacheTTL:         cfg.CacheTTL,
		collectorTimeout: cfg.CollectorTimeout,
		minSources:       cfg.MinSources,
		now:              time.Now,
	}
}

// Classify returns the hype-cycle phase for keyword, serving a fresh cached
// result when one exists. A collector quorum failure returns an error
// matching ErrInsufficientData; fewer than three per-source analyses match
// ai.ErrInsufficientAnalyses.
//
// The caller's cancellation is ignored: once started, a run finishes or
// fails on its own deadlines.
func (c *Classifier) Classify(ctx context.Context, keyword string) (*models.ClassificationResult, error) {
	ctx = context.WithoutCancel(ctx)
	keyword = strings.TrimSpace(keyword)

	if cached := c.lookup(ctx, keyword); cached != nil {
		return cached, nil
	}

	start := c.now()
	data, errs := c.collect(ctx, keyword)
	slog.Info("collection complete", "keyword", keyword, "succeeded", data.Succeeded(), "errors", len(errs))

	terms := []string{}
	if IsNiche(data) {
		slog.Info("niche keyword detected", "keyword", keyword,
			"mentions_30d", data.Social.Mentions30d, "mentions_total", data.Social.MentionsTotal)
		data, errs, terms = c.expander.ExpandAndRerun(ctx, keyword, data, errs)
	}

	if n := data.Succeeded(); n < c.minSources {
		return nil, &InsufficientDataError{Succeeded: n, Required: c.minSources, Errors: errs}
	}

	analysis, err := c.analyzer.Analyze(ctx, keyword, data)
	if err != nil {
		return nil, err
	}
	slog.Info("analysis complete", "keyword", keyword, "phase", analysis.Phase,
		"confidence", analysis.Confidence, "duration_ms", c.now().Sub(start).Milliseconds())

	now := c.now().UTC()
	result := &models.ClassificationResult{
		ID:                    uuid.New(),
		Keyword:               keyword,
		Phase:                 analysis.Phase,
		Confidence:            analysis.Confidence,
		Reasoning:             analysis.Reasoning,
		PerSourceAnalyses:     analysis.PerSource,
		CollectorData:         data,
		Errors:                append(append([]string{}, errs...), analysis.Errors...),
		CreatedAt:             now,
		ExpiresAt:             now.Add(c.cacheTTL),
		QueryExpansionApplied: len(terms) > 0,
		ExpandedTerms:         terms,
	}
	result.RecountSources()

	if err := c.store.InsertAnalysis(ctx, result); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	slog.Info("analysis persisted", "keyword", keyword, "id", result.ID, "expires_at", result.ExpiresAt)

	if c.hot != nil {
		if err := c.hot.SetAnalysis(ctx, result); err != nil {
			slog.Warn("hot cache write failed", "keyword", keyword, "error", err)
		}
	}
	return result, nil
}

// lookup returns a fresh cached result or nil. Lookup failures are logged
// and treated as misses.
func (c *Classifier) lookup(ctx context.Context, keyword string) *models.ClassificationResult {
	if c.hot != nil {
		r, ok, err := c.hot.GetAnalysis(ctx, keyword)
		switch {
		case err != nil:
			slog.Warn("hot cache lookup failed", "keyword", keyword, "error", err)
		case ok && r.ExpiresAt.After(c.now()):
			slog.Info("cache hit", "keyword", keyword, "tier", "redis")
			return asCacheHit(r)
		}
	}

	r, err := c.store.LatestAnalysis(ctx, keyword, c.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		slog.Info("cache miss", "keyword", keyword)
		return nil
	case err != nil:
		slog.Warn("cache lookup failed", "keyword", keyword, "error", err)
		return nil
	}
	slog.Info("cache hit", "keyword", keyword, "tier", "store")
	return asCacheHit(r)
}

func asCacheHit(r *models.ClassificationResult) *models.ClassificationResult {
	hit := *r
	hit.CacheHit = true
	hit.Errors = []string{}
	if hit.ExpandedTerms == nil {
		hit.ExpandedTerms = []string{}
	}
	if hit.PerSourceAnalyses == nil {
		hit.PerSourceAnalyses = map[models.Source]models.PerSourceAnalysis{}
	}
	hit.RecountSources()
	return &hit
}
