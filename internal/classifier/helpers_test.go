package classifier

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/ai"
	"github.com/kiranshivaraju/hypecycle/internal/collector"
	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/internal/store"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

type collectFunc func(ctx context.Context, keyword string, terms []string) (models.SourceResult, error)

func (f collectFunc) Collect(ctx context.Context, keyword string, terms []string) (models.SourceResult, error) {
	return f(ctx, keyword, terms)
}

type collectCall struct {
	source models.Source
	terms  []string
}

// fakeCollectors serves canned per-source behavior and records every run.
type fakeCollectors struct {
	mu    sync.Mutex
	fns   map[models.Source]collectFunc
	calls []collectCall
}

func newFakeCollectors(fns map[models.Source]collectFunc) *fakeCollectors {
	return &fakeCollectors{fns: fns}
}

func (f *fakeCollectors) factory() collector.Factory {
	return collector.FactoryFunc(func(s models.Source) (collector.Collector, error) {
		fn, ok := f.fns[s]
		if !ok {
			return nil, errors.New("not configured")
		}
		return collectFunc(func(ctx context.Context, keyword string, terms []string) (models.SourceResult, error) {
			f.mu.Lock()
			f.calls = append(f.calls, collectCall{source: s, terms: terms})
			f.mu.Unlock()
			return fn(ctx, keyword, terms)
		}), nil
	})
}

// expandedSources lists the sources run with non-empty terms, sorted.
func (f *fakeCollectors) expandedSources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if len(c.terms) > 0 {
			out = append(out, string(c.source))
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeCollectors) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func returns(r models.SourceResult) collectFunc {
	return func(context.Context, string, []string) (models.SourceResult, error) { return r, nil }
}

func fails(msg string) collectFunc {
	return func(context.Context, string, []string) (models.SourceResult, error) { return nil, errors.New(msg) }
}

func blocks() collectFunc {
	return func(ctx context.Context, _ string, _ []string) (models.SourceResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

// popular is a social result that does not trigger expansion.
func popular() *models.SocialResult {
	return &models.SocialResult{Mentions30d: 300, MentionsTotal: 1200}
}

func allSucceed() map[models.Source]collectFunc {
	return map[models.Source]collectFunc{
		models.SourceSocial:  returns(popular()),
		models.SourcePapers:  returns(&models.PapersResult{Publications2y: 80}),
		models.SourcePatents: returns(&models.PatentsResult{Patents2y: 40}),
		models.SourceNews:    returns(&models.NewsResult{Articles30d: 700}),
		models.SourceFinance: returns(&models.FinanceResult{CompaniesFound: 6}),
	}
}

// memStore is an in-memory Store.
type memStore struct {
	mu        sync.Mutex
	rows      []*models.ClassificationResult
	lookupErr error
	insertErr error
}

func (m *memStore) LatestAnalysis(_ context.Context, keyword string, now time.Time) (*models.ClassificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		if r.Keyword == keyword && r.ExpiresAt.After(now) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) InsertAnalysis(_ context.Context, r *models.ClassificationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memHot is an in-memory HotCache.
type memHot struct {
	mu     sync.Mutex
	items  map[string]*models.ClassificationResult
	getErr error
	setErr error
	sets   int
}

func newMemHot() *memHot { return &memHot{items: map[string]*models.ClassificationResult{}} }

func (h *memHot) GetAnalysis(_ context.Context, keyword string) (*models.ClassificationResult, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.getErr != nil {
		return nil, false, h.getErr
	}
	r, ok := h.items[keyword]
	return r, ok, nil
}

func (h *memHot) SetAnalysis(_ context.Context, r *models.ClassificationResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sets++
	if h.setErr != nil {
		return h.setErr
	}
	h.items[r.Keyword] = r
	return nil
}

// stubAnalyzer returns fixed answers and counts its calls.
type stubAnalyzer struct {
	mu           sync.Mutex
	terms        []string
	termsErr     error
	analysis     *ai.Analysis
	analyzeErr   error
	analyzeCalls int
	termCalls    int
	analyzed     models.CollectorData
}

func (s *stubAnalyzer) GenerateExpandedTerms(context.Context, string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.termCalls++
	if s.termsErr != nil {
		return nil, s.termsErr
	}
	return s.terms, nil
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string, data models.CollectorData) (*ai.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzeCalls++
	s.analyzed = data
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	if s.analysis != nil {
		return s.analysis, nil
	}
	return &ai.Analysis{
		PerSourceAnalysis: models.PerSourceAnalysis{Phase: models.PhaseSlope, Confidence: 0.7, Reasoning: "steady"},
		PerSource: map[models.Source]models.PerSourceAnalysis{
			models.SourceSocial: {Phase: models.PhaseSlope, Confidence: 0.7, Reasoning: "steady"},
		},
	}, nil
}

func testConfig() config.ClassifierConfig {
	return config.ClassifierConfig{
		CacheTTL:         24 * time.Hour,
		CollectorTimeout: 2 * time.Second,
		MinSources:       3,
	}
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestClassifier(cfg config.ClassifierConfig, fc *fakeCollectors, a Analyzer, st Store, hot HotCache) *Classifier {
	c := New(cfg, fc.factory(), a, st, hot)
	c.now = func() time.Time { return testNow }
	return c
}
