// Package collector gathers raw signals for a keyword from the five
// external providers and normalizes them into models result records.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// Collector fetches one source's metrics. Expected provider failures are
// recorded in the result's error list; a returned error means something
// unexpected went wrong.
type Collector interface {
	Collect(ctx context.Context, keyword string, terms []string) (models.SourceResult, error)
}

// Factory builds collectors. Each call returns a fresh instance so no
// state survives from one classification to the next.
type Factory interface {
	New(source models.Source) (Collector, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(source models.Source) (Collector, error)

func (f FactoryFunc) New(source models.Source) (Collector, error) { return f(source) }

// Registry is the production Factory.
type Registry struct {
	cfg         config.CollectorsConfig
	llm         models.LLMProvider
	temperature float64
	now         func() time.Time
}

// NewRegistry creates a Registry. llm is used by the finance collector to
// discover related tickers and may be nil, in which case finance falls
// back to broad technology ETFs.
func NewRegistry(cfg config.CollectorsConfig, llm models.LLMProvider, temperature float64) *Registry {
	return &Registry{cfg: cfg, llm: llm, temperature: temperature, now: time.Now}
}

func (r *Registry) New(source models.Source) (Collector, error) {
	timeout := r.cfg.HTTPTimeout
	switch source {
	case models.SourceSocial:
		c := NewSocialCollector(r.cfg.HackerNewsBaseURL, timeout)
		c.now = r.now
		return c, nil
	case models.SourcePapers:
		c := NewPapersCollector(r.cfg.SemanticScholarURL, r.cfg.SemanticScholarAPIKey, timeout)
		c.now = r.now
		return c, nil
	case models.SourcePatents:
		c := NewPatentsCollector(r.cfg.PatentsViewURL, r.cfg.PatentsViewAPIKey, timeout)
		c.now = r.now
		return c, nil
	case models.SourceNews:
		c := NewNewsCollector(r.cfg.GDELTBaseURL, timeout)
		c.now = r.now
		return c, nil
	case models.SourceFinance:
		c := NewFinanceCollector(r.cfg.YahooFinanceURL, r.llm, r.temperature, timeout)
		c.now = r.now
		return c, nil
	}
	return nil, fmt.Errorf("unknown source %q", source)
}

// errorList appends the final failure message to the per-window errors.
// The result is never nil so it serializes as [].
func errorList(errs []string, msg string) []string {
	out := make([]string, 0, len(errs)+1)
	out = append(out, errs...)
	return append(out, msg)
}

// nonNil keeps empty error lists serializing as [] rather than null.
func nonNil(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}

var _ Factory = (*Registry)(nil)
