package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/collector"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// TermGenerator suggests related search terms for a keyword.
type TermGenerator interface {
	GenerateExpandedTerms(ctx context.Context, keyword string) ([]string, error)
}

// Expander re-runs the text-searchable collectors with broadened terms.
type Expander struct {
	factory collector.Factory
	terms   TermGenerator
	timeout time.Duration
}

// NewExpander creates an Expander whose re-run batch shares the first
// pass's deadline length.
func NewExpander(factory collector.Factory, terms TermGenerator, timeout time.Duration) *Expander {
	return &Expander{factory: factory, terms: terms, timeout: timeout}
}

// ExpandAndRerun asks for related terms and reruns the expandable sources
// with them. A successful rerun replaces that source's result; a failed one
// leaves the earlier value in place and adds an error. If no terms can be
// generated the inputs are returned untouched with an empty term list.
func (e *Expander) ExpandAndRerun(ctx context.Context, keyword string, data models.CollectorData, errs []string) (models.CollectorData, []string, []string) {
	terms, err := e.terms.GenerateExpandedTerms(ctx, keyword)
	if err != nil {
		slog.Warn("query expansion skipped", "keyword", keyword, "error", err)
		return data, errs, []string{}
	}
	slog.Info("rerunning collectors with expanded terms", "keyword", keyword, "terms", terms)

	outErrs := append([]string{}, errs...)
	outcomes, err := runBatch(ctx, e.factory, models.ExpandableSources, keyword, terms, e.timeout)
	if err != nil {
		slog.Warn("expanded collection abandoned", "keyword", keyword, "error", err)
		return data, append(outErrs, "expanded collection "+err.Error()), terms
	}

	out := data
	replaced := 0
	for i, s := range models.ExpandableSources {
		o := outcomes[i]
		if o.err != nil {
			outErrs = append(outErrs, fmt.Sprintf("%s expanded collector failed: %v", s, o.err))
			continue
		}
		out.Set(s, o.result)
		replaced++
	}
	slog.Info("query expansion complete", "keyword", keyword, "replaced", replaced)
	return out, outErrs, terms
}
