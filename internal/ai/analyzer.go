package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"golang.org/x/sync/errgroup"
)

// MinAnalyses is the number of per-source analyses synthesis needs.
const MinAnalyses = 3

const maxTokens = 1024

// Analysis is the outcome of the two-stage classification.
type Analysis struct {
	models.PerSourceAnalysis
	PerSource map[models.Source]models.PerSourceAnalysis
	Errors    []string
}

// Analyzer classifies collected signals with a language model.
type Analyzer struct {
	provider    models.LLMProvider
	temperature float64
	timeout     time.Duration
}

// NewAnalyzer creates an Analyzer. Every model call runs under timeout.
func NewAnalyzer(provider models.LLMProvider, temperature float64, timeout time.Duration) *Analyzer {
	return &Analyzer{
		provider:    provider,
		temperature: temperature,
		timeout:     timeout,
	}
}

// AnalyzeSource classifies one source's metrics.
func (a *Analyzer) AnalyzeSource(ctx context.Context, keyword string, r models.SourceResult) (models.PerSourceAnalysis, error) {
	prompt, err := SourcePrompt(keyword, r)
	if err != nil {
		return models.PerSourceAnalysis{}, err
	}
	content, err := a.complete(ctx, prompt)
	if err != nil {
		return models.PerSourceAnalysis{}, err
	}
	return ParseAnalysis(content)
}

// Synthesize combines per-source analyses into one classification.
func (a *Analyzer) Synthesize(ctx context.Context, keyword string, analyses map[models.Source]models.PerSourceAnalysis) (models.PerSourceAnalysis, error) {
	content, err := a.complete(ctx, SynthesisPrompt(keyword, analyses))
	if err != nil {
		return models.PerSourceAnalysis{}, err
	}
	return ParseAnalysis(content)
}

// GenerateExpandedTerms asks for 3 to 5 related search terms.
func (a *Analyzer) GenerateExpandedTerms(ctx context.Context, keyword string) ([]string, error) {
	content, err := a.complete(ctx, TermsPrompt(keyword))
	if err != nil {
		return nil, err
	}
	raw, err := ParseTerms(content)
	if err != nil {
		return nil, err
	}
	return FilterTerms(keyword, raw)
}

// Analyze runs one classification per present source concurrently, then a
// synthesis over the ones that succeeded. Individual failures are recorded
// in Errors; fewer than MinAnalyses successes is ErrInsufficientAnalyses.
func (a *Analyzer) Analyze(ctx context.Context, keyword string, data models.CollectorData) (*Analysis, error) {
	type outcome struct {
		analysis models.PerSourceAnalysis
		err      error
		present  bool
	}
	outcomes := make([]outcome, len(models.Sources))

	var g errgroup.Group
	for i, s := range models.Sources {
		r := data.Get(s)
		if r == nil {
			continue
		}
		outcomes[i].present = true
		g.Go(func() error {
			outcomes[i].analysis, outcomes[i].err = a.AnalyzeSource(ctx, keyword, r)
			return nil
		})
	}
	_ = g.Wait()

	perSource := make(map[models.Source]models.PerSourceAnalysis, len(models.Sources))
	var errs []string
	for i, s := range models.Sources {
		o := outcomes[i]
		switch {
		case !o.present:
			errs = append(errs, fmt.Sprintf("Missing %s data", s))
		case o.err != nil:
			slog.Warn("per-source analysis failed", "keyword", keyword, "source", s, "error", o.err)
			errs = append(errs, fmt.Sprintf("Failed to analyze %s: %v", s, o.err))
		default:
			perSource[s] = o.analysis
		}
	}

	if len(perSource) < MinAnalyses {
		return nil, fmt.Errorf("%w. Errors: %v", ErrInsufficientAnalyses, errs)
	}

	overall, err := a.Synthesize(ctx, keyword, perSource)
	if err != nil {
		return nil, fmt.Errorf("synthesize analyses: %w", err)
	}

	return &Analysis{
		PerSourceAnalysis: overall,
		PerSource:         perSource,
		Errors:            errs,
	}, nil
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	content, err := a.provider.Complete(callCtx, models.CompletionRequest{
		Prompt:      prompt,
		Temperature: a.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrInferenceTimeout) {
			return "", fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return "", err
	}
	return content, nil
}
