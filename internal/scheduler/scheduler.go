// Package scheduler keeps a watchlist of keywords classified on a cron
// schedule so their cached results stay fresh.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"github.com/robfig/cron/v3"
)

// Classifier is the slice of the classification pipeline the refresher uses.
type Classifier interface {
	Classify(ctx context.Context, keyword string) (*models.ClassificationResult, error)
}

// Refresher runs Classify for each watchlist keyword on a schedule. A
// keyword whose cached result is still fresh costs one cache lookup.
type Refresher struct {
	cron       *cron.Cron
	classifier Classifier
	keywords   []string

	mu      sync.Mutex
	started bool
}

// NewRefresher validates schedule (standard five-field cron or a descriptor
// such as "@every 6h") and registers the refresh job.
func NewRefresher(schedule string, keywords []string, c Classifier) (*Refresher, error) {
	r := &Refresher{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		classifier: c,
		keywords:   append([]string(nil), keywords...),
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

// RunOnce classifies every keyword in order. Failures are logged and the
// remaining keywords still run.
func (r *Refresher) RunOnce(ctx context.Context) {
	refreshed, cached, failed := 0, 0, 0
	for _, kw := range r.keywords {
		if ctx.Err() != nil {
			break
		}
		res, err := r.classifier.Classify(ctx, kw)
		switch {
		case err != nil:
			failed++
			slog.Warn("scheduled refresh failed", "keyword", kw, "error", err)
		case res.CacheHit:
			cached++
		default:
			refreshed++
			slog.Info("keyword refreshed", "keyword", kw, "phase", res.Phase)
		}
	}
	slog.Info("scheduled refresh complete", "refreshed", refreshed, "cached", cached, "failed", failed)
}

// Next returns the next scheduled run, or the zero time before Start.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins the schedule.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		r.cron.Start()
		r.started = true
	}
}

// Stop halts the schedule and waits for a running refresh to finish or ctx
// to expire.
func (r *Refresher) Stop(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}
	r.started = false
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("refresh still running at shutdown")
	}
}
