package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/collector"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"golang.org/x/sync/errgroup"
)

// outcome is one source's settled collection.
type outcome struct {
	result models.SourceResult
	err    error
}

// runBatch collects every source concurrently under one deadline. A slow or
// failing source never cancels its siblings. If the deadline trips before
// all sources settle the whole batch is discarded and the returned error
// describes the timeout.
func runBatch(ctx context.Context, factory collector.Factory, sources []models.Source, keyword string, terms []string, timeout time.Duration) ([]outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcomes := make([]outcome, len(sources))
	var g errgroup.Group
	for i, s := range sources {
		g.Go(func() error {
			r, err := collectOne(ctx, factory, s, keyword, terms)
			outcomes[i] = outcome{result: r, err: err}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("timed out after %s", timeout)
	}
	return outcomes, nil
}

// collectOne runs a fresh collector for s, converting panics into errors.
func collectOne(ctx context.Context, factory collector.Factory, s models.Source, keyword string, terms []string) (r models.SourceResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	c, err := factory.New(s)
	if err != nil {
		return nil, err
	}
	r, err = c.Collect(ctx, keyword, terms)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("no result returned")
	}
	if r.Source() != s {
		return nil, fmt.Errorf("result for %s returned by %s collector", r.Source(), s)
	}
	return r, nil
}

// collect runs the first pass over all five sources.
func (c *Classifier) collect(ctx context.Context, keyword string) (models.CollectorData, []string) {
	var data models.CollectorData
	errs := []string{}

	outcomes, err := runBatch(ctx, c.factory, models.Sources, keyword, nil, c.collectorTimeout)
	if err != nil {
		return data, append(errs, "collection "+err.Error())
	}

	for i, s := range models.Sources {
		o := outcomes[i]
		if o.err != nil {
			errs = append(errs, fmt.Sprintf("%s collector failed: %v", s, o.err))
			continue
		}
		data.Set(s, o.result)
	}
	return data, errs
}
