package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// AnalysisCache stores serialized classification results until they expire.
type AnalysisCache struct {
	cache Cache
	now   func() time.Time
}

// NewAnalysisCache wraps c. A NopCache makes every lookup a miss.
func NewAnalysisCache(c Cache) *AnalysisCache {
	return &AnalysisCache{cache: c, now: time.Now}
}

// GetAnalysis returns the cached result for keyword. A hit whose stored
// keyword differs from the trimmed request only in case is a miss, since the
// durable store matches keywords exactly.
func (a *AnalysisCache) GetAnalysis(ctx context.Context, keyword string) (*models.ClassificationResult, bool, error) {
	raw, ok, err := a.cache.Get(ctx, AnalysisKey(keyword))
	if err != nil || !ok {
		return nil, false, err
	}

	var r models.ClassificationResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false, fmt.Errorf("decode cached analysis: %w", err)
	}
	if r.Keyword != strings.TrimSpace(keyword) {
		return nil, false, nil
	}
	return &r, true, nil
}

// SetAnalysis caches r until its expiry. Already-expired results are skipped.
func (a *AnalysisCache) SetAnalysis(ctx context.Context, r *models.ClassificationResult) error {
	ttl := r.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	return a.cache.Set(ctx, AnalysisKey(r.Keyword), raw, ttl)
}
