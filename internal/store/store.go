// Package store persists classification results. Postgres is the primary
// backend; an embedded SQLite backend serves single-node deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// LatestAnalysis returns the newest row for keyword whose expires_at is
	// after now, or ErrNotFound.
	LatestAnalysis(ctx context.Context, keyword string, now time.Time) (*models.ClassificationResult, error)
	InsertAnalysis(ctx context.Context, r *models.ClassificationResult) error
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*models.AnalysisSummary, int, error)

	Close() error
}

// AnalysisFilter selects a page of history, newest first. An empty Keyword
// matches every row.
type AnalysisFilter struct {
	Keyword string
	Page    int
	Limit   int
}

// window returns the normalized limit and offset.
func (f AnalysisFilter) window() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
