package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/hypecycle/internal/api/response"
	"github.com/kiranshivaraju/hypecycle/internal/store"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryLister defines the interface the history handler depends on.
type HistoryLister interface {
	ListAnalyses(ctx context.Context, filter store.AnalysisFilter) ([]*models.AnalysisSummary, int, error)
}

// NewHistoryHandler returns an http.HandlerFunc for GET /api/v1/analyses.
func NewHistoryHandler(h HistoryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, ok := positiveInt(q.Get("page"), 1)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return
		}
		limit, ok := positiveInt(q.Get("limit"), defaultHistoryLimit)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
			return
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		items, total, err := h.ListAnalyses(r.Context(), store.AnalysisFilter{
			Keyword: strings.TrimSpace(q.Get("keyword")),
			Page:    page,
			Limit:   limit,
		})
		if err != nil {
			slog.Error("list analyses", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		if items == nil {
			items = []*models.AnalysisSummary{}
		}

		response.Collection(w, items, response.NewPaginationMeta(page, limit, total))
	}
}

// positiveInt parses raw, returning def when raw is empty.
func positiveInt(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
