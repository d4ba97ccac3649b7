// Package handler holds the HTTP handlers behind the v1 API routes.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/hypecycle/internal/ai"
	mw "github.com/kiranshivaraju/hypecycle/internal/api/middleware"
	"github.com/kiranshivaraju/hypecycle/internal/api/response"
	"github.com/kiranshivaraju/hypecycle/internal/classifier"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

const (
	maxKeywordLength = 100
	maxRequestBody   = 1 << 16

	// insufficientDataRetryAfter is the Retry-After hint, in seconds, on a
	// 503 INSUFFICIENT_DATA response.
	insufficientDataRetryAfter = "300"
)

// Classifier defines the interface the analyze handler depends on.
type Classifier interface {
	Classify(ctx context.Context, keyword string) (*models.ClassificationResult, error)
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
func NewAnalyzeHandler(c Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Keyword string `json:"keyword"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		keyword := strings.TrimSpace(req.Keyword)
		if keyword == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "keyword is required", nil)
			return
		}
		if utf8.RuneCountInString(keyword) > maxKeywordLength {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"keyword must be at most 100 characters", nil)
			return
		}

		result, err := c.Classify(r.Context(), keyword)
		if err != nil {
			requestID, _ := mw.GetRequestID(r)
			switch {
			case errors.Is(err, classifier.ErrInsufficientData), errors.Is(err, ai.ErrInsufficientAnalyses):
				slog.Warn("analysis rejected", "keyword", keyword, "error", err, "request_id", requestID)
				w.Header().Set("Retry-After", insufficientDataRetryAfter)
				response.Error(w, http.StatusServiceUnavailable, "INSUFFICIENT_DATA", err.Error(), nil)
			default:
				slog.Error("analysis failed", "keyword", keyword, "error", err, "request_id", requestID)
				response.Error(w, http.StatusInternalServerError, "ANALYSIS_FAILED",
					"Analysis failed: "+err.Error(), nil)
			}
			return
		}

		response.JSON(w, result)
	}
}
