package models

import (
	"time"

	"github.com/google/uuid"
)

// PerSourceAnalysis is one source's phase classification.
type PerSourceAnalysis struct {
	Phase      Phase   `json:"phase"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ClassificationResult is the aggregate returned to callers and persisted
// as one analysis row.
type ClassificationResult struct {
	ID                    uuid.UUID                    `json:"-"`
	Keyword               string                       `json:"keyword"`
	Phase                 Phase                        `json:"phase"`
	Confidence            float64                      `json:"confidence"`
	Reasoning             string                       `json:"reasoning"`
	PerSourceAnalyses     map[Source]PerSourceAnalysis `json:"per_source_analyses"`
	CollectorData         CollectorData                `json:"collector_data"`
	CollectorsSucceeded   int                          `json:"collectors_succeeded"`
	PartialData           bool                         `json:"partial_data"`
	Errors                []string                     `json:"errors"`
	CacheHit              bool                         `json:"cache_hit"`
	CreatedAt             time.Time                    `json:"created_at"`
	ExpiresAt             time.Time                    `json:"expires_at"`
	QueryExpansionApplied bool                         `json:"query_expansion_applied"`
	ExpandedTerms         []string                     `json:"expanded_terms"`
}

// RecountSources derives CollectorsSucceeded and PartialData from CollectorData.
func (r *ClassificationResult) RecountSources() {
	r.CollectorsSucceeded = r.CollectorData.Succeeded()
	r.PartialData = r.CollectorsSucceeded < len(Sources)
}

// AnalysisSummary is a history listing entry without raw collector payloads.
type AnalysisSummary struct {
	ID                    uuid.UUID `json:"id"`
	Keyword               string    `json:"keyword"`
	Phase                 Phase     `json:"phase"`
	Confidence            float64   `json:"confidence"`
	Reasoning             string    `json:"reasoning"`
	CollectorsSucceeded   int       `json:"collectors_succeeded"`
	QueryExpansionApplied bool      `json:"query_expansion_applied"`
	CreatedAt             time.Time `json:"created_at"`
	ExpiresAt             time.Time `json:"expires_at"`
}
