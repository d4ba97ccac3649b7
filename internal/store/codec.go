package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// analysisRow is a ClassificationResult flattened to column values. A nil
// payload is stored as SQL NULL.
type analysisRow struct {
	social        []byte
	papers        []byte
	patents       []byte
	news          []byte
	finance       []byte
	perSource     []byte
	expandedTerms []byte
}

func encodeAnalysis(r *models.ClassificationResult) (analysisRow, error) {
	var row analysisRow
	var err error
	if row.social, err = marshalNullable(r.CollectorData.Social, r.CollectorData.Social == nil); err != nil {
		return row, err
	}
	if row.papers, err = marshalNullable(r.CollectorData.Papers, r.CollectorData.Papers == nil); err != nil {
		return row, err
	}
	if row.patents, err = marshalNullable(r.CollectorData.Patents, r.CollectorData.Patents == nil); err != nil {
		return row, err
	}
	if row.news, err = marshalNullable(r.CollectorData.News, r.CollectorData.News == nil); err != nil {
		return row, err
	}
	if row.finance, err = marshalNullable(r.CollectorData.Finance, r.CollectorData.Finance == nil); err != nil {
		return row, err
	}
	if row.perSource, err = marshalNullable(r.PerSourceAnalyses, len(r.PerSourceAnalyses) == 0); err != nil {
		return row, err
	}
	terms := r.ExpandedTerms
	if terms == nil {
		terms = []string{}
	}
	if row.expandedTerms, err = json.Marshal(terms); err != nil {
		return row, fmt.Errorf("marshal expanded terms: %w", err)
	}
	return row, nil
}

func marshalNullable(v any, isNil bool) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return b, nil
}

// decodeInto fills the JSON-backed fields of r from row.
func (row analysisRow) decodeInto(r *models.ClassificationResult) error {
	if err := unmarshalNullable(row.social, &r.CollectorData.Social); err != nil {
		return err
	}
	if err := unmarshalNullable(row.papers, &r.CollectorData.Papers); err != nil {
		return err
	}
	if err := unmarshalNullable(row.patents, &r.CollectorData.Patents); err != nil {
		return err
	}
	if err := unmarshalNullable(row.news, &r.CollectorData.News); err != nil {
		return err
	}
	if err := unmarshalNullable(row.finance, &r.CollectorData.Finance); err != nil {
		return err
	}

	r.PerSourceAnalyses = map[models.Source]models.PerSourceAnalysis{}
	if err := unmarshalNullable(row.perSource, &r.PerSourceAnalyses); err != nil {
		return err
	}
	if r.PerSourceAnalyses == nil {
		r.PerSourceAnalyses = map[models.Source]models.PerSourceAnalysis{}
	}

	r.ExpandedTerms = []string{}
	if err := unmarshalNullable(row.expandedTerms, &r.ExpandedTerms); err != nil {
		return err
	}
	if r.ExpandedTerms == nil {
		r.ExpandedTerms = []string{}
	}

	r.Errors = []string{}
	r.RecountSources()
	return nil
}

func unmarshalNullable(b []byte, dst any) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("unmarshal %T: %w", dst, err)
	}
	return nil
}

// ensureID assigns a row id when the caller left it unset.
func ensureID(r *models.ClassificationResult) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
}
