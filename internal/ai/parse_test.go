package ai_test

import (
	"errors"
	"testing"

	"github.com/kiranshivaraju/hypecycle/internal/ai"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis_Valid(t *testing.T) {
	got, err := ai.ParseAnalysis(`{"phase":"peak","confidence":0.75,"reasoning":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, models.PerSourceAnalysis{Phase: models.PhasePeak, Confidence: 0.75, Reasoning: "x"}, got)
}

func TestParseAnalysis_FencedWithTrailingProse(t *testing.T) {
	bare, err := ai.ParseAnalysis(`{"phase":"peak","confidence":0.75,"reasoning":"x"}`)
	require.NoError(t, err)

	content := "```json\n{\"phase\":\"peak\",\"confidence\":0.75,\"reasoning\":\"x\"}\n```\nHope this helps! Let me know if you need more."
	fenced, err := ai.ParseAnalysis(content)
	require.NoError(t, err)
	assert.Equal(t, bare, fenced)
}

func TestParseAnalysis_FenceVariants(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"fence without language tag", "```\n{\"phase\":\"slope\",\"confidence\":0.5,\"reasoning\":\"r\"}\n```"},
		{"surrounding whitespace", "  \n\t{\"phase\":\"slope\",\"confidence\":0.5,\"reasoning\":\"r\"}\n  "},
		{"leading prose", "Here you go:\n```json\n{\"phase\":\"slope\",\"confidence\":0.5,\"reasoning\":\"r\"}\n```"},
		{"integer confidence", `{"phase":"slope","confidence":1,"reasoning":"r"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ai.ParseAnalysis(tt.content)
			require.NoError(t, err)
			assert.Equal(t, models.PhaseSlope, got.Phase)
		})
	}
}

func TestParseAnalysis_Violations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    error
		detail  string
	}{
		{"missing reasoning", `{"phase":"peak","confidence":0.75}`, ai.ErrMissingFields, "Got: [confidence phase]"},
		{"missing everything", `{}`, ai.ErrMissingFields, "Got: []"},
		{"unknown phase", `{"phase":"bogus","confidence":0.5,"reasoning":"x"}`, ai.ErrInvalidPhase, "Invalid phase 'bogus'"},
		{"phase wrong type", `{"phase":3,"confidence":0.5,"reasoning":"x"}`, ai.ErrInvalidPhase, "Invalid phase '3'"},
		{"confidence above one", `{"phase":"peak","confidence":1.5,"reasoning":"x"}`, ai.ErrConfidenceRange, "Got: 1.5"},
		{"negative confidence", `{"phase":"peak","confidence":-0.1,"reasoning":"x"}`, ai.ErrConfidenceRange, "between 0-1"},
		{"confidence as string", `{"phase":"peak","confidence":"0.7","reasoning":"x"}`, ai.ErrConfidenceRange, "between 0-1"},
		{"reasoning wrong type", `{"phase":"peak","confidence":0.7,"reasoning":{"a":1}}`, ai.ErrMissingFields, "reasoning must be a string"},
		{"null confidence", `{"phase":"peak","confidence":null,"reasoning":"x"}`, ai.ErrMissingFields, "confidence must not be null"},
		{"null reasoning", `{"phase":"peak","confidence":0.7,"reasoning":null}`, ai.ErrMissingFields, "reasoning must not be null"},
		{"null phase", `{"phase":null,"confidence":0.7,"reasoning":"x"}`, ai.ErrMissingFields, "phase must not be null"},
		{"plain prose", `The technology is at its peak.`, ai.ErrInvalidJSON, ""},
		{"array instead of object", `["peak", 0.7]`, ai.ErrInvalidJSON, ""},
		{"null", `null`, ai.ErrInvalidJSON, "expected a JSON object"},
		{"broken fence", "```json\n{\"phase\": \"peak\",\n```", ai.ErrInvalidJSON, ""},
		{"empty", ``, ai.ErrInvalidJSON, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ai.ParseAnalysis(tt.content)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var ce *ai.ContractError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.kind, ce.Kind)
			if tt.detail != "" {
				assert.Contains(t, ce.Detail, tt.detail)
			}
		})
	}
}

func TestParseAnalysis_ContractErrorKeepsRaw(t *testing.T) {
	_, err := ai.ParseAnalysis(`{"phase":"bogus","confidence":0.5,"reasoning":"x"}`)

	var ce *ai.ContractError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, `{"phase":"bogus","confidence":0.5,"reasoning":"x"}`, ce.Raw)
	assert.Contains(t, err.Error(), "response phase not recognised")
}

func TestParseTerms(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{"object", `{"terms": ["a", "b", "c"]}`, []string{"a", "b", "c"}},
		{"bare array", `["a", "b"]`, []string{"a", "b"}},
		{"fenced object", "```json\n{\"terms\": [\"term1\", \"term2\", \"term3\", \"term4\"]}\n```", []string{"term1", "term2", "term3", "term4"}},
		{"fenced array", "```\n[\"x\"]\n```", []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ai.ParseTerms(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTerms_Invalid(t *testing.T) {
	for _, content := range []string{`{"words": ["a"]}`, `terms: a, b`, `{"terms": "a"}`} {
		_, err := ai.ParseTerms(content)
		assert.ErrorIs(t, err, ai.ErrInvalidJSON, content)
	}
}

func TestDecodeJSON_Generic(t *testing.T) {
	tickers, err := ai.DecodeJSON[[]string]("```json\n[\"IBM\", \"GOOGL\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"IBM", "GOOGL"}, tickers)
}
