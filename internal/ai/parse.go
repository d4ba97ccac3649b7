package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// requiredFields are the keys every analysis reply must carry.
var requiredFields = []string{"phase", "confidence", "reasoning"}

// DecodeJSON unmarshals a model reply into T. The trimmed content is tried
// as is first; failing that, the first markdown code fence is extracted and
// tried. Prose before or after the fence is ignored.
func DecodeJSON[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		var fenced T
		ferr := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &fenced)
		if ferr == nil {
			return fenced, nil
		}
		err = ferr
	}

	return result, &ContractError{Kind: ErrInvalidJSON, Detail: err.Error(), Raw: content}
}

// ParseAnalysis validates a model reply against the phase classification
// schema. Nothing is defaulted: a missing field, an unknown phase or a
// confidence outside [0,1] is an error.
func ParseAnalysis(content string) (models.PerSourceAnalysis, error) {
	fields, err := DecodeJSON[map[string]json.RawMessage](content)
	if err != nil {
		return models.PerSourceAnalysis{}, err
	}
	if fields == nil {
		return models.PerSourceAnalysis{}, &ContractError{Kind: ErrInvalidJSON, Detail: "expected a JSON object", Raw: content}
	}

	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return models.PerSourceAnalysis{}, &ContractError{
				Kind:   ErrMissingFields,
				Detail: fmt.Sprintf("Got: %v", sortedKeys(fields)),
				Raw:    content,
			}
		}
		// json.Unmarshal leaves the zero value for null, so it never reaches the decoders below.
		if isNull(fields[f]) {
			return models.PerSourceAnalysis{}, &ContractError{
				Kind:   ErrMissingFields,
				Detail: fmt.Sprintf("%s must not be null", f),
				Raw:    content,
			}
		}
	}

	var phase string
	if err := json.Unmarshal(fields["phase"], &phase); err != nil || !models.Phase(phase).Valid() {
		return models.PerSourceAnalysis{}, &ContractError{
			Kind:   ErrInvalidPhase,
			Detail: fmt.Sprintf("Invalid phase '%s'. Must be one of: %v", rawText(fields["phase"], phase), models.Phases),
			Raw:    content,
		}
	}

	var confidence float64
	if err := json.Unmarshal(fields["confidence"], &confidence); err != nil || confidence < 0 || confidence > 1 {
		return models.PerSourceAnalysis{}, &ContractError{
			Kind:   ErrConfidenceRange,
			Detail: fmt.Sprintf("Confidence must be float between 0-1. Got: %s", fields["confidence"]),
			Raw:    content,
		}
	}

	var reasoning string
	if err := json.Unmarshal(fields["reasoning"], &reasoning); err != nil {
		return models.PerSourceAnalysis{}, &ContractError{
			Kind:   ErrMissingFields,
			Detail: "reasoning must be a string",
			Raw:    content,
		}
	}

	return models.PerSourceAnalysis{
		Phase:      models.Phase(phase),
		Confidence: confidence,
		Reasoning:  reasoning,
	}, nil
}

// ParseTerms accepts either {"terms": [...]} or a bare JSON array of strings.
func ParseTerms(content string) ([]string, error) {
	if obj, err := DecodeJSON[struct {
		Terms []string `json:"terms"`
	}](content); err == nil && obj.Terms != nil {
		return obj.Terms, nil
	}
	return DecodeJSON[[]string](content)
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawText prefers the decoded string and falls back to the raw JSON token.
func rawText(raw json.RawMessage, decoded string) string {
	if decoded != "" {
		return decoded
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
