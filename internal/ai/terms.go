package ai

import (
	"fmt"
	"strings"
)

const (
	minExpandedTerms = 3
	maxExpandedTerms = 5
)

// genericTerms broaden a search so far that results stop being about the keyword.
var genericTerms = map[string]bool{
	"technology":   true,
	"technologies": true,
	"tech":         true,
	"system":       true,
	"systems":      true,
	"innovation":   true,
	"software":     true,
	"hardware":     true,
	"science":      true,
	"research":     true,
	"engineering":  true,
	"computing":    true,
	"platform":     true,
	"solution":     true,
	"solutions":    true,
	"ai":           true,
}

// FilterTerms drops generic words, echoes of the keyword and duplicates,
// then keeps at most five. Fewer than three survivors is ErrTooFewTerms.
func FilterTerms(keyword string, raw []string) ([]string, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	seen := make(map[string]bool, len(raw))
	terms := make([]string, 0, maxExpandedTerms)

	for _, t := range raw {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || key == kw || genericTerms[key] || seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, t)
		if len(terms) == maxExpandedTerms {
			break
		}
	}

	if len(terms) < minExpandedTerms {
		return nil, fmt.Errorf("%w: Only %d valid terms after filtering (need at least %d)", ErrTooFewTerms, len(terms), minExpandedTerms)
	}
	return terms, nil
}
