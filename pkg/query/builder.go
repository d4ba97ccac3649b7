package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Builder constructs provider search queries from a keyword plus optional
// expansion terms. All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// PatentsViewParams defines inputs for a PatentsView text search over a year range.
type PatentsViewParams struct {
	Keyword  string
	Terms    []string
	FromYear int
	ToYear   int
}

// PatentsViewFields are the response fields requested from PatentsView.
var PatentsViewFields = []string{
	"patent_id",
	"patent_title",
	"patent_abstract",
	"patent_date",
	"patent_num_times_cited_by_us_patents",
	"assignees",
}

// Quoted returns `"kw"` or `"kw" OR "t1" OR ...` for phrase-aware search engines.
func (b Builder) Quoted(keyword string, terms []string) string {
	words := b.Words(keyword, terms)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + w + `"`
	}
	return strings.Join(quoted, " OR ")
}

// Grouped is Quoted wrapped in parentheses when more than one phrase is present.
// GDELT rejects a bare OR list.
func (b Builder) Grouped(keyword string, terms []string) string {
	q := b.Quoted(keyword, terms)
	if len(b.Words(keyword, terms)) > 1 {
		return "(" + q + ")"
	}
	return q
}

// PatentsView returns the JSON q document matching title or abstract against
// every phrase, restricted to patents granted between FromYear and ToYear inclusive.
func (b Builder) PatentsView(p PatentsViewParams) (string, error) {
	words := b.Words(p.Keyword, p.Terms)
	or := make([]any, 0, len(words)*2)
	for _, w := range words {
		or = append(or,
			map[string]any{"_text_all": map[string]string{"patent_title": w}},
			map[string]any{"_text_all": map[string]string{"patent_abstract": w}},
		)
	}
	doc := map[string]any{
		"_and": []any{
			map[string]any{"_or": or},
			map[string]any{"_gte": map[string]string{"patent_date": fmt.Sprintf("%d-01-01", p.FromYear)}},
			map[string]any{"_lte": map[string]string{"patent_date": fmt.Sprintf("%d-12-31", p.ToYear)}},
		},
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode patentsview query: %w", err)
	}
	return string(out), nil
}

// Words returns the keyword followed by the usable terms: trimmed, with
// embedded double quotes removed, empties and case-insensitive duplicates dropped.
func (b Builder) Words(keyword string, terms []string) []string {
	seen := make(map[string]bool, len(terms)+1)
	out := make([]string, 0, len(terms)+1)
	for _, w := range append([]string{keyword}, terms...) {
		w = strings.TrimSpace(strings.ReplaceAll(w, `"`, ""))
		key := strings.ToLower(w)
		if w == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}
