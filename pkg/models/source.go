package models

// Source identifies one of the five external signal providers.
type Source string

const (
	SourceSocial  Source = "social"
	SourcePapers  Source = "papers"
	SourcePatents Source = "patents"
	SourceNews    Source = "news"
	SourceFinance Source = "finance"
)

// Sources lists every source in presentation order.
var Sources = []Source{SourceSocial, SourcePapers, SourcePatents, SourceNews, SourceFinance}

// ExpandableSources are re-run with broadened search terms for niche keywords.
// Finance discovers its own entities and is never part of this set.
var ExpandableSources = []Source{SourceSocial, SourcePapers, SourcePatents, SourceNews}

// Label returns the human-readable provider label used in prompts.
func (s Source) Label() string {
	switch s {
	case SourceSocial:
		return "Social Media (Hacker News)"
	case SourcePapers:
		return "Academic Research (Semantic Scholar)"
	case SourcePatents:
		return "Patents (PatentsView)"
	case SourceNews:
		return "News Coverage (GDELT)"
	case SourceFinance:
		return "Financial Markets (Yahoo Finance)"
	}
	return string(s)
}

func (s Source) String() string { return string(s) }
