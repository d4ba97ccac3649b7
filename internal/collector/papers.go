package collector

import (
	"cmp"
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/analysis"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"github.com/kiranshivaraju/hypecycle/pkg/query"
)

const (
	papersFields   = "paperId,title,year,citationCount,influentialCitationCount,authors,venue"
	papersLimit    = 100
	papersTopCount = 5
)

// PapersCollector measures academic output through the Semantic Scholar
// bulk search API.
type PapersCollector struct {
	baseURL string
	apiKey  string
	http    *httpClient
	now     func() time.Time
}

func NewPapersCollector(baseURL, apiKey string, timeout time.Duration) *PapersCollector {
	return &PapersCollector{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    newHTTPClient(timeout),
		now:     time.Now,
	}
}

type s2Response struct {
	Total int       `json:"total"`
	Data  []s2Paper `json:"data"`
}

type s2Paper struct {
	PaperID                  string     `json:"paperId"`
	Title                    string     `json:"title"`
	Year                     *int       `json:"year"`
	CitationCount            *int       `json:"citationCount"`
	InfluentialCitationCount *int       `json:"influentialCitationCount"`
	Authors                  []s2Author `json:"authors"`
	Venue                    string     `json:"venue"`
}

type s2Author struct {
	AuthorID *string `json:"authorId"`
	Name     string  `json:"name"`
}

func (c *PapersCollector) Collect(ctx context.Context, keyword string, terms []string) (models.SourceResult, error) {
	now := c.now()
	year := now.Year()
	q := query.Builder{}.Quoted(keyword, terms)

	var errs []string
	fetch := func(from, to int) *s2Response {
		resp, err := c.fetchWindow(ctx, q, from, to)
		if err != nil {
			errs = append(errs, describeQuery(err))
			return nil
		}
		return resp
	}

	// [from, to) year windows
	data2y := fetch(year-2, year)
	data5y := fetch(year-5, year-2)

	if data2y == nil && data5y == nil {
		return papersError(keyword, now, "All API requests failed", errs), nil
	}

	res := &models.PapersResult{
		CollectorMeta: models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: nonNil(errs)},
		TopPapers:     []models.Paper{},
	}

	if data2y != nil {
		res.Publications2y = data2y.Total
		res.AvgCitations2y, res.AvgInfluential2y = citationAverages(data2y.Data)
		res.TopPapers = topPapers(data2y.Data)
	}
	if data5y != nil {
		res.Publications5y = data5y.Total
		res.AvgCitations5y, res.AvgInfluential5y = citationAverages(data5y.Data)
		res.AuthorDiversity, res.VenueDiversity = breadth(data5y.Data)
	}
	res.PublicationsTotal = res.Publications2y + res.Publications5y

	recentRate := float64(res.Publications2y) / 2
	historicalRate := float64(res.Publications5y) / 5

	res.CitationVelocity = analysis.Round(analysis.Velocity(res.AvgCitations2y, res.AvgCitations5y), 3)
	res.ResearchMaturity = researchMaturity(res.PublicationsTotal, res.AvgCitations2y)
	res.ResearchMomentum = analysis.RateMomentum(recentRate, historicalRate, 1.5, 0.5)
	res.ResearchTrend = analysis.RateTrend(recentRate, historicalRate, 0.3)
	res.ResearchBreadth = researchBreadth(res.AuthorDiversity, res.VenueDiversity, res.PublicationsTotal)

	res.AvgCitations2y = analysis.Round(res.AvgCitations2y, 2)
	res.AvgCitations5y = analysis.Round(res.AvgCitations5y, 2)
	res.AvgInfluential2y = analysis.Round(res.AvgInfluential2y, 2)
	res.AvgInfluential5y = analysis.Round(res.AvgInfluential5y, 2)
	return res, nil
}

func (c *PapersCollector) fetchWindow(ctx context.Context, q string, from, to int) (*s2Response, error) {
	params := url.Values{
		"query":  {q},
		"year":   {strconv.Itoa(from) + "-" + strconv.Itoa(to-1)},
		"fields": {papersFields},
		"limit":  {strconv.Itoa(papersLimit)},
	}
	var header http.Header
	if c.apiKey != "" {
		header = http.Header{"x-api-key": {c.apiKey}}
	}

	var resp s2Response
	if err := c.http.getJSON(ctx, c.baseURL+"/paper/search/bulk", params, header, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func citationAverages(papers []s2Paper) (citations, influential float64) {
	if len(papers) == 0 {
		return 0, 0
	}
	var c, inf int
	for _, p := range papers {
		c += deref(p.CitationCount)
		inf += deref(p.InfluentialCitationCount)
	}
	n := float64(len(papers))
	return float64(c) / n, float64(inf) / n
}

func topPapers(papers []s2Paper) []models.Paper {
	sorted := slices.Clone(papers)
	slices.SortStableFunc(sorted, func(a, b s2Paper) int {
		return cmp.Compare(deref(b.CitationCount), deref(a.CitationCount))
	})

	out := make([]models.Paper, 0, papersTopCount)
	for _, p := range sorted {
		if len(out) == papersTopCount {
			break
		}
		out = append(out, models.Paper{
			Title:                p.Title,
			Year:                 deref(p.Year),
			Citations:            deref(p.CitationCount),
			InfluentialCitations: deref(p.InfluentialCitationCount),
			Authors:              len(p.Authors),
			Venue:                p.Venue,
		})
	}
	return out
}

// breadth counts distinct author ids and venues.
func breadth(papers []s2Paper) (authors, venues int) {
	a := make(map[string]struct{})
	v := make(map[string]struct{})
	for _, p := range papers {
		for _, au := range p.Authors {
			if au.AuthorID != nil && *au.AuthorID != "" {
				a[*au.AuthorID] = struct{}{}
			}
		}
		if p.Venue != "" {
			v[p.Venue] = struct{}{}
		}
	}
	return len(a), len(v)
}

func researchMaturity(total int, avgCitations2y float64) string {
	switch {
	case total > 50 || avgCitations2y > 20:
		return "mature"
	case total < 10 && avgCitations2y < 5:
		return "emerging"
	default:
		return "developing"
	}
}

func researchBreadth(authors, venues, total int) string {
	if total == 0 {
		return "narrow"
	}
	authorRatio := float64(authors) / float64(total)
	venueRatio := float64(venues) / float64(total)
	switch {
	case authorRatio > 2.0 && venueRatio > 0.3:
		return "broad"
	case authorRatio < 1.5 || venueRatio < 0.1:
		return "narrow"
	default:
		return "moderate"
	}
}

func papersError(keyword string, now time.Time, msg string, errs []string) *models.PapersResult {
	return &models.PapersResult{
		CollectorMeta:    models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: errorList(errs, msg)},
		ResearchMaturity: analysis.Unknown,
		ResearchMomentum: analysis.Unknown,
		ResearchTrend:    analysis.Unknown,
		ResearchBreadth:  analysis.Unknown,
		TopPapers:        []models.Paper{},
	}
}

var _ Collector = (*PapersCollector)(nil)
