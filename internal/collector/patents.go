package collector

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	patentsPageSize = 100
	patentsTopCount = 5
)

// PatentsCollector measures filing activity through the PatentsView
// search API. An API key is required.
type PatentsCollector struct {
	baseURL string
	apiKey  string
	http    *httpClient
	now     func() time.Time
}

func NewPatentsCollector(baseURL, apiKey string, timeout time.Duration) *PatentsCollector {
	return &PatentsCollector{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    newHTTPClient(timeout),
		now:     time.Now,
	}
}

type patentsResponse struct {
	Error     bool       `json:"error"`
	Count     int        `json:"count"`
	TotalHits int        `json:"total_hits"`
	Patents   []pvPatent `json:"patents"`
}

type pvPatent struct {
	PatentID  string       `json:"patent_id"`
	Title     string       `json:"patent_title"`
	Date      string       `json:"patent_date"`
	CitedBy   citationNum  `json:"patent_num_times_cited_by_us_patents"`
	Assignees []pvAssignee `json:"assignees"`
}

type pvAssignee struct {
	Organization *string `json:"assignee_organization"`
	Country      *string `json:"assignee_country"`
}

// citationNum accepts a number, a numeric string or null (read as 0).
// Invalid is set when the value cannot be read as an integer.
type citationNum struct {
	Value   int
	Invalid bool
}

func (n *citationNum) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*n = citationNum{}
	case float64:
		*n = citationNum{Value: int(v)}
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		*n = citationNum{Value: i, Invalid: err != nil}
	default:
		*n = citationNum{Invalid: true}
	}
	return nil
}

// errAPIErrorFlag marks a 200 reply whose body sets "error": true.
var errAPIErrorFlag = errors.New("api returned error flag")

func (c *PatentsCollector) Collect(ctx context.Context, keyword string, terms []string) (models.SourceResult, error) {
	now := c.now()
	year := now.Year()

	if c.apiKey == "" {
		return patentsError(keyword, now, "All API requests failed", []string{"Missing PatentsView API key"}), nil
	}

	// inclusive year ranges, non-overlapping, ending last year
	windows := [3][2]int{
		{year - 2, year - 1},
		{year - 7, year - 3},
		{year - 12, year - 8},
	}

	var errs []string
	var data [3]*patentsResponse
	for i, w := range windows {
		q, err := query.Builder{}.PatentsView(query.PatentsViewParams{
			Keyword: keyword, Terms: terms, FromYear: w[0], ToYear: w[1],
		})
		if err != nil {
			return nil, err
		}
		resp, err := c.fetchWindow(ctx, q)
		if err != nil {
			errs = append(errs, describePatents(err))
			continue
		}
		data[i] = resp
	}

	if data[0] == nil && data[1] == nil && data[2] == nil {
		return patentsError(keyword, now, "All API requests failed", errs), nil
	}

	res := &models.PatentsResult{
		CollectorMeta: models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: nonNil(errs)},
		Countries:     map[string]int{},
	}

	var all []pvPatent
	for i, d := range data {
		if d == nil {
			continue
		}
		switch i {
		case 0:
			res.Patents2y = d.TotalHits
		case 1:
			res.Patents5y = d.TotalHits
		case 2:
			res.Patents10y = d.TotalHits
		}
		all = append(all, d.Patents...)
	}
	res.PatentsTotal = res.Patents2y + res.Patents5y + res.Patents10y

	assignees := make(map[string]int)
	for _, p := range all {
		for _, a := range p.Assignees {
			org := "Individual"
			if a.Organization != nil {
				org = *a.Organization
			}
			if org != "" {
				assignees[org]++
			}
			if a.Country != nil && *a.Country != "" && *a.Country != "Unknown" {
				res.Countries[*a.Country]++
			}
		}
	}
	res.UniqueAssignees = len(assignees)
	res.GeographicDiversity = len(res.Countries)
	res.TopAssignees = make([]models.AssigneeCount, 0, patentsTopCount)
	for _, c := range analysis.TopCounts(assignees, patentsTopCount) {
		res.TopAssignees = append(res.TopAssignees, models.AssigneeCount{Name: c.Key, PatentCount: c.N})
	}

	var avg2y, avg5y float64
	if data[0] != nil {
		avg2y = avgCitations(data[0].Patents)
	}
	if data[1] != nil {
		avg5y = avgCitations(data[1].Patents)
	}
	res.AvgCitations2y = analysis.Round(avg2y, 2)
	res.AvgCitations5y = analysis.Round(avg5y, 2)
	res.TopPatents = topPatents(all)

	recentRate := float64(res.Patents2y) / 2
	historicalRate := float64(res.Patents5y) / 5
	res.FilingVelocity = analysis.Round(analysis.Velocity(recentRate, historicalRate), 3)
	res.AssigneeConcentration = assigneeConcentration(assignees, res.PatentsTotal)
	res.GeographicReach = geographicReach(res.Countries)
	res.PatentMaturity = patentMaturity(res.PatentsTotal, avg2y)
	res.PatentMomentum = analysis.RateMomentum(recentRate, historicalRate, 1.5, 0.5)
	res.PatentTrend = analysis.RateTrend(recentRate, historicalRate, 0.3)
	return res, nil
}

func (c *PatentsCollector) fetchWindow(ctx context.Context, q string) (*patentsResponse, error) {
	fields, err := json.Marshal(query.PatentsViewFields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	params := url.Values{
		"q": {q},
		"f": {string(fields)},
		"o": {fmt.Sprintf(`{"size":%d}`, patentsPageSize)},
	}
	header := http.Header{"X-Api-Key": {c.apiKey}}

	var resp patentsResponse
	if err := c.http.getJSON(ctx, c.baseURL+"/patent/", params, header, &resp); err != nil {
		return nil, err
	}
	if resp.Error {
		return nil, errAPIErrorFlag
	}
	return &resp, nil
}

func describePatents(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, errAPIErrorFlag):
		return "API returned error flag"
	case errors.As(err, &se) && se.Kind == ErrRateLimited:
		return fmt.Sprintf("Rate limited (retry after %ss)", se.RetryAfter)
	case errors.As(err, &se) && se.Status == http.StatusUnauthorized:
		return "Authentication failed - invalid API key"
	}
	return describeQuery(err)
}

// avgCitations averages over patents whose citation count is readable.
func avgCitations(patents []pvPatent) float64 {
	var total, n int
	for _, p := range patents {
		if !p.CitedBy.Invalid {
			total += p.CitedBy.Value
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

func topPatents(all []pvPatent) []models.Patent {
	out := make([]models.Patent, 0, len(all))
	for _, p := range all {
		assignee, country := "Individual", "Unknown"
		if len(p.Assignees) > 0 {
			if o := p.Assignees[0].Organization; o != nil {
				assignee = *o
			}
			if c := p.Assignees[0].Country; c != nil {
				country = *c
			}
		}
		id := p.PatentID
		if id == "" {
			id = "unknown"
		}
		out = append(out, models.Patent{
			PatentNumber: id,
			Title:        p.Title,
			Date:         p.Date,
			Assignee:     assignee,
			Country:      country,
			Citations:    p.CitedBy.Value,
		})
	}
	slices.SortStableFunc(out, func(a, b models.Patent) int { return cmp.Compare(b.Citations, a.Citations) })
	if len(out) > patentsTopCount {
		out = out[:patentsTopCount]
	}
	return out
}

// assigneeConcentration is the share of filings held by the top three
// assignees.
func assigneeConcentration(counts map[string]int, total int) string {
	if total == 0 || len(counts) == 0 {
		return analysis.Unknown
	}
	var top3 int
	for _, c := range analysis.TopCounts(counts, 3) {
		top3 += c.N
	}
	share := float64(top3) / float64(total)
	switch {
	case share > 0.5:
		return "concentrated"
	case share > 0.25:
		return "moderate"
	default:
		return "diverse"
	}
}

// geographicReach counts countries holding more than 5% of assignments.
func geographicReach(countries map[string]int) string {
	var total int
	for _, n := range countries {
		total += n
	}
	if total == 0 {
		return analysis.Unknown
	}
	var significant int
	for _, n := range countries {
		if float64(n)/float64(total) > 0.05 {
			significant++
		}
	}
	switch {
	case significant == 1:
		return "domestic"
	case significant <= 3:
		return "regional"
	default:
		return "global"
	}
}

func patentMaturity(total int, avgCitations2y float64) string {
	switch {
	case total > 500 || avgCitations2y > 15:
		return "mature"
	case total < 50 && avgCitations2y < 5:
		return "emerging"
	default:
		return "developing"
	}
}

func patentsError(keyword string, now time.Time, msg string, errs []string) *models.PatentsResult {
	return &models.PatentsResult{
		CollectorMeta:         models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: errorList(errs, msg)},
		TopAssignees:          []models.AssigneeCount{},
		Countries:             map[string]int{},
		AssigneeConcentration: analysis.Unknown,
		GeographicReach:       analysis.Unknown,
		PatentMaturity:        analysis.Unknown,
		PatentMomentum:        analysis.Unknown,
		PatentTrend:           analysis.Unknown,
		TopPatents:            []models.Patent{},
	}
}

var _ Collector = (*PatentsCollector)(nil)
