package collector

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/analysis"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"github.com/kiranshivaraju/hypecycle/pkg/query"
)

const (
	day              = 24 * time.Hour
	socialHitsPerWin = 20
	socialTopStories = 5
)

// SocialCollector measures Hacker News discussion through the Algolia
// search API.
type SocialCollector struct {
	baseURL string
	http    *httpClient
	now     func() time.Time
}

func NewSocialCollector(baseURL string, timeout time.Duration) *SocialCollector {
	return &SocialCollector{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout),
		now:     time.Now,
	}
}

type algoliaResponse struct {
	NbHits int          `json:"nbHits"`
	Hits   []algoliaHit `json:"hits"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	Points      *int   `json:"points"`
	NumComments *int   `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
}

func (c *SocialCollector) Collect(ctx context.Context, keyword string, terms []string) (models.SourceResult, error) {
	now := c.now()
	phrases := query.Builder{}.Words(keyword, terms)
	if len(phrases) == 0 {
		phrases = []string{keyword}
	}

	// Algolia has no phrase OR, so each phrase is searched on its own and the
	// window is the union. A window fails only when every phrase fails.
	var errs []string
	fetch := func(since time.Time, until *time.Time) *algoliaResponse {
		var merged *algoliaResponse
		seen := make(map[string]bool)
		for _, p := range phrases {
			resp, err := c.fetchWindow(ctx, p, since, until)
			if err != nil {
				errs = append(errs, describe(err))
				continue
			}
			if merged == nil {
				merged = &algoliaResponse{Hits: []algoliaHit{}}
			}
			merged.NbHits += resp.NbHits
			for _, h := range resp.Hits {
				if h.ObjectID != "" {
					if seen[h.ObjectID] {
						continue
					}
					seen[h.ObjectID] = true
				}
				merged.Hits = append(merged.Hits, h)
			}
		}
		return merged
	}

	end30 := now.Add(-30 * day)
	end6m := now.Add(-180 * day)
	data30d := fetch(end30, nil)
	data6m := fetch(end6m, &end30)
	data1y := fetch(now.Add(-365*day), &end6m)

	if data30d == nil && data6m == nil && data1y == nil {
		return socialError(keyword, now, "All API requests failed", errs), nil
	}

	res := &models.SocialResult{
		CollectorMeta: models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: nonNil(errs)},
		TopStories:    []models.Story{},
	}
	if data30d != nil {
		res.Mentions30d = data30d.NbHits
		res.AvgPoints30d, res.AvgComments30d = engagement(data30d.Hits)
		for i, h := range data30d.Hits {
			if i == socialTopStories {
				break
			}
			res.TopStories = append(res.TopStories, models.Story{
				Title:    h.Title,
				Points:   deref(h.Points),
				Comments: deref(h.NumComments),
				AgeDays:  int((now.Unix() - h.CreatedAtI) / 86400),
			})
		}
	}
	if data6m != nil {
		res.Mentions6m = data6m.NbHits
		res.AvgPoints6m, res.AvgComments6m = engagement(data6m.Hits)
	}
	if data1y != nil {
		res.Mentions1y = data1y.NbHits
	}
	res.MentionsTotal = res.Mentions30d + res.Mentions6m + res.Mentions1y

	res.Sentiment = analysis.Round(math.Tanh((res.AvgPoints30d-50)/100), 3)
	res.Recency = recency(res.Mentions30d, res.MentionsTotal)
	res.GrowthTrend = socialGrowth(res.Mentions30d, res.Mentions6m, res.Mentions1y)
	res.Momentum = socialMomentum(res.Mentions30d, res.Mentions6m, res.Mentions1y)
	return res, nil
}

func (c *SocialCollector) fetchWindow(ctx context.Context, phrase string, since time.Time, until *time.Time) (*algoliaResponse, error) {
	filter := "created_at_i>" + strconv.FormatInt(since.Unix(), 10)
	if until != nil {
		filter += ",created_at_i<" + strconv.FormatInt(until.Unix(), 10)
	}

	params := url.Values{
		"query":          {phrase},
		"tags":           {"story"},
		"numericFilters": {filter},
		"hitsPerPage":    {strconv.Itoa(socialHitsPerWin)},
	}

	var resp algoliaResponse
	if err := c.http.getJSON(ctx, c.baseURL+"/search", params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// engagement averages points and comments over the sampled hits. Missing
// counts are treated as zero.
func engagement(hits []algoliaHit) (points, comments float64) {
	if len(hits) == 0 {
		return 0, 0
	}
	var p, c int
	for _, h := range hits {
		p += deref(h.Points)
		c += deref(h.NumComments)
	}
	n := float64(len(hits))
	return analysis.Round(float64(p)/n, 2), analysis.Round(float64(c)/n, 2)
}

func recency(recent, total int) string {
	if total == 0 {
		return "low"
	}
	ratio := float64(recent) / float64(total)
	switch {
	case ratio > 0.5:
		return "high"
	case ratio > 0.2:
		return "medium"
	default:
		return "low"
	}
}

// socialGrowth compares the last 30 days with the monthly average of the
// eleven months before it.
func socialGrowth(m30d, m6m, m1y int) string {
	avg := float64(m6m+m1y) / 11
	switch {
	case float64(m30d) > avg*1.3:
		return analysis.Increasing
	case float64(m30d) < avg*0.7:
		return analysis.Decreasing
	default:
		return analysis.Stable
	}
}

// socialMomentum compares the latest monthly growth rate with the rate of
// the half-year before it.
func socialMomentum(m30d, m6m, m1y int) string {
	if m30d == 0 && m6m == 0 {
		return analysis.Steady
	}
	mid := float64(m6m) / 5
	old := float64(m1y) / 6
	recentGrowth := analysis.Velocity(float64(m30d), mid)
	midGrowth := analysis.Velocity(mid, old)

	switch {
	case recentGrowth > midGrowth*1.2:
		return analysis.Accelerating
	case recentGrowth < midGrowth*0.8:
		return analysis.Decelerating
	default:
		return analysis.Steady
	}
}

func socialError(keyword string, now time.Time, msg string, errs []string) *models.SocialResult {
	return &models.SocialResult{
		CollectorMeta: models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: errorList(errs, msg)},
		Recency:       analysis.Unknown,
		GrowthTrend:   analysis.Unknown,
		Momentum:      analysis.Unknown,
		TopStories:    []models.Story{},
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

var _ Collector = (*SocialCollector)(nil)
