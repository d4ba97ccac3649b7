package collector

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/analysis"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"github.com/kiranshivaraju/hypecycle/pkg/query"
)

const (
	gdeltTimeLayout = "20060102150405"
	gdeltMaxRecords = 250
	newsTopCount    = 5
	unknownCountry  = "Unknown"
	neutralToneBin  = 5
	positiveToneBin = 7
	negativeToneBin = 3
)

// NewsCollector measures press coverage through the GDELT DOC 2.0 API.
// Each window issues three calls: the article list, the volume timeline
// and the tone histogram.
type NewsCollector struct {
	baseURL string
	http    *httpClient
	now     func() time.Time
}

func NewNewsCollector(baseURL string, timeout time.Duration) *NewsCollector {
	return &NewsCollector{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout),
		now:     time.Now,
	}
}

type gdeltArtList struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	SeenDate      string `json:"seendate"`
	Domain        string `json:"domain"`
	SourceCountry string `json:"sourcecountry"`
}

type gdeltTimeline struct {
	Timeline []struct {
		Data []struct {
			Value float64 `json:"value"`
		} `json:"data"`
	} `json:"timeline"`
}

type gdeltToneChart struct {
	ToneChart []struct {
		Bin   *int `json:"bin"`
		Count int  `json:"count"`
	} `json:"tonechart"`
}

// newsWindow is one period's combined reply.
type newsWindow struct {
	articles []gdeltArticle
	volume   float64
	tone     gdeltToneChart
}

func (c *NewsCollector) Collect(ctx context.Context, keyword string, terms []string) (models.SourceResult, error) {
	now := c.now()
	q := query.Builder{}.Grouped(keyword, terms)

	var errs []string
	fetch := func(from, to time.Time) *newsWindow {
		w, err := c.fetchWindow(ctx, q, from, to)
		if err != nil {
			errs = append(errs, describe(err))
			return nil
		}
		return w
	}

	start3m := now.Add(-90 * day)
	start30d := now.Add(-30 * day)
	data30d := fetch(start30d, now)
	data3m := fetch(start3m, start30d)
	data1y := fetch(now.Add(-365*day), start3m)

	if data30d == nil && data3m == nil && data1y == nil {
		return newsError(keyword, now, "All API requests failed", errs), nil
	}

	res := &models.NewsResult{
		CollectorMeta:   models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: nonNil(errs)},
		SourceCountries: map[string]int{},
		TopArticles:     []models.Article{},
	}

	domains := make(map[string]int)
	for _, w := range []*newsWindow{data30d, data3m, data1y} {
		if w == nil {
			continue
		}
		for _, a := range w.articles {
			res.SourceCountries[countryOf(a)]++
			if a.Domain != "" {
				domains[a.Domain]++
			}
		}
	}
	res.GeographicDiversity = len(res.SourceCountries)
	res.UniqueDomains = len(domains)
	res.TopDomains = make([]models.DomainCount, 0, newsTopCount)
	for _, d := range analysis.TopCounts(domains, newsTopCount) {
		res.TopDomains = append(res.TopDomains, models.DomainCount{Domain: d.Key, Count: d.N})
	}

	if data30d != nil {
		res.Articles30d = len(data30d.articles)
		res.VolumeIntensity30d = data30d.volume
		res.AvgTone, res.ToneDistribution = toneMetrics(data30d.tone)
		for i, a := range data30d.articles {
			if i == newsTopCount {
				break
			}
			res.TopArticles = append(res.TopArticles, models.Article{
				URL:     a.URL,
				Title:   a.Title,
				Domain:  a.Domain,
				Country: countryOf(a),
				Date:    a.SeenDate,
			})
		}
	}
	if data3m != nil {
		res.Articles3m = len(data3m.articles)
		res.VolumeIntensity3m = data3m.volume
	}
	if data1y != nil {
		res.Articles1y = len(data1y.articles)
		res.VolumeIntensity1y = data1y.volume
	}
	res.ArticlesTotal = res.Articles30d + res.Articles3m + res.Articles1y

	res.MediaAttention = mediaAttention(res.ArticlesTotal)
	res.CoverageTrend = coverageTrend(res.VolumeIntensity30d, res.VolumeIntensity3m, res.VolumeIntensity1y)
	res.SentimentTrend = sentimentTrend(res.AvgTone)
	res.MainstreamAdoption = mainstreamAdoption(res.UniqueDomains, res.ArticlesTotal)

	res.AvgTone = analysis.Round(res.AvgTone, 3)
	res.VolumeIntensity30d = analysis.Round(res.VolumeIntensity30d, 3)
	res.VolumeIntensity3m = analysis.Round(res.VolumeIntensity3m, 3)
	res.VolumeIntensity1y = analysis.Round(res.VolumeIntensity1y, 3)
	return res, nil
}

func (c *NewsCollector) fetchWindow(ctx context.Context, q string, from, to time.Time) (*newsWindow, error) {
	endpoint := c.baseURL + "/doc/doc"
	params := func(mode string) url.Values {
		v := url.Values{
			"query":         {q},
			"mode":          {mode},
			"format":        {"json"},
			"startdatetime": {from.UTC().Format(gdeltTimeLayout)},
			"enddatetime":   {to.UTC().Format(gdeltTimeLayout)},
		}
		if mode == "ArtList" {
			v.Set("maxrecords", strconv.Itoa(gdeltMaxRecords))
		}
		return v
	}

	var list gdeltArtList
	if err := c.http.getJSON(ctx, endpoint, params("ArtList"), nil, &list); err != nil {
		return nil, err
	}
	var timeline gdeltTimeline
	if err := c.http.getJSON(ctx, endpoint, params("timelinevol"), nil, &timeline); err != nil {
		return nil, err
	}
	var tone gdeltToneChart
	if err := c.http.getJSON(ctx, endpoint, params("ToneChart"), nil, &tone); err != nil {
		return nil, err
	}

	w := &newsWindow{articles: list.Articles, tone: tone}
	if len(timeline.Timeline) > 0 {
		points := timeline.Timeline[0].Data
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.Value
		}
		w.volume = analysis.Mean(values)
	}
	return w, nil
}

func countryOf(a gdeltArticle) string {
	if a.SourceCountry == "" {
		return unknownCountry
	}
	return a.SourceCountry
}

// toneMetrics maps the 0-10 tone histogram onto [-1, 1] and buckets it.
func toneMetrics(chart gdeltToneChart) (float64, models.ToneDistribution) {
	var dist models.ToneDistribution
	var total, weighted int
	for _, b := range chart.ToneChart {
		bin := neutralToneBin
		if b.Bin != nil {
			bin = *b.Bin
		}
		total += b.Count
		weighted += bin * b.Count
		switch {
		case bin >= positiveToneBin:
			dist.Positive += b.Count
		case bin <= negativeToneBin:
			dist.Negative += b.Count
		default:
			dist.Neutral += b.Count
		}
	}
	if total == 0 {
		return 0, dist
	}
	avgBin := float64(weighted) / float64(total)
	return (avgBin - neutralToneBin) / neutralToneBin, dist
}

func mediaAttention(total int) string {
	switch {
	case total >= 500:
		return "high"
	case total >= 100:
		return "medium"
	default:
		return "low"
	}
}

func coverageTrend(v30d, v3m, v1y float64) string {
	if v3m == 0 && v1y == 0 {
		if v30d > 0 {
			return analysis.Stable
		}
		return analysis.Unknown
	}
	historical := (v3m + v1y) / 2
	switch {
	case v30d > historical*1.3:
		return analysis.Increasing
	case v30d < historical*0.7:
		return analysis.Decreasing
	default:
		return analysis.Stable
	}
}

func sentimentTrend(avgTone float64) string {
	switch {
	case avgTone > 0.2:
		return "positive"
	case avgTone < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}

func mainstreamAdoption(uniqueDomains, total int) string {
	if total == 0 {
		return "niche"
	}
	ratio := float64(uniqueDomains) / float64(total)
	switch {
	case uniqueDomains >= 50 && ratio > 0.3:
		return "mainstream"
	case uniqueDomains >= 20:
		return "emerging"
	default:
		return "niche"
	}
}

func newsError(keyword string, now time.Time, msg string, errs []string) *models.NewsResult {
	return &models.NewsResult{
		CollectorMeta:      models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: errorList(errs, msg)},
		SourceCountries:    map[string]int{},
		TopDomains:         []models.DomainCount{},
		MediaAttention:     analysis.Unknown,
		CoverageTrend:      analysis.Unknown,
		SentimentTrend:     "neutral",
		MainstreamAdoption: "niche",
		TopArticles:        []models.Article{},
	}
}

var _ Collector = (*NewsCollector)(nil)
