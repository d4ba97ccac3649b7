package models

import "time"

// SourceResult is the normalized output of one collector invocation.
// Implementations are immutable once returned.
type SourceResult interface {
	Source() Source
	CollectionErrors() []string
}

// CollectorMeta is embedded in every source result.
type CollectorMeta struct {
	Keyword     string    `json:"keyword"`
	CollectedAt time.Time `json:"collected_at"`
	Errors      []string  `json:"errors"`
}

// CollectionErrors returns the non-fatal errors recorded during collection.
func (m CollectorMeta) CollectionErrors() []string { return m.Errors }

// Story is a Hacker News story sample.
type Story struct {
	Title    string `json:"title"`
	Points   int    `json:"points"`
	Comments int    `json:"comments"`
	AgeDays  int    `json:"age_days"`
}

// SocialResult holds Hacker News discussion metrics.
type SocialResult struct {
	CollectorMeta
	Mentions30d    int     `json:"mentions_30d"`
	Mentions6m     int     `json:"mentions_6m"`
	Mentions1y     int     `json:"mentions_1y"`
	MentionsTotal  int     `json:"mentions_total"`
	AvgPoints30d   float64 `json:"avg_points_30d"`
	AvgComments30d float64 `json:"avg_comments_30d"`
	AvgPoints6m    float64 `json:"avg_points_6m"`
	AvgComments6m  float64 `json:"avg_comments_6m"`
	Sentiment      float64 `json:"sentiment"`
	Recency        string  `json:"recency"`
	GrowthTrend    string  `json:"growth_trend"`
	Momentum       string  `json:"momentum"`
	TopStories     []Story `json:"top_stories"`
}

func (*SocialResult) Source() Source { return SourceSocial }

// Paper is a Semantic Scholar paper sample.
type Paper struct {
	Title                string `json:"title"`
	Year                 int    `json:"year"`
	Citations            int    `json:"citations"`
	InfluentialCitations int    `json:"influential_citations"`
	Authors              int    `json:"authors"`
	Venue                string `json:"venue"`
}

// PapersResult holds academic publication metrics.
type PapersResult struct {
	CollectorMeta
	Publications2y    int     `json:"publications_2y"`
	Publications5y    int     `json:"publications_5y"`
	PublicationsTotal int     `json:"publications_total"`
	AvgCitations2y    float64 `json:"avg_citations_2y"`
	AvgCitations5y    float64 `json:"avg_citations_5y"`
	AvgInfluential2y  float64 `json:"avg_influential_citations_2y"`
	AvgInfluential5y  float64 `json:"avg_influential_citations_5y"`
	CitationVelocity  float64 `json:"citation_velocity"`
	AuthorDiversity   int     `json:"author_diversity"`
	VenueDiversity    int     `json:"venue_diversity"`
	ResearchMaturity  string  `json:"research_maturity"`
	ResearchMomentum  string  `json:"research_momentum"`
	ResearchTrend     string  `json:"research_trend"`
	ResearchBreadth   string  `json:"research_breadth"`
	TopPapers         []Paper `json:"top_papers"`
}

func (*PapersResult) Source() Source { return SourcePapers }

// Patent is a PatentsView patent sample.
type Patent struct {
	PatentNumber string `json:"patent_number"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Assignee     string `json:"assignee"`
	Country      string `json:"country"`
	Citations    int    `json:"citations"`
}

// AssigneeCount is one organisation's share of filings.
type AssigneeCount struct {
	Name        string `json:"name"`
	PatentCount int    `json:"patent_count"`
}

// PatentsResult holds patent filing metrics.
type PatentsResult struct {
	CollectorMeta
	Patents2y             int             `json:"patents_2y"`
	Patents5y             int             `json:"patents_5y"`
	Patents10y            int             `json:"patents_10y"`
	PatentsTotal          int             `json:"patents_total"`
	UniqueAssignees       int             `json:"unique_assignees"`
	TopAssignees          []AssigneeCount `json:"top_assignees"`
	Countries             map[string]int  `json:"countries"`
	GeographicDiversity   int             `json:"geographic_diversity"`
	AvgCitations2y        float64         `json:"avg_citations_2y"`
	AvgCitations5y        float64         `json:"avg_citations_5y"`
	FilingVelocity        float64         `json:"filing_velocity"`
	AssigneeConcentration string          `json:"assignee_concentration"`
	GeographicReach       string          `json:"geographic_reach"`
	PatentMaturity        string          `json:"patent_maturity"`
	PatentMomentum        string          `json:"patent_momentum"`
	PatentTrend           string          `json:"patent_trend"`
	TopPatents            []Patent        `json:"top_patents"`
}

func (*PatentsResult) Source() Source { return SourcePatents }

// Article is a GDELT news article sample.
type Article struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Domain  string `json:"domain"`
	Country string `json:"country"`
	Date    string `json:"date"`
}

// DomainCount is one outlet's article count.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// ToneDistribution buckets articles by tone.
type ToneDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// NewsResult holds news coverage metrics.
type NewsResult struct {
	CollectorMeta
	Articles30d         int              `json:"articles_30d"`
	Articles3m          int              `json:"articles_3m"`
	Articles1y          int              `json:"articles_1y"`
	ArticlesTotal       int              `json:"articles_total"`
	SourceCountries     map[string]int   `json:"source_countries"`
	GeographicDiversity int              `json:"geographic_diversity"`
	UniqueDomains       int              `json:"unique_domains"`
	TopDomains          []DomainCount    `json:"top_domains"`
	AvgTone             float64          `json:"avg_tone"`
	ToneDistribution    ToneDistribution `json:"tone_distribution"`
	VolumeIntensity30d  float64          `json:"volume_intensity_30d"`
	VolumeIntensity3m   float64          `json:"volume_intensity_3m"`
	VolumeIntensity1y   float64          `json:"volume_intensity_1y"`
	MediaAttention      string           `json:"media_attention"`
	CoverageTrend       string           `json:"coverage_trend"`
	SentimentTrend      string           `json:"sentiment_trend"`
	MainstreamAdoption  string           `json:"mainstream_adoption"`
	TopArticles         []Article        `json:"top_articles"`
}

func (*NewsResult) Source() Source { return SourceNews }

// Company is a publicly traded company sample.
type Company struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	MarketCap     float64 `json:"market_cap"`
	PriceChange1m float64 `json:"price_change_1m"`
}

// FinanceResult holds aggregate market metrics for related companies.
type FinanceResult struct {
	CollectorMeta
	CompaniesFound     int       `json:"companies_found"`
	Tickers            []string  `json:"tickers"`
	TotalMarketCap     float64   `json:"total_market_cap"`
	AvgMarketCap       float64   `json:"avg_market_cap"`
	AvgPriceChange1m   float64   `json:"avg_price_change_1m"`
	AvgPriceChange6m   float64   `json:"avg_price_change_6m"`
	AvgPriceChange2y   float64   `json:"avg_price_change_2y"`
	AvgVolume1m        float64   `json:"avg_volume_1m"`
	AvgVolume6m        float64   `json:"avg_volume_6m"`
	VolumeTrend        string    `json:"volume_trend"`
	AvgVolatility1m    float64   `json:"avg_volatility_1m"`
	AvgVolatility6m    float64   `json:"avg_volatility_6m"`
	MarketMaturity     string    `json:"market_maturity"`
	InvestorSentiment  string    `json:"investor_sentiment"`
	InvestmentMomentum string    `json:"investment_momentum"`
	TopCompanies       []Company `json:"top_companies"`
}

func (*FinanceResult) Source() Source { return SourceFinance }

// CollectorData maps each source to its result. A nil field means the
// source failed entirely or was never collected.
type CollectorData struct {
	Social  *SocialResult  `json:"social"`
	Papers  *PapersResult  `json:"papers"`
	Patents *PatentsResult `json:"patents"`
	News    *NewsResult    `json:"news"`
	Finance *FinanceResult `json:"finance"`
}

// Get returns the result for s, or a nil interface when absent.
func (d CollectorData) Get(s Source) SourceResult {
	switch s {
	case SourceSocial:
		if d.Social != nil {
			return d.Social
		}
	case SourcePapers:
		if d.Papers != nil {
			return d.Papers
		}
	case SourcePatents:
		if d.Patents != nil {
			return d.Patents
		}
	case SourceNews:
		if d.News != nil {
			return d.News
		}
	case SourceFinance:
		if d.Finance != nil {
			return d.Finance
		}
	}
	return nil
}

// Set stores r under s. A nil r, or one whose concrete type does not
// belong to s, clears the entry.
func (d *CollectorData) Set(s Source, r SourceResult) {
	switch s {
	case SourceSocial:
		d.Social, _ = r.(*SocialResult)
	case SourcePapers:
		d.Papers, _ = r.(*PapersResult)
	case SourcePatents:
		d.Patents, _ = r.(*PatentsResult)
	case SourceNews:
		d.News, _ = r.(*NewsResult)
	case SourceFinance:
		d.Finance, _ = r.(*FinanceResult)
	}
}

// Succeeded counts the sources with a non-nil result.
func (d CollectorData) Succeeded() int {
	n := 0
	for _, s := range Sources {
		if d.Get(s) != nil {
			n++
		}
	}
	return n
}
