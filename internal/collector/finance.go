package collector

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/hypecycle/internal/ai"
	"github.com/kiranshivaraju/hypecycle/internal/analysis"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

const (
	financeWorkers    = 5
	financeTopCount   = 5
	tickerMaxTokens   = 256
	window1m          = 30 * day
	window6m          = 182 * day
	volumeTrendBand   = 0.15
	sentimentBand     = 0.05
	matureMarketCap   = 100e9
	emergingMarketCap = 10e9
)

var (
	tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

	// fallbackTickers are broad technology ETFs used when discovery fails.
	fallbackTickers = []string{"QQQ", "XLK"}
)

const tickerPrompt = `List stock ticker symbols (5-10) of publicly traded companies most actively investing in or developing "%s" technology.

Requirements:
- Only valid US stock market ticker symbols
- Companies where this technology is a significant part of their business
- Include both large cap and emerging players if available

Return ONLY a JSON array of ticker symbols, for example: ["IBM", "GOOGL", "NVDA"]
No explanations, just the JSON array.`

// FinanceCollector measures market activity around companies related to a
// keyword. Related tickers are discovered by asking the LLM; price history
// comes from the Yahoo Finance chart API.
type FinanceCollector struct {
	baseURL     string
	llm         models.LLMProvider
	temperature float64
	timeout     time.Duration
	http        *httpClient
	now         func() time.Time

	// tickers memoizes discovery for this instance only.
	tickers map[string][]string
}

func NewFinanceCollector(baseURL string, llm models.LLMProvider, temperature float64, timeout time.Duration) *FinanceCollector {
	return &FinanceCollector{
		baseURL:     strings.TrimRight(baseURL, "/"),
		llm:         llm,
		temperature: temperature,
		timeout:     timeout,
		http:        newHTTPClient(timeout),
		now:         time.Now,
		tickers:     make(map[string][]string),
	}
}

type yahooChart struct {
	Chart struct {
		Result []yahooSeries `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooSeries struct {
	Meta struct {
		Symbol    string  `json:"symbol"`
		LongName  string  `json:"longName"`
		ShortName string  `json:"shortName"`
		MarketCap float64 `json:"marketCap"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// tickerStats is one company's derived metrics.
type tickerStats struct {
	ticker       string
	name         string
	marketCap    float64
	change1m     float64
	change6m     float64
	change2y     float64
	avgVolume1m  float64
	avgVolume6m  float64
	volatility1m float64
	volatility6m float64
}

var errTickerNotFound = errors.New("ticker not found")

func (c *FinanceCollector) Collect(ctx context.Context, keyword string, _ []string) (models.SourceResult, error) {
	now := c.now()
	var errs []string

	tickers := c.discoverTickers(ctx, keyword, &errs)
	if len(tickers) == 0 {
		return financeError(keyword, now, "No tickers found", errs), nil
	}

	stats, fetchErrs := c.fetchAll(ctx, tickers, now)
	errs = append(errs, fetchErrs...)
	if len(stats) == 0 {
		return financeError(keyword, now, "All ticker fetches failed", errs), nil
	}

	n := float64(len(stats))
	res := &models.FinanceResult{
		CollectorMeta:  models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: nonNil(errs)},
		CompaniesFound: len(stats),
		Tickers:        make([]string, 0, len(stats)),
	}
	for _, s := range stats {
		res.Tickers = append(res.Tickers, s.ticker)
		res.TotalMarketCap += s.marketCap
		res.AvgPriceChange1m += s.change1m / n
		res.AvgPriceChange6m += s.change6m / n
		res.AvgPriceChange2y += s.change2y / n
		res.AvgVolume1m += s.avgVolume1m / n
		res.AvgVolume6m += s.avgVolume6m / n
		res.AvgVolatility1m += s.volatility1m / n
		res.AvgVolatility6m += s.volatility6m / n
	}
	res.AvgMarketCap = res.TotalMarketCap / n

	res.VolumeTrend = volumeTrend(res.AvgVolume1m, res.AvgVolume6m)
	res.MarketMaturity = marketMaturity(res.TotalMarketCap, res.AvgVolatility6m)
	res.InvestorSentiment = investorSentiment(res.AvgPriceChange1m, res.AvgPriceChange6m)
	res.InvestmentMomentum = investmentMomentum(res.AvgPriceChange1m, res.AvgPriceChange6m, res.AvgPriceChange2y)

	byCap := slices.Clone(stats)
	slices.SortStableFunc(byCap, func(a, b tickerStats) int { return cmp.Compare(b.marketCap, a.marketCap) })
	res.TopCompanies = make([]models.Company, 0, financeTopCount)
	for _, s := range byCap[:min(len(byCap), financeTopCount)] {
		res.TopCompanies = append(res.TopCompanies, models.Company{
			Ticker:        s.ticker,
			Name:          s.name,
			MarketCap:     s.marketCap,
			PriceChange1m: s.change1m,
		})
	}
	return res, nil
}

// discoverTickers asks the LLM for related tickers. Any failure falls back
// to broad technology ETFs. Only a validated answer is memoized.
func (c *FinanceCollector) discoverTickers(ctx context.Context, keyword string, errs *[]string) []string {
	if t, ok := c.tickers[keyword]; ok {
		return t
	}
	if c.llm == nil {
		*errs = append(*errs, "LLM provider not configured, using fallback ETFs")
		return fallbackTickers
	}
	name := c.llm.Name()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content, err := c.llm.Complete(ctx, models.CompletionRequest{
		Prompt:      fmt.Sprintf(tickerPrompt, keyword),
		Temperature: c.temperature,
		MaxTokens:   tickerMaxTokens,
	})
	if err != nil {
		if errors.Is(err, models.ErrLLMTimeout) || errors.Is(err, context.DeadlineExceeded) {
			*errs = append(*errs, name+" request timeout")
		} else {
			*errs = append(*errs, name+" unavailable")
		}
		return fallbackTickers
	}

	raw, err := ai.DecodeJSON[[]any](content)
	if err != nil {
		*errs = append(*errs, "Failed to parse "+name+" response")
		return fallbackTickers
	}
	if len(raw) == 0 {
		*errs = append(*errs, name+" returned invalid ticker format")
		return fallbackTickers
	}

	var valid []string
	for _, v := range raw {
		if v == nil {
			continue
		}
		t := strings.ToUpper(strings.TrimSpace(fmt.Sprint(v)))
		if t == "" {
			continue
		}
		if !tickerPattern.MatchString(t) {
			*errs = append(*errs, "Invalid ticker format: "+t)
			continue
		}
		if !slices.Contains(valid, t) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		*errs = append(*errs, "No valid tickers after validation")
		return fallbackTickers
	}

	c.tickers[keyword] = valid
	return valid
}

// fetchAll loads every ticker through a pool of financeWorkers goroutines.
// Wait always runs before returning so no fetch outlives the call. Results
// and errors keep ticker order.
func (c *FinanceCollector) fetchAll(ctx context.Context, tickers []string, now time.Time) ([]tickerStats, []string) {
	results := make([]*tickerStats, len(tickers))
	tickerErrs := make([]string, len(tickers))

	var g errgroup.Group
	g.SetLimit(financeWorkers)
	for i, t := range tickers {
		g.Go(func() error {
			s, err := c.fetchTicker(ctx, t, now)
			if err != nil {
				tickerErrs[i] = describeTicker(t, err)
				return nil
			}
			results[i] = s
			return nil
		})
	}
	_ = g.Wait()

	var stats []tickerStats
	var errs []string
	for i := range tickers {
		if results[i] != nil {
			stats = append(stats, *results[i])
		}
		if tickerErrs[i] != "" {
			errs = append(errs, tickerErrs[i])
		}
	}
	return stats, errs
}

var errNoRecentData = errors.New("no recent data")

func (c *FinanceCollector) fetchTicker(ctx context.Context, ticker string, now time.Time) (*tickerStats, error) {
	params := url.Values{"range": {"2y"}, "interval": {"1d"}}
	var chart yahooChart
	err := c.http.getJSON(ctx, c.baseURL+"/v8/finance/chart/"+url.PathEscape(ticker), params, nil, &chart)
	var se *StatusError
	if errors.As(err, &se) && se.Status == 404 {
		return nil, errTickerNotFound
	}
	if err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil || len(chart.Chart.Result) == 0 {
		return nil, errTickerNotFound
	}

	series := chart.Chart.Result[0]
	if len(series.Indicators.Quote) == 0 {
		return nil, errNoRecentData
	}
	quote := series.Indicators.Quote[0]

	var closes2y, closes6m, closes1m, vol6m, vol1m []float64
	cut1m := now.Add(-window1m).Unix()
	cut6m := now.Add(-window6m).Unix()
	for i, ts := range series.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		cl := *quote.Close[i]
		var vol float64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		closes2y = append(closes2y, cl)
		if ts >= cut6m {
			closes6m = append(closes6m, cl)
			vol6m = append(vol6m, vol)
		}
		if ts >= cut1m {
			closes1m = append(closes1m, cl)
			vol1m = append(vol1m, vol)
		}
	}
	if len(closes1m) == 0 {
		return nil, errNoRecentData
	}

	name := series.Meta.LongName
	if name == "" {
		name = series.Meta.ShortName
	}
	if name == "" {
		name = ticker
	}

	return &tickerStats{
		ticker:       ticker,
		name:         name,
		marketCap:    series.Meta.MarketCap,
		change1m:     analysis.PriceChange(closes1m),
		change6m:     analysis.PriceChange(closes6m),
		change2y:     analysis.PriceChange(closes2y),
		avgVolume1m:  analysis.Mean(vol1m),
		avgVolume6m:  analysis.Mean(vol6m),
		volatility1m: analysis.Volatility(closes1m),
		volatility6m: analysis.Volatility(closes6m),
	}, nil
}

func describeTicker(ticker string, err error) string {
	switch {
	case errors.Is(err, errTickerNotFound):
		return fmt.Sprintf("Ticker %s not found", ticker)
	case errors.Is(err, errNoRecentData):
		return fmt.Sprintf("No data for %s", ticker)
	default:
		return fmt.Sprintf("%s: %s", ticker, describe(err))
	}
}

func volumeTrend(avg1m, avg6m float64) string {
	if avg6m == 0 {
		return analysis.Stable
	}
	return analysis.RateTrend(avg1m, avg6m, volumeTrendBand)
}

func marketMaturity(totalCap, volatility6m float64) string {
	switch {
	case totalCap > matureMarketCap && volatility6m < 0.3:
		return "mature"
	case totalCap < emergingMarketCap || volatility6m > 0.6:
		return "emerging"
	default:
		return "developing"
	}
}

// investorSentiment weights the last month above the last half-year.
func investorSentiment(change1m, change6m float64) string {
	weighted := change1m*0.6 + change6m*0.4
	switch {
	case weighted > sentimentBand:
		return "positive"
	case weighted < -sentimentBand:
		return "negative"
	default:
		return "neutral"
	}
}

func investmentMomentum(change1m, change6m, change2y float64) string {
	switch {
	case change1m > change6m && change6m > change2y/4:
		return analysis.Accelerating
	case change1m < change6m/2 || (change1m < 0 && change6m > 0):
		return analysis.Decelerating
	default:
		return analysis.Steady
	}
}

func financeError(keyword string, now time.Time, msg string, errs []string) *models.FinanceResult {
	return &models.FinanceResult{
		CollectorMeta:      models.CollectorMeta{Keyword: keyword, CollectedAt: now, Errors: errorList(errs, msg)},
		Tickers:            []string{},
		VolumeTrend:        analysis.Unknown,
		MarketMaturity:     analysis.Unknown,
		InvestorSentiment:  analysis.Unknown,
		InvestmentMomentum: analysis.Unknown,
		TopCompanies:       []models.Company{},
	}
}

var _ Collector = (*FinanceCollector)(nil)
