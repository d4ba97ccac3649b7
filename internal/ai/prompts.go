package ai

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

const phaseDefinitions = `
Hype Cycle Phases:
1. innovation_trigger (Innovation Trigger): New technology concept emerges, limited mentions/publications/patents, early adopters experimenting, low engagement/citations, narrow focus
2. peak (Peak of Inflated Expectations): Explosive growth in all metrics, very high social media buzz, rapid increase in publications/patents, mainstream media coverage begins, high sentiment/optimism, accelerating momentum
3. trough (Trough of Disillusionment): Declining mentions from peak levels, negative sentiment shift, publication/patent growth slows or reverses, media coverage drops, investor sentiment turns negative, reality check on limitations
4. slope (Slope of Enlightenment): Stabilizing metrics after trough, improving sentiment from lows, steady sustainable growth, maturing research and patents, practical applications emerge, institutional adoption begins
5. plateau (Plateau of Productivity): Sustained moderate activity, neutral sentiment (technology normalized), stable publication/patent rates, broad established field, mainstream adoption, mature market
`

const responseFormat = `Return ONLY a JSON object with no markdown formatting:
{"phase": "one of: innovation_trigger, peak, trough, slope, plateau", "confidence": %.2f, "reasoning": "%s"}`

const socialPrompt = `You are analyzing social media signals from Hacker News to determine the hype cycle phase for "%s".

Data provided:
- Mentions: 30d=%d, 6m=%d, 1y=%d, total=%d
- Engagement: avg_points_30d=%.1f, avg_comments_30d=%.1f
- Sentiment: %.2f (range: -1.0 to 1.0)
- Trends: growth=%s, momentum=%s
- Recency: %s
%s
Interpretation guidance:
- innovation_trigger: Low mentions (<50 total), low engagement, early buzz
- peak: Very high mentions (>200 in 30d), high sentiment (>0.5), accelerating momentum
- trough: Declining mentions from previous peak, negative sentiment shift
- slope: Stabilizing mentions, improving sentiment, steady growth
- plateau: Sustained moderate volume, neutral sentiment (0.0-0.3), stable trend

Based on these social media signals, classify the hype cycle phase.

`

const papersPrompt = `You are analyzing academic research signals from Semantic Scholar for "%s".

Data provided:
- Publications: 2y=%d, 5y=%d, total=%d
- Citations: avg_2y=%.1f, avg_5y=%.1f
- Citation velocity: %.2f (positive = accelerating citations)
- Research maturity: %s
- Research momentum: %s
- Research breadth: %s
- Author diversity: %d
- Venue diversity: %d
%s
Interpretation guidance:
- innovation_trigger: Emerging field (<10 papers in 2y), low citations (<5 avg), narrow breadth
- peak: Rapid publication growth, high momentum (accelerating), broad research, many authors
- trough: Declining publications, negative citation velocity, narrowing focus
- slope: Steady publications, mature field, moderate citations, improving velocity
- plateau: Stable publication rate, high citations, broad established field

Based on these academic signals, classify the hype cycle phase.

`

const patentsPrompt = `You are analyzing patent filing signals from PatentsView for "%s".

Data provided:
- Patent filings: 2y=%d, 5y=%d, 10y=%d, total=%d
- Citations: avg_2y=%.1f, avg_5y=%.1f
- Filing velocity: %.2f (positive = accelerating filings)
- Unique assignees: %d
- Assignee concentration: %s
- Geographic diversity: %d countries
- Geographic reach: %s
- Patent maturity: %s
- Patent momentum: %s
%s
Interpretation guidance:
- innovation_trigger: Few patents (<10 in 2y), concentrated assignees (1-3 companies), domestic only
- peak: Rapid filing growth, many assignees (>20), global reach, accelerating momentum
- trough: Declining filings from peak, consolidation (fewer assignees), slowing velocity
- slope: Steady filings, maturing patents, diverse assignees, moderate citations
- plateau: Stable filing rate, established field, high citations, global coverage

Based on these patent signals, classify the hype cycle phase.

`

const newsPrompt = `You are analyzing news media coverage signals from GDELT for "%s".

Data provided:
- Article counts: 30d=%d, 3m=%d, 1y=%d, total=%d
- Unique domains: %d
- Geographic diversity: %d countries
- Average tone: %.2f (range: -1.0 to 1.0)
- Media attention: %s
- Coverage trend: %s
- Sentiment trend: %s
- Mainstream adoption: %s
%s
Interpretation guidance:
- innovation_trigger: Low coverage (<50 articles), niche media, few domains, limited geography
- peak: Very high coverage (>500 articles), mainstream media, many domains, positive tone, increasing trend
- trough: Declining coverage from peak, negative tone shift, decreasing trend
- slope: Stabilizing coverage, improving tone, steady trend, broadening media
- plateau: Sustained moderate coverage, neutral tone, stable trend, mainstream domains

Based on these news media signals, classify the hype cycle phase.

`

const financePrompt = `You are analyzing financial market signals from Yahoo Finance for "%s".

Data provided:
- Companies found: %d
- Total market cap: $%.1fB
- Average market cap: $%.1fB
- Price changes: 1m=%.1f%%, 6m=%.1f%%, 2y=%.1f%%
- Volatility: 1m=%.1f%%, 6m=%.1f%%
- Volume trend: %s
- Market maturity: %s
- Investor sentiment: %s
- Investment momentum: %s
%s
Interpretation guidance:
- innovation_trigger: Few companies (<3), small market cap (<$10B total), high volatility (>30%%)
- peak: Many companies (>10), large market cap, strong positive returns, high volatility, accelerating momentum, positive sentiment
- trough: Declining returns from peak, negative price changes, very high volatility, negative sentiment
- slope: Stabilizing returns, improving sentiment, moderate volatility, steady momentum, developing maturity
- plateau: Stable moderate returns, neutral sentiment, low volatility (<15%%), mature market

Based on these financial market signals, classify the hype cycle phase.

`

const synthesisPrompt = `You are an expert technology analyst synthesizing multiple data sources to determine the definitive hype cycle position for "%s".

You have analyzed this technology from %d independent perspectives:

%s
%s
Synthesize these perspectives into ONE final classification. Consider:
- Conflicting signals may indicate transition phases
- Weight sources by confidence scores
- Social media trends faster than academic validation
- Patents and finance lag behind hype but indicate real investment
- News coverage bridges mainstream adoption
- Recent data (social, news) vs. slower indicators (papers, patents)

`

const termsPrompt = `The technology "%s" has very little discussion under that exact name. Suggest 3-5 closely related search terms that people use for the same technology: synonyms, abbreviations, the broader field it belongs to, or well-known products built on it.

Requirements:
- Each term must be specific to this technology
- Do not repeat "%s" itself
- Do not use generic words such as "technology", "system" or "innovation"

Return ONLY a JSON object with no markdown formatting:
{"terms": ["term one", "term two", "term three"]}`

// SourcePrompt builds the per-source classification prompt for r.
func SourcePrompt(keyword string, r models.SourceResult) (string, error) {
	switch d := r.(type) {
	case *models.SocialResult:
		return fmt.Sprintf(socialPrompt, keyword,
			d.Mentions30d, d.Mentions6m, d.Mentions1y, d.MentionsTotal,
			d.AvgPoints30d, d.AvgComments30d,
			d.Sentiment,
			d.GrowthTrend, d.Momentum,
			d.Recency,
			phaseDefinitions,
		) + fmt.Sprintf(responseFormat, 0.75, "1-2 sentence explanation"), nil
	case *models.PapersResult:
		return fmt.Sprintf(papersPrompt, keyword,
			d.Publications2y, d.Publications5y, d.PublicationsTotal,
			d.AvgCitations2y, d.AvgCitations5y,
			d.CitationVelocity,
			d.ResearchMaturity,
			d.ResearchMomentum,
			d.ResearchBreadth,
			d.AuthorDiversity,
			d.VenueDiversity,
			phaseDefinitions,
		) + fmt.Sprintf(responseFormat, 0.80, "1-2 sentence explanation"), nil
	case *models.PatentsResult:
		return fmt.Sprintf(patentsPrompt, keyword,
			d.Patents2y, d.Patents5y, d.Patents10y, d.PatentsTotal,
			d.AvgCitations2y, d.AvgCitations5y,
			d.FilingVelocity,
			d.UniqueAssignees,
			d.AssigneeConcentration,
			d.GeographicDiversity,
			d.GeographicReach,
			d.PatentMaturity,
			d.PatentMomentum,
			phaseDefinitions,
		) + fmt.Sprintf(responseFormat, 0.78, "1-2 sentence explanation"), nil
	case *models.NewsResult:
		return fmt.Sprintf(newsPrompt, keyword,
			d.Articles30d, d.Articles3m, d.Articles1y, d.ArticlesTotal,
			d.UniqueDomains,
			d.GeographicDiversity,
			d.AvgTone,
			d.MediaAttention,
			d.CoverageTrend,
			d.SentimentTrend,
			d.MainstreamAdoption,
			phaseDefinitions,
		) + fmt.Sprintf(responseFormat, 0.72, "1-2 sentence explanation"), nil
	case *models.FinanceResult:
		return fmt.Sprintf(financePrompt, keyword,
			d.CompaniesFound,
			d.TotalMarketCap/1e9,
			d.AvgMarketCap/1e9,
			d.AvgPriceChange1m*100, d.AvgPriceChange6m*100, d.AvgPriceChange2y*100,
			d.AvgVolatility1m*100, d.AvgVolatility6m*100,
			d.VolumeTrend,
			d.MarketMaturity,
			d.InvestorSentiment,
			d.InvestmentMomentum,
			phaseDefinitions,
		) + fmt.Sprintf(responseFormat, 0.76, "1-2 sentence explanation"), nil
	}
	return "", fmt.Errorf("no prompt for source result %T", r)
}

// SynthesisPrompt summarises the per-source analyses in fixed source order.
func SynthesisPrompt(keyword string, analyses map[models.Source]models.PerSourceAnalysis) string {
	var summaries []string
	for _, s := range models.Sources {
		a, ok := analyses[s]
		if !ok {
			continue
		}
		summaries = append(summaries, fmt.Sprintf("%d. %s:\n   Phase: %s\n   Confidence: %.2f\n   Reasoning: %s",
			len(summaries)+1, s.Label(), a.Phase, a.Confidence, a.Reasoning))
	}

	return fmt.Sprintf(synthesisPrompt, keyword, len(summaries), strings.Join(summaries, "\n\n"), phaseDefinitions) +
		fmt.Sprintf(responseFormat, 0.85, "2-3 sentence explanation synthesizing key evidence from all sources")
}

// TermsPrompt asks for related search terms for a niche keyword.
func TermsPrompt(keyword string) string {
	return fmt.Sprintf(termsPrompt, keyword, keyword)
}
