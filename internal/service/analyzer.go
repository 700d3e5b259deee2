// Package service implements the research pipeline on top of the odds
// provider: market scanning, outcome reconciliation and strategy
// evaluation.
package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/config"
	"github.com/yourusername/oddslab/internal/datasource"
	"github.com/yourusername/oddslab/internal/logger"
	"github.com/yourusername/oddslab/internal/models"
	"github.com/yourusername/oddslab/internal/oddsmath"
)

// Analyzer scans upcoming fixtures, extracts best prices per market and
// scores bookmaker disagreement for each selection.
type Analyzer struct {
	provider datasource.OddsProvider
	cfg      config.AnalysisConfig
	leagues  []config.LeagueConfig
	log      *logrus.Logger
	scanLog  *logger.ScanLogger
}

// NewAnalyzer creates an analyzer over the given provider.
func NewAnalyzer(provider datasource.OddsProvider, cfg config.AnalysisConfig, leagues []config.LeagueConfig, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		cfg:      cfg,
		leagues:  leagues,
		log:      log,
		scanLog:  logger.NewScanLogger(log),
	}
}

// UpcomingMatches lists fixtures across all configured leagues that kick
// off within the analysis horizon. Near fixtures (inside the priority
// window) come first, sorted by kickoff, because odds for distant fixtures
// are frequently not published yet.
func (a *Analyzer) UpcomingMatches(ctx context.Context) ([]models.Match, error) {
	now := time.Now().UTC()
	horizon := a.cfg.AnalysisHorizon()

	var all []models.Match
	for _, league := range a.leagues {
		matches, err := a.provider.ListEvents(ctx, league.SportKey)
		if err != nil {
			a.log.WithField("league", league.Name).Warnf("Failed to list events: %v", err)
			continue
		}
		for _, m := range matches {
			if !m.StartsWithin(now, horizon) {
				continue
			}
			m.League = league.Name
			m.Country = league.Country
			all = append(all, m)
		}
	}

	if len(all) == 0 {
		return nil, models.ErrNoMatches
	}

	priorityCutoff := now.Add(a.cfg.PriorityWindow())
	near := make([]models.Match, 0, len(all))
	far := make([]models.Match, 0)
	for _, m := range all {
		if !m.Kickoff.After(priorityCutoff) {
			near = append(near, m)
		} else {
			far = append(far, m)
		}
	}
	sort.Slice(near, func(i, j int) bool { return near[i].Kickoff.Before(near[j].Kickoff) })
	sort.Slice(far, func(i, j int) bool { return far[i].Kickoff.Before(far[j].Kickoff) })

	return append(near, far...), nil
}

// AnalyzeAll runs a full scan: list fixtures, fetch odds, score every
// selection. Fixtures whose odds fetch fails are skipped, not fatal.
func (a *Analyzer) AnalyzeAll(ctx context.Context) ([]models.AnalysisResult, models.AnalysisRun, error) {
	run := models.AnalysisRun{ID: uuid.New(), StartedAt: time.Now().UTC()}

	leagueNames := make([]string, len(a.leagues))
	for i, l := range a.leagues {
		leagueNames[i] = l.Name
	}
	a.scanLog.LogScanStart(leagueNames, a.cfg.HoursAhead, a.cfg.Markets)

	matches, err := a.UpcomingMatches(ctx)
	if err != nil {
		return nil, run, err
	}
	run.MatchesScanned = len(matches)

	var all []models.AnalysisResult
	skipped := 0
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, run, err
		}
		odds, err := a.provider.EventOdds(ctx, match, a.cfg.Markets)
		if err != nil {
			a.log.WithField("match", match.Display()).Warnf("Failed to fetch odds: %v", err)
			skipped++
			continue
		}
		if !odds.HasQuotes() {
			skipped++
			continue
		}
		run.MatchesQuoted++

		results := a.AnalyzeMatch(odds)
		all = append(all, results...)
		for _, r := range results {
			a.scanLog.LogMatchAnalyzed(match.ID, match.Display(), r.MarketName, r.ScoreFinal(), r.BDIJSD, r.NumBookmakers)
		}
	}
	run.MarketsFound = len(all)
	run.FinishedAt = time.Now().UTC()

	a.scanLog.LogScanComplete(run.MatchesScanned, run.MatchesQuoted, skipped, run.FinishedAt.Sub(run.StartedAt))
	a.scanLog.LogQuotaRemaining(a.provider.RemainingQuota(), 0)

	return all, run, nil
}

// AnalyzeMatch scores every selection quoted for one fixture.
func (a *Analyzer) AnalyzeMatch(odds *models.MatchOdds) []models.AnalysisResult {
	var results []models.AnalysisResult

	if contains(a.cfg.Markets, string(models.MarketDoubleChance1X)) {
		if r := a.analyzeDerived(odds, odds.Odds1X, models.MarketDoubleChance1X); r != nil {
			results = append(results, *r)
		}
	}
	if contains(a.cfg.Markets, string(models.MarketDoubleChanceX2)) {
		if r := a.analyzeDerived(odds, odds.OddsX2, models.MarketDoubleChanceX2); r != nil {
			results = append(results, *r)
		}
	}
	if contains(a.cfg.Markets, "H2H") {
		results = append(results, a.analyzeMatchWinner(odds)...)
	}
	if contains(a.cfg.Markets, string(models.MarketTotals)) {
		results = append(results, a.analyzeBinary(odds, odds.Totals, models.MarketTotals)...)
	}
	if contains(a.cfg.Markets, string(models.MarketBTTS)) {
		results = append(results, a.analyzeBinary(odds, odds.BTTS, models.MarketBTTS)...)
	}

	return results
}

// analyzeDerived scores a double-chance market derived from 1X2 prices.
// The disagreement index comes from the bookmakers' full 1X2 distributions,
// which is the finest-grained view available for these markets.
func (a *Analyzer) analyzeDerived(odds *models.MatchOdds, quotes []models.OddsQuote, market models.MarketType) *models.AnalysisResult {
	best := models.Best(quotes)
	if best == nil || !a.meetsThresholds(best.Price) {
		return nil
	}

	r := models.AnalysisResult{
		ID:            uuid.New(),
		Match:         odds.Match,
		Market:        market,
		MarketName:    string(market),
		BestPrice:     best.Price,
		Bookmaker:     best.Bookmaker,
		ImpliedProb:   best.ImpliedProbability(),
		NumBookmakers: len(quotes),
		AllQuotes:     models.FormatQuotes(quotes),
		Result:        models.ResultPending,
	}

	if margin, ok := odds.BookmakerMargin(best.Bookmaker); ok {
		r.BookmakerMarginPct = &margin
	}
	if len(odds.H2H) > 0 {
		avgMargin := odds.AvgOverroundPercent()
		r.AvgMarketMarginPct = &avgMargin
	}
	if avg := models.AveragePrice(quotes); avg > 0 {
		r.AvgMarketPrice = &avg
	}
	r.VolatilityPct = volatilityPct(prices(quotes))

	quoteSets := make([]oddsmath.QuoteSet, 0, len(odds.H2H))
	for _, h := range odds.H2H {
		quoteSets = append(quoteSets, oddsmath.QuoteSet{
			"home": h.Home,
			"draw": h.Draw,
			"away": h.Away,
		})
	}
	a.applyDisagreement(&r, quoteSets)

	return &r
}

// analyzeMatchWinner scores the three 1X2 outcomes as individual
// selections. Margins and disagreement come from the same full 1X2
// distributions the derived markets use.
func (a *Analyzer) analyzeMatchWinner(odds *models.MatchOdds) []models.AnalysisResult {
	outcomes := []struct {
		market models.MarketType
		price  func(models.H2HOdds) float64
	}{
		{models.MarketMatchWinner1, func(h models.H2HOdds) float64 { return h.Home }},
		{models.MarketMatchWinnerX, func(h models.H2HOdds) float64 { return h.Draw }},
		{models.MarketMatchWinner2, func(h models.H2HOdds) float64 { return h.Away }},
	}

	var results []models.AnalysisResult
	for _, o := range outcomes {
		quotes := make([]models.OddsQuote, 0, len(odds.H2H))
		for _, h := range odds.H2H {
			p := o.price(h)
			if p <= 0 {
				continue
			}
			quotes = append(quotes, models.OddsQuote{
				Bookmaker:  h.Bookmaker,
				Market:     o.market,
				MarketName: string(o.market),
				Price:      p,
				Timestamp:  h.Timestamp,
			})
		}
		if r := a.analyzeDerived(odds, quotes, o.market); r != nil {
			results = append(results, *r)
		}
	}
	return results
}

// analyzeBinary scores a two-sided market (totals lines, BTTS). Each
// distinct selection name gets its own row; the disagreement index is
// shared across the two sides of the same line because it is computed from
// the full per-bookmaker distribution.
func (a *Analyzer) analyzeBinary(odds *models.MatchOdds, quotes []models.OddsQuote, market models.MarketType) []models.AnalysisResult {
	if len(quotes) == 0 {
		return nil
	}

	bySelection := map[string][]models.OddsQuote{}
	order := []string{}
	for _, q := range quotes {
		if _, seen := bySelection[q.MarketName]; !seen {
			order = append(order, q.MarketName)
		}
		bySelection[q.MarketName] = append(bySelection[q.MarketName], q)
	}

	var results []models.AnalysisResult
	for _, selection := range order {
		selQuotes := bySelection[selection]
		best := models.Best(selQuotes)
		if best == nil || !a.meetsThresholds(best.Price) {
			continue
		}

		r := models.AnalysisResult{
			ID:            uuid.New(),
			Match:         odds.Match,
			Market:        market,
			MarketName:    selection,
			BestPrice:     best.Price,
			Bookmaker:     best.Bookmaker,
			ImpliedProb:   best.ImpliedProbability(),
			NumBookmakers: len(selQuotes),
			AllQuotes:     models.FormatQuotes(selQuotes),
			Result:        models.ResultPending,
		}

		opposite := oppositeSelection(market, selection)
		if oppQuotes, ok := bySelection[opposite]; ok {
			if margin := pairMargin(best, oppQuotes); margin != nil {
				r.BookmakerMarginPct = margin
			}

			quoteSets := pairQuoteSets(selQuotes, oppQuotes, selection, opposite)
			a.applyDisagreement(&r, quoteSets)
		}
		if len(odds.H2H) > 0 {
			avgMargin := odds.AvgOverroundPercent()
			r.AvgMarketMarginPct = &avgMargin
		}
		if avg := models.AveragePrice(selQuotes); avg > 0 {
			r.AvgMarketPrice = &avg
		}
		r.VolatilityPct = volatilityPct(prices(selQuotes))

		results = append(results, r)
	}
	return results
}

// meetsThresholds applies the configured price and implied-probability
// floors to a candidate's best price. Zero thresholds disable the check.
func (a *Analyzer) meetsThresholds(price float64) bool {
	if price <= 0 {
		return false
	}
	if a.cfg.MinPrice > 0 && price < a.cfg.MinPrice {
		return false
	}
	if a.cfg.MinProbability > 0 && 1.0/price < a.cfg.MinProbability {
		return false
	}
	return true
}

// applyDisagreement runs the BDI scorer when enough bookmakers quote the
// market; otherwise the columns stay nil.
func (a *Analyzer) applyDisagreement(r *models.AnalysisResult, quoteSets []oddsmath.QuoteSet) {
	if len(quoteSets) < a.cfg.MinBookmakersForBDI {
		return
	}
	score := oddsmath.BookmakerDisagreement(quoteSets)
	if !score.Valid {
		return
	}
	jsd := score.JSDMean
	r.BDIJSD = &jsd
	r.BDINBookmakers = score.NBookmakers
	if len(score.Outcomes) > 0 {
		lead := score.Outcomes[0]
		std := score.PerOutcomeStd[lead]
		mad := score.PerOutcomeMAD[lead]
		r.BDIStdP = &std
		r.BDIMADP = &mad
	}
}

// pairQuoteSets builds one QuoteSet per bookmaker quoting both sides of a
// binary market.
func pairQuoteSets(side, opposite []models.OddsQuote, sideName, oppName string) []oddsmath.QuoteSet {
	oppByBook := map[string]float64{}
	for _, q := range opposite {
		oppByBook[q.Bookmaker] = q.Price
	}
	var sets []oddsmath.QuoteSet
	for _, q := range side {
		oppPrice, ok := oppByBook[q.Bookmaker]
		if !ok {
			continue
		}
		sets = append(sets, oddsmath.QuoteSet{sideName: q.Price, oppName: oppPrice})
	}
	return sets
}

// pairMargin computes the best bookmaker's two-sided overround in percent,
// nil when that bookmaker does not quote the opposite side.
func pairMargin(best *models.OddsQuote, opposite []models.OddsQuote) *float64 {
	for _, q := range opposite {
		if q.Bookmaker == best.Bookmaker && q.Price > 0 {
			margin := (best.ImpliedProbability() + q.ImpliedProbability() - 1.0) * 100
			return &margin
		}
	}
	return nil
}

// oppositeSelection names the complementary side of a binary selection.
func oppositeSelection(market models.MarketType, selection string) string {
	switch market {
	case models.MarketBTTS:
		if selection == "Yes" {
			return "No"
		}
		return "Yes"
	case models.MarketTotals:
		var side string
		var point float64
		if _, err := fmt.Sscanf(selection, "Over %f", &point); err == nil {
			side = "Under"
		} else if _, err := fmt.Sscanf(selection, "Under %f", &point); err == nil {
			side = "Over"
		} else {
			return ""
		}
		return fmt.Sprintf("%s %.1f", side, point)
	default:
		return ""
	}
}

// volatilityPct is the population standard deviation of the quoted prices
// relative to their mean, in percent. Needs at least two quotes.
func volatilityPct(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean <= 0 {
		return nil
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	vol := math.Sqrt(variance/float64(len(values))) / mean * 100
	return &vol
}

func prices(quotes []models.OddsQuote) []float64 {
	out := make([]float64, len(quotes))
	for i, q := range quotes {
		out[i] = q.Price
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
