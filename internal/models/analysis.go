package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnalysisResult is one analysed market selection for one fixture: the best
// available price plus the derived metrics the research pipeline tracks.
// Pointer fields are "no data" sentinels; the CSV layer renders them as
// empty cells and never invents a zero.
type AnalysisResult struct {
	ID         uuid.UUID  `json:"id"`
	Match      Match      `json:"match"`
	Market     MarketType `json:"market"`
	MarketName string     `json:"market_name"`

	BestPrice   float64 `json:"best_price"`
	Bookmaker   string  `json:"bookmaker"`
	ImpliedProb float64 `json:"implied_probability"`

	BookmakerMarginPct *float64 `json:"bookmaker_margin_pct,omitempty"`
	AvgMarketMarginPct *float64 `json:"avg_market_margin_pct,omitempty"`
	AvgMarketPrice     *float64 `json:"avg_market_price,omitempty"`
	VolatilityPct      *float64 `json:"volatility_pct,omitempty"`
	NumBookmakers      int      `json:"num_bookmakers"`

	// Bookmaker disagreement index columns. BDIJSD is nil when the scorer
	// returned its "no data" result.
	BDIJSD         *float64 `json:"bdi_jsd,omitempty"`
	BDINBookmakers int      `json:"bdi_n_bookmakers"`
	BDIStdP        *float64 `json:"bdi_std_p,omitempty"`
	BDIMADP        *float64 `json:"bdi_mad_p,omitempty"`

	AllQuotes string    `json:"all_quotes"`
	Result    BetResult `json:"result"`
	Profit    *float64  `json:"profit,omitempty"`
}

// MarginAdvantage returns avg market margin minus this bookmaker's margin.
// Positive means the quoting bookmaker is cheaper than the market.
func (r AnalysisResult) MarginAdvantage() *float64 {
	if r.BookmakerMarginPct == nil || r.AvgMarketMarginPct == nil {
		return nil
	}
	adv := *r.AvgMarketMarginPct - *r.BookmakerMarginPct
	return &adv
}

// PriceAdvantage returns best price minus the market average price.
func (r AnalysisResult) PriceAdvantage() *float64 {
	if r.AvgMarketPrice == nil || *r.AvgMarketPrice <= 0 {
		return nil
	}
	adv := r.BestPrice - *r.AvgMarketPrice
	return &adv
}

// ScoreFinal ranks selections: margin advantage relative to the quoting
// bookmaker's own margin. Undefined when either input is missing or the
// margin is non-positive.
func (r AnalysisResult) ScoreFinal() *float64 {
	adv := r.MarginAdvantage()
	if adv == nil || r.BookmakerMarginPct == nil || *r.BookmakerMarginPct <= 0 {
		return nil
	}
	score := *adv / *r.BookmakerMarginPct
	return &score
}

// FormatQuotes renders bookmaker quotes as the "book:price;..." cell stored
// in the AllQuotes column, sorted by bookmaker for stable output.
func FormatQuotes(quotes []OddsQuote) string {
	parts := make([]string, 0, len(quotes))
	for _, q := range quotes {
		parts = append(parts, fmt.Sprintf("%s:%.2f", q.Bookmaker, q.Price))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// SortByScore orders results by ScoreFinal descending; rows without a score
// sink to the bottom.
func SortByScore(results []AnalysisResult) {
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].ScoreFinal(), results[j].ScoreFinal()
		switch {
		case si == nil && sj == nil:
			return false
		case sj == nil:
			return true
		case si == nil:
			return false
		default:
			return *si > *sj
		}
	})
}

// AnalysisRun summarises one full scan across fixtures.
type AnalysisRun struct {
	ID             uuid.UUID `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	MatchesScanned int       `json:"matches_scanned"`
	MatchesQuoted  int       `json:"matches_quoted"`
	MarketsFound   int       `json:"markets_found"`
}
