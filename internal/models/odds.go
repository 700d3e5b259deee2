package models

import (
	"time"
)

// OddsQuote is one bookmaker's decimal price for one market selection.
type OddsQuote struct {
	Bookmaker  string     `json:"bookmaker" validate:"required"`
	Market     MarketType `json:"market" validate:"required"`
	MarketName string     `json:"market_name"`
	Price      float64    `json:"price" validate:"required,gt=1"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ImpliedProbability returns 1/price, the bookmaker's raw (vig-inclusive)
// probability for the selection.
func (q OddsQuote) ImpliedProbability() float64 {
	if q.Price <= 0 {
		return 0
	}
	return 1.0 / q.Price
}

// H2HOdds carries one bookmaker's full 1X2 quote, the basis for margin
// calculations and for derived double-chance prices.
type H2HOdds struct {
	Bookmaker string    `json:"bookmaker" validate:"required"`
	Home      float64   `json:"home_odds" validate:"required,gt=1"`
	Draw      float64   `json:"draw_odds" validate:"required,gt=1"`
	Away      float64   `json:"away_odds" validate:"required,gt=1"`
	Timestamp time.Time `json:"timestamp"`
}

// Overround returns the bookmaker margin baked into the 1X2 prices.
func (h H2HOdds) Overround() float64 {
	return 1/h.Home + 1/h.Draw + 1/h.Away - 1.0
}

// OverroundPercent returns the margin as a percentage.
func (h H2HOdds) OverroundPercent() float64 {
	return h.Overround() * 100
}

// MatchOdds groups every quote collected for one fixture.
type MatchOdds struct {
	Match  Match       `json:"match"`
	Odds1X []OddsQuote `json:"odds_1x"`
	OddsX2 []OddsQuote `json:"odds_x2"`
	Totals []OddsQuote `json:"totals"`
	BTTS   []OddsQuote `json:"btts"`
	H2H    []H2HOdds   `json:"odds_h2h"`
}

// HasQuotes reports whether any analysable market was quoted.
func (mo MatchOdds) HasQuotes() bool {
	return len(mo.Odds1X) > 0 || len(mo.OddsX2) > 0 || len(mo.Totals) > 0 || len(mo.BTTS) > 0
}

// Best returns the highest-priced quote in the slice, or nil when empty.
func Best(quotes []OddsQuote) *OddsQuote {
	var best *OddsQuote
	for i := range quotes {
		if best == nil || quotes[i].Price > best.Price {
			best = &quotes[i]
		}
	}
	return best
}

// AveragePrice returns the mean quoted price, 0 when no quotes exist.
func AveragePrice(quotes []OddsQuote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	var sum float64
	for _, q := range quotes {
		sum += q.Price
	}
	return sum / float64(len(quotes))
}

// AvgOverroundPercent returns the mean bookmaker margin across the H2H
// quotes, 0 when none were collected.
func (mo MatchOdds) AvgOverroundPercent() float64 {
	if len(mo.H2H) == 0 {
		return 0
	}
	var sum float64
	for _, h := range mo.H2H {
		sum += h.OverroundPercent()
	}
	return sum / float64(len(mo.H2H))
}

// BookmakerMargin looks up the H2H margin for a specific bookmaker. The
// second return is false when that bookmaker quoted no full 1X2 set.
func (mo MatchOdds) BookmakerMargin(bookmaker string) (float64, bool) {
	for _, h := range mo.H2H {
		if h.Bookmaker == bookmaker {
			return h.OverroundPercent(), true
		}
	}
	return 0, false
}
