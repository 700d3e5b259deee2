// Package oddsmath implements the probability math behind the market
// analysis: vig removal, Jensen-Shannon divergence and the bookmaker
// disagreement index (BDI).
package oddsmath

import "math"

// QuoteSet maps outcome labels to the decimal prices one bookmaker quotes
// for a single market. Keys are unique; ordering carries no meaning.
type QuoteSet map[string]float64

// FairDistribution maps outcome labels to vig-free probabilities. Whenever
// it is non-empty its values sum to 1 within floating tolerance.
type FairDistribution map[string]float64

// RemoveVig converts a bookmaker's raw decimal odds into a fair probability
// distribution. Each valid price o contributes a raw implied weight 1/o;
// dividing by the sum of weights redistributes the overround proportionally.
//
// Entries with non-positive or non-finite prices are filtered out before the
// numeric pipeline runs. If nothing survives the filter the result is an
// empty map, never an error: partial or unusable quotes are expected input,
// not a failure mode.
func RemoveVig(quotes QuoteSet) FairDistribution {
	raw := make(map[string]float64, len(quotes))
	var sum float64
	for outcome, price := range quotes {
		if !validPrice(price) {
			continue
		}
		w := 1.0 / price
		raw[outcome] = w
		sum += w
	}
	if len(raw) == 0 || sum <= 0 {
		return FairDistribution{}
	}

	fair := make(FairDistribution, len(raw))
	for outcome, w := range raw {
		fair[outcome] = w / sum
	}
	return fair
}

// Overround returns the bookmaker's margin for the quoted market: the amount
// by which the summed implied probabilities exceed 1. The second return is
// false when no valid prices were supplied.
func Overround(quotes QuoteSet) (float64, bool) {
	var sum float64
	n := 0
	for _, price := range quotes {
		if !validPrice(price) {
			continue
		}
		sum += 1.0 / price
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum - 1.0, true
}

func validPrice(price float64) bool {
	return price > 0 && !math.IsNaN(price) && !math.IsInf(price, 0)
}
