package oddsmath

import (
	"math"
	"sort"
)

// Disagreement summarizes how far a set of bookmakers sit from their own
// consensus for one market. JSDMean is the headline bookmaker disagreement
// index (BDI): the mean base-2 Jensen-Shannon divergence of each
// bookmaker's fair distribution against the consensus mean distribution.
//
// Valid is false when no bookmaker supplied usable quotes. That is a
// defined "no data" result the caller must check for, not an error.
type Disagreement struct {
	JSDMean         float64
	Valid           bool
	JSDPerBookmaker []float64
	PerOutcomeStd   map[string]float64
	PerOutcomeMAD   map[string]float64
	NBookmakers     int
	Outcomes        []string
}

// PairQuote carries one bookmaker's prices for both sides of a strictly
// binary market, e.g. Over 2.5 / Under 2.5 of the same totals line.
type PairQuote struct {
	Bookmaker string
	Over      float64
	Under     float64
}

// Binary outcome labels used by the paired entry point.
const (
	OutcomeOver  = "over"
	OutcomeUnder = "under"
)

// BookmakerDisagreement computes disagreement metrics across bookmakers
// quoting the same market. Each quote set is de-vigged first; bookmakers
// whose fair distribution comes out empty are skipped. JSDPerBookmaker
// preserves the input ordering restricted to the survivors.
//
// The outcome axis is the sorted union of outcomes across survivors. A
// bookmaker that did not quote some outcome gets probability 0 for it
// without renormalizing its row. That slightly biases such rows below a
// sum of 1; the behaviour is kept as-is because historical BDI values in
// stored datasets were produced this way.
func BookmakerDisagreement(quoteSets []QuoteSet) Disagreement {
	fairs := make([]FairDistribution, 0, len(quoteSets))
	for _, quotes := range quoteSets {
		fair := RemoveVig(quotes)
		if len(fair) > 0 {
			fairs = append(fairs, fair)
		}
	}
	return scoreDistributions(fairs)
}

// PairedDisagreement is the "fair pairing" variant: each bookmaker's fair
// split is derived from its own two complementary prices, which is more
// accurate when the two sides are known to be exhaustive. The scoring
// steps are identical to BookmakerDisagreement.
func PairedDisagreement(pairs []PairQuote) Disagreement {
	fairs := make([]FairDistribution, 0, len(pairs))
	for _, pair := range pairs {
		fair := RemoveVig(QuoteSet{OutcomeOver: pair.Over, OutcomeUnder: pair.Under})
		if len(fair) > 0 {
			fairs = append(fairs, fair)
		}
	}
	return scoreDistributions(fairs)
}

// scoreDistributions runs the shared consensus/JSD/dispersion pipeline over
// already de-vigged distributions.
func scoreDistributions(fairs []FairDistribution) Disagreement {
	n := len(fairs)
	if n == 0 {
		return Disagreement{
			PerOutcomeStd: map[string]float64{},
			PerOutcomeMAD: map[string]float64{},
			Outcomes:      []string{},
		}
	}

	outcomes := outcomeUnion(fairs)
	k := len(outcomes)

	// Rows are bookmakers, columns follow the sorted outcome axis.
	matrix := make([][]float64, n)
	for i, fair := range fairs {
		row := make([]float64, k)
		for j, outcome := range outcomes {
			row[j] = fair[outcome]
		}
		matrix[i] = row
	}

	consensus := make([]float64, k)
	for j := 0; j < k; j++ {
		for _, row := range matrix {
			consensus[j] += row[j]
		}
		consensus[j] /= float64(n)
	}

	jsds := make([]float64, n)
	var jsdSum float64
	for i, row := range matrix {
		// Length mismatch is impossible here; rows and consensus share
		// the outcome axis.
		jsd, _ := JensenShannon(row, consensus)
		jsds[i] = jsd
		jsdSum += jsd
	}

	perStd := make(map[string]float64, k)
	perMAD := make(map[string]float64, k)
	for j, outcome := range outcomes {
		var variance, mad float64
		for _, row := range matrix {
			d := row[j] - consensus[j]
			variance += d * d
			mad += math.Abs(d)
		}
		perStd[outcome] = math.Sqrt(variance / float64(n))
		perMAD[outcome] = mad / float64(n)
	}

	return Disagreement{
		JSDMean:         jsdSum / float64(n),
		Valid:           true,
		JSDPerBookmaker: jsds,
		PerOutcomeStd:   perStd,
		PerOutcomeMAD:   perMAD,
		NBookmakers:     n,
		Outcomes:        outcomes,
	}
}

func outcomeUnion(fairs []FairDistribution) []string {
	seen := make(map[string]struct{})
	for _, fair := range fairs {
		for outcome := range fair {
			seen[outcome] = struct{}{}
		}
	}
	outcomes := make([]string, 0, len(seen))
	for outcome := range seen {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	return outcomes
}
