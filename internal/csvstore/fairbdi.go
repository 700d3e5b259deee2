package csvstore

import (
	"strings"

	"github.com/yourusername/oddslab/internal/models"
	"github.com/yourusername/oddslab/internal/oddsmath"
)

// totalsSide splits a totals market name like "Over 2.5" into its side and
// threshold. Returns ok=false for names that are not an Over/Under pair.
func totalsSide(marketName string) (side, threshold string, ok bool) {
	fields := strings.Fields(strings.TrimSpace(marketName))
	if len(fields) < 2 {
		return "", "", false
	}
	side = strings.ToLower(fields[0])
	if side != oddsmath.OutcomeOver && side != oddsmath.OutcomeUnder {
		return "", "", false
	}
	return side, fields[len(fields)-1], true
}

type overUnderGroup struct {
	overRows  []int
	underRows []int
}

// RecomputeFairBDI rescores the disagreement columns of totals rows using
// per-bookmaker Over/Under pairing instead of the whole-market consensus.
// Rows without a complete pair keep their original BDI columns. Returns the
// number of rows updated.
func RecomputeFairBDI(results []models.AnalysisResult) int {
	groups := map[string]*overUnderGroup{}
	for i, r := range results {
		if r.Market != models.MarketTotals {
			continue
		}
		side, threshold, ok := totalsSide(r.MarketName)
		if !ok {
			continue
		}
		key := r.Match.ID + "|" + threshold
		g := groups[key]
		if g == nil {
			g = &overUnderGroup{}
			groups[key] = g
		}
		if side == oddsmath.OutcomeOver {
			g.overRows = append(g.overRows, i)
		} else {
			g.underRows = append(g.underRows, i)
		}
	}

	updated := 0
	for _, g := range groups {
		if len(g.overRows) == 0 || len(g.underRows) == 0 {
			continue
		}
		overQuotes := ParseQuotes(results[g.overRows[0]].AllQuotes)
		underQuotes := ParseQuotes(results[g.underRows[0]].AllQuotes)

		pairs := make([]oddsmath.PairQuote, 0, len(overQuotes))
		for book, over := range overQuotes {
			under, ok := underQuotes[book]
			if !ok {
				continue
			}
			pairs = append(pairs, oddsmath.PairQuote{Bookmaker: book, Over: over, Under: under})
		}
		// One bookmaker cannot disagree with itself.
		if len(pairs) < 2 {
			continue
		}

		score := oddsmath.PairedDisagreement(pairs)
		if !score.Valid {
			continue
		}

		jsd := score.JSDMean
		stdP := score.PerOutcomeStd[oddsmath.OutcomeOver]
		madP := score.PerOutcomeMAD[oddsmath.OutcomeOver]
		for _, idx := range append(append([]int{}, g.overRows...), g.underRows...) {
			results[idx].BDIJSD = &jsd
			results[idx].BDINBookmakers = score.NBookmakers
			results[idx].BDIStdP = &stdP
			results[idx].BDIMADP = &madP
			updated++
		}
	}
	return updated
}
