package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yourusername/oddslab/internal/config"
	"github.com/yourusername/oddslab/internal/csvstore"
	"github.com/yourusername/oddslab/internal/datasource"
	"github.com/yourusername/oddslab/internal/logger"
	"github.com/yourusername/oddslab/internal/models"
)

// ResultsUpdater reconciles pending predictions in the master dataset
// against completed scores from the provider.
type ResultsUpdater struct {
	provider datasource.OddsProvider
	store    *csvstore.Store
	leagues  []config.LeagueConfig
	daysFrom int
	log      *logrus.Logger
	resLog   *logger.ResultsLogger
}

// SyncSummary reports one reconciliation run.
type SyncSummary struct {
	Pending     int
	Settled     int
	Won         int
	Lost        int
	TotalProfit decimal.Decimal
}

// NewResultsUpdater creates a results updater.
func NewResultsUpdater(provider datasource.OddsProvider, store *csvstore.Store, leagues []config.LeagueConfig, daysFrom int, log *logrus.Logger) *ResultsUpdater {
	return &ResultsUpdater{
		provider: provider,
		store:    store,
		leagues:  leagues,
		daysFrom: daysFrom,
		log:      log,
		resLog:   logger.NewResultsLogger(log),
	}
}

// Sync settles every pending prediction whose fixture has finished. Rows
// with no matching completed score stay pending.
func (u *ResultsUpdater) Sync(ctx context.Context, now time.Time) (SyncSummary, error) {
	var summary SyncSummary

	rows, err := u.store.ReadMaster()
	if err != nil {
		return summary, err
	}
	if len(rows) == 0 {
		return summary, nil
	}

	// Only fixtures that kicked off long enough ago can have final scores.
	finishedBefore := now.Add(-2 * time.Hour)

	pendingKeys := map[string]bool{}
	for _, r := range rows {
		if r.Result == models.ResultPending && r.Match.Kickoff.Before(finishedBefore) {
			key := u.sportKeyFor(r.Match)
			if key != "" {
				pendingKeys[key] = true
			}
			summary.Pending++
		}
	}
	if summary.Pending == 0 {
		return summary, nil
	}

	scoresBySport := map[string][]models.Score{}
	for sportKey := range pendingKeys {
		scores, err := u.provider.Scores(ctx, sportKey, u.daysFrom)
		if err != nil {
			u.log.WithField("sport_key", sportKey).Warnf("Failed to fetch scores: %v", err)
			continue
		}
		scoresBySport[sportKey] = scores
	}

	for i := range rows {
		r := &rows[i]
		if r.Result != models.ResultPending || !r.Match.Kickoff.Before(finishedBefore) {
			continue
		}
		score, ok := findScore(r.Match, scoresBySport[u.sportKeyFor(r.Match)])
		if !ok {
			u.resLog.LogUnmatchedScore(r.Match.Display(), r.Match.League)
			continue
		}

		result, ok := Settle(r.Market, r.MarketName, score)
		if !ok {
			u.log.WithFields(logrus.Fields{
				"match":  r.Match.Display(),
				"market": r.MarketName,
			}).Warn("Cannot settle market with unknown selection")
			continue
		}

		profit := ProfitPerUnit(r.BestPrice, result)
		profitFloat := profit.InexactFloat64()
		r.Result = result
		r.Profit = &profitFloat

		summary.Settled++
		summary.TotalProfit = summary.TotalProfit.Add(profit)
		if result == models.ResultWon {
			summary.Won++
		} else {
			summary.Lost++
		}
		u.resLog.LogSettlement(r.Match.ID, r.Match.Display(), r.MarketName, string(result), profitFloat)
	}

	if summary.Settled > 0 {
		if err := u.store.WriteMaster(rows); err != nil {
			return summary, err
		}
	}

	u.resLog.LogSyncComplete(summary.Pending, summary.Settled, summary.Won, summary.Lost, summary.TotalProfit.InexactFloat64())
	return summary, nil
}

// sportKeyFor resolves the provider sport key for a row, preferring the
// stored key and falling back to the configured league name mapping.
func (u *ResultsUpdater) sportKeyFor(match models.Match) string {
	if match.SportKey != "" {
		return match.SportKey
	}
	for _, league := range u.leagues {
		if league.Name == match.League {
			return league.SportKey
		}
	}
	return ""
}

// Settle decides whether a selection won given the final score. The second
// return is false for selections this toolkit cannot interpret.
func Settle(market models.MarketType, marketName string, score models.Score) (models.BetResult, bool) {
	var won bool
	switch market {
	case models.MarketDoubleChance1X:
		won = score.HomeGoals >= score.AwayGoals
	case models.MarketDoubleChanceX2:
		won = score.AwayGoals >= score.HomeGoals
	case models.MarketMatchWinner1:
		won = score.HomeGoals > score.AwayGoals
	case models.MarketMatchWinnerX:
		won = score.HomeGoals == score.AwayGoals
	case models.MarketMatchWinner2:
		won = score.AwayGoals > score.HomeGoals
	case models.MarketTotals:
		fields := strings.Fields(marketName)
		if len(fields) < 2 {
			return models.ResultPending, false
		}
		point, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return models.ResultPending, false
		}
		total := float64(score.TotalGoals())
		switch fields[0] {
		case "Over":
			won = total > point
		case "Under":
			won = total < point
		default:
			return models.ResultPending, false
		}
	case models.MarketBTTS:
		switch marketName {
		case "Yes":
			won = score.HomeGoals > 0 && score.AwayGoals > 0
		case "No":
			won = score.HomeGoals == 0 || score.AwayGoals == 0
		default:
			return models.ResultPending, false
		}
	default:
		return models.ResultPending, false
	}

	if won {
		return models.ResultWon, true
	}
	return models.ResultLost, true
}

// ProfitPerUnit is the per-unit-stake return of a settled bet: price-1 on
// a win, -1 on a loss.
func ProfitPerUnit(price float64, result models.BetResult) decimal.Decimal {
	if result == models.ResultWon {
		return decimal.NewFromFloat(price).Sub(decimal.NewFromInt(1))
	}
	return decimal.NewFromInt(-1)
}

// findScore matches a fixture against the completed scores by normalized
// team names, with a substring fallback for provider naming drift
// ("FC Barcelona" vs "Barcelona").
func findScore(match models.Match, scores []models.Score) (models.Score, bool) {
	home := normalizeTeam(match.HomeTeam)
	away := normalizeTeam(match.AwayTeam)

	for _, s := range scores {
		if normalizeTeam(s.HomeTeam) == home && normalizeTeam(s.AwayTeam) == away {
			return s, true
		}
	}
	for _, s := range scores {
		sh, sa := normalizeTeam(s.HomeTeam), normalizeTeam(s.AwayTeam)
		if (strings.Contains(sh, home) || strings.Contains(home, sh)) &&
			(strings.Contains(sa, away) || strings.Contains(away, sa)) {
			return s, true
		}
	}
	return models.Score{}, false
}

var accentStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeTeam lowercases, strips accents and collapses whitespace.
func normalizeTeam(name string) string {
	stripped, _, err := transform.String(accentStripper, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}
