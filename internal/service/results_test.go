package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddslab/internal/csvstore"
	"github.com/yourusername/oddslab/internal/models"
)

func TestSettle(t *testing.T) {
	tests := []struct {
		name       string
		market     models.MarketType
		marketName string
		score      models.Score
		want       models.BetResult
		ok         bool
	}{
		{"1X home win", models.MarketDoubleChance1X, "1X", models.Score{HomeGoals: 2, AwayGoals: 0}, models.ResultWon, true},
		{"1X draw", models.MarketDoubleChance1X, "1X", models.Score{HomeGoals: 1, AwayGoals: 1}, models.ResultWon, true},
		{"1X away win", models.MarketDoubleChance1X, "1X", models.Score{HomeGoals: 0, AwayGoals: 1}, models.ResultLost, true},
		{"X2 away win", models.MarketDoubleChanceX2, "X2", models.Score{HomeGoals: 0, AwayGoals: 3}, models.ResultWon, true},
		{"X2 home win", models.MarketDoubleChanceX2, "X2", models.Score{HomeGoals: 1, AwayGoals: 0}, models.ResultLost, true},
		{"1 home win", models.MarketMatchWinner1, "1", models.Score{HomeGoals: 2, AwayGoals: 0}, models.ResultWon, true},
		{"1 draw", models.MarketMatchWinner1, "1", models.Score{HomeGoals: 1, AwayGoals: 1}, models.ResultLost, true},
		{"X draw", models.MarketMatchWinnerX, "X", models.Score{HomeGoals: 0, AwayGoals: 0}, models.ResultWon, true},
		{"X home win", models.MarketMatchWinnerX, "X", models.Score{HomeGoals: 1, AwayGoals: 0}, models.ResultLost, true},
		{"2 away win", models.MarketMatchWinner2, "2", models.Score{HomeGoals: 0, AwayGoals: 1}, models.ResultWon, true},
		{"2 draw", models.MarketMatchWinner2, "2", models.Score{HomeGoals: 2, AwayGoals: 2}, models.ResultLost, true},
		{"over hit", models.MarketTotals, "Over 2.5", models.Score{HomeGoals: 2, AwayGoals: 1}, models.ResultWon, true},
		{"over miss", models.MarketTotals, "Over 2.5", models.Score{HomeGoals: 1, AwayGoals: 1}, models.ResultLost, true},
		{"under hit", models.MarketTotals, "Under 3.5", models.Score{HomeGoals: 1, AwayGoals: 1}, models.ResultWon, true},
		{"btts yes", models.MarketBTTS, "Yes", models.Score{HomeGoals: 1, AwayGoals: 2}, models.ResultWon, true},
		{"btts no", models.MarketBTTS, "No", models.Score{HomeGoals: 0, AwayGoals: 2}, models.ResultWon, true},
		{"bad totals name", models.MarketTotals, "Over", models.Score{}, models.ResultPending, false},
		{"bad btts name", models.MarketBTTS, "Maybe", models.Score{}, models.ResultPending, false},
		{"unknown market", models.MarketType("CORNERS"), "Over 9.5", models.Score{}, models.ResultPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Settle(tt.market, tt.marketName, tt.score)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestProfitPerUnit(t *testing.T) {
	assert.InDelta(t, 0.95, ProfitPerUnit(1.95, models.ResultWon).InexactFloat64(), 1e-12)
	assert.InDelta(t, -1.0, ProfitPerUnit(1.95, models.ResultLost).InexactFloat64(), 1e-12)
}

func TestNormalizeTeam(t *testing.T) {
	assert.Equal(t, "atletico madrid", normalizeTeam("Atlético  Madrid"))
	assert.Equal(t, "malmo ff", normalizeTeam("Malmö FF"))
	assert.Equal(t, "betis", normalizeTeam(" Betis "))
}

func TestFindScoreSubstringFallback(t *testing.T) {
	scores := []models.Score{
		{HomeTeam: "FC Barcelona", AwayTeam: "Real Madrid CF", HomeGoals: 2, AwayGoals: 2, Completed: true},
	}
	match := models.Match{HomeTeam: "Barcelona", AwayTeam: "Real Madrid"}

	s, ok := findScore(match, scores)
	require.True(t, ok)
	assert.Equal(t, 2, s.HomeGoals)

	_, ok = findScore(models.Match{HomeTeam: "Betis", AwayTeam: "Sevilla"}, scores)
	assert.False(t, ok)
}

func pendingRow(id, marketName string, market models.MarketType, price float64, kickoff time.Time) models.AnalysisResult {
	return models.AnalysisResult{
		Match: models.Match{
			ID:       id,
			HomeTeam: "Betis",
			AwayTeam: "Sevilla",
			League:   "La Liga",
			Kickoff:  kickoff,
			SportKey: "soccer_spain_la_liga",
		},
		Market:     market,
		MarketName: marketName,
		Bookmaker:  "bet365",
		BestPrice:  price,
		Result:     models.ResultPending,
	}
}

func TestSyncSettlesFinishedFixtures(t *testing.T) {
	store, err := csvstore.NewStore(t.TempDir(), time.UTC, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	finished := now.Add(-6 * time.Hour)
	upcoming := now.Add(6 * time.Hour)

	rows := []models.AnalysisResult{
		pendingRow("evt1", "1X", models.MarketDoubleChance1X, 1.30, finished),
		pendingRow("evt1", "Over 2.5", models.MarketTotals, 1.95, finished),
		pendingRow("evt2", "1X", models.MarketDoubleChance1X, 1.40, upcoming),
	}
	_, err = store.MergeIntoMaster(rows)
	require.NoError(t, err)

	provider := &fakeProvider{
		scores: map[string][]models.Score{
			"soccer_spain_la_liga": {
				{HomeTeam: "Betis", AwayTeam: "Sevilla", HomeGoals: 2, AwayGoals: 1, Completed: true},
			},
		},
	}
	updater := NewResultsUpdater(provider, store, testLeagues(), 3, quietLogger())

	summary, err := updater.Sync(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, 2, summary.Settled)
	assert.Equal(t, 2, summary.Won)
	assert.Equal(t, 0, summary.Lost)
	// 0.30 + 0.95 with exact decimal arithmetic.
	assert.InDelta(t, 1.25, summary.TotalProfit.InexactFloat64(), 1e-12)

	stored, err := store.ReadMaster()
	require.NoError(t, err)
	for _, r := range stored {
		if r.Match.ID == "evt1" {
			assert.Equal(t, models.ResultWon, r.Result)
			require.NotNil(t, r.Profit)
		} else {
			assert.Equal(t, models.ResultPending, r.Result)
			assert.Nil(t, r.Profit)
		}
	}
}

func TestSyncLeavesUnmatchedPending(t *testing.T) {
	store, err := csvstore.NewStore(t.TempDir(), time.UTC, nil)
	require.NoError(t, err)

	finished := time.Now().UTC().Add(-6 * time.Hour)
	_, err = store.MergeIntoMaster([]models.AnalysisResult{
		pendingRow("evt1", "1X", models.MarketDoubleChance1X, 1.30, finished),
	})
	require.NoError(t, err)

	// The provider has scores only for other fixtures.
	provider := &fakeProvider{
		scores: map[string][]models.Score{
			"soccer_spain_la_liga": {
				{HomeTeam: "Girona", AwayTeam: "Valencia", HomeGoals: 1, AwayGoals: 0, Completed: true},
			},
		},
	}
	updater := NewResultsUpdater(provider, store, testLeagues(), 3, quietLogger())

	summary, err := updater.Sync(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 0, summary.Settled)

	stored, err := store.ReadMaster()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.ResultPending, stored[0].Result)
}

func TestSyncEmptyMaster(t *testing.T) {
	store, err := csvstore.NewStore(t.TempDir(), time.UTC, nil)
	require.NoError(t, err)

	updater := NewResultsUpdater(&fakeProvider{}, store, testLeagues(), 3, quietLogger())
	summary, err := updater.Sync(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, summary.Pending)
}
