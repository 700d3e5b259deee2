package csvstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddslab/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	store, err := NewStore(t.TempDir(), loc, nil)
	require.NoError(t, err)
	return store
}

func ptr(v float64) *float64 { return &v }

func sampleResult(matchID, marketName string) models.AnalysisResult {
	return models.AnalysisResult{
		Match: models.Match{
			ID:       matchID,
			HomeTeam: "Betis",
			AwayTeam: "Sevilla",
			League:   "La Liga",
			Country:  "Spain",
			Kickoff:  time.Date(2026, 8, 29, 19, 0, 0, 0, time.UTC),
			SportKey: "soccer_spain_la_liga",
		},
		Market:             models.MarketTotals,
		MarketName:         marketName,
		Bookmaker:          "bet365",
		BestPrice:          1.95,
		ImpliedProb:        1.0 / 1.95,
		NumBookmakers:      4,
		BookmakerMarginPct: ptr(5.2),
		AvgMarketMarginPct: ptr(6.1),
		AvgMarketPrice:     ptr(1.88),
		VolatilityPct:      ptr(2.4),
		BDIJSD:             ptr(0.0042),
		BDINBookmakers:     4,
		BDIStdP:            ptr(0.011),
		BDIMADP:            ptr(0.008),
		AllQuotes:          "bet365:1.95;pinnacle:1.90;williamhill:1.85",
		Result:             models.ResultPending,
	}
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	original := sampleResult("evt1", "Over 2.5")
	path, err := store.WriteAnalysis([]models.AnalysisResult{original}, time.Now())
	require.NoError(t, err)

	rows, err := store.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, original.Match.ID, got.Match.ID)
	assert.Equal(t, "Betis", got.Match.HomeTeam)
	assert.Equal(t, "Sevilla", got.Match.AwayTeam)
	assert.True(t, original.Match.Kickoff.Equal(got.Match.Kickoff))
	assert.Equal(t, original.Market, got.Market)
	assert.InDelta(t, original.BestPrice, got.BestPrice, 1e-12)
	require.NotNil(t, got.BDIJSD)
	assert.InDelta(t, *original.BDIJSD, *got.BDIJSD, 1e-12)
	assert.Equal(t, original.AllQuotes, got.AllQuotes)
	assert.Equal(t, models.ResultPending, got.Result)
	assert.Nil(t, got.Profit)
}

func TestMissingOptionalCellsStayNil(t *testing.T) {
	store := newTestStore(t)

	r := sampleResult("evt1", "Over 2.5")
	r.BDIJSD = nil
	r.BDIStdP = nil
	r.BDIMADP = nil
	r.VolatilityPct = nil

	path, err := store.WriteAnalysis([]models.AnalysisResult{r}, time.Now())
	require.NoError(t, err)

	rows, err := store.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].BDIJSD)
	assert.Nil(t, rows[0].VolatilityPct)
	// Scalar columns survive alongside the empty ones.
	assert.Equal(t, 4, rows[0].NumBookmakers)
}

func TestWriteAnalysisOrdersByScore(t *testing.T) {
	store := newTestStore(t)

	strong := sampleResult("evt1", "Over 2.5")
	strong.BookmakerMarginPct = ptr(2.0)
	strong.AvgMarketMarginPct = ptr(8.0)

	weak := sampleResult("evt2", "Over 2.5")
	weak.BookmakerMarginPct = ptr(6.0)
	weak.AvgMarketMarginPct = ptr(6.5)

	noScore := sampleResult("evt3", "Over 2.5")
	noScore.BookmakerMarginPct = nil

	path, err := store.WriteAnalysis([]models.AnalysisResult{noScore, weak, strong}, time.Now())
	require.NoError(t, err)

	rows, err := store.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "evt1", rows[0].Match.ID)
	assert.Equal(t, "evt2", rows[1].Match.ID)
	assert.Equal(t, "evt3", rows[2].Match.ID)
}

func TestParseQuotes(t *testing.T) {
	quotes := ParseQuotes("bet365:1.95; pinnacle:1.90;broken;alsobad:;williamhill:1.85")
	assert.Equal(t, map[string]float64{
		"bet365":      1.95,
		"pinnacle":    1.90,
		"williamhill": 1.85,
	}, quotes)

	assert.Empty(t, ParseQuotes(""))
}

func TestMergeIntoMaster(t *testing.T) {
	store := newTestStore(t)

	first := sampleResult("evt1", "Over 2.5")
	count, err := store.MergeIntoMaster([]models.AnalysisResult{first})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Same key with a fresher price replaces the pending row.
	updated := sampleResult("evt1", "Over 2.5")
	updated.BestPrice = 2.05
	other := sampleResult("evt2", "Under 2.5")

	count, err = store.MergeIntoMaster([]models.AnalysisResult{updated, other})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := store.ReadMaster()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		if r.Match.ID == "evt1" {
			assert.InDelta(t, 2.05, r.BestPrice, 1e-12)
		}
	}
}

func TestMergeIntoMasterPreservesSettledRows(t *testing.T) {
	store := newTestStore(t)

	won := sampleResult("evt1", "Over 2.5")
	won.Result = models.ResultWon
	won.Profit = ptr(0.95)
	_, err := store.MergeIntoMaster([]models.AnalysisResult{won})
	require.NoError(t, err)

	// A re-scan of the same selection must not reset the settled outcome.
	rescan := sampleResult("evt1", "Over 2.5")
	rescan.BestPrice = 2.10
	_, err = store.MergeIntoMaster([]models.AnalysisResult{rescan})
	require.NoError(t, err)

	rows, err := store.ReadMaster()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ResultWon, rows[0].Result)
	require.NotNil(t, rows[0].Profit)
	assert.InDelta(t, 0.95, *rows[0].Profit, 1e-12)
	assert.InDelta(t, 1.95, rows[0].BestPrice, 1e-12)
}

func TestReadMasterMissingFile(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.ReadMaster()
	require.NoError(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, filepath.Join(store.Dir(), MasterFilename), filepath.Join(store.Dir(), "master_dataset.csv"))
}

func TestRecomputeFairBDI(t *testing.T) {
	over := sampleResult("evt1", "Over 2.5")
	over.AllQuotes = "bet365:1.90;pinnacle:1.95;williamhill:2.00"
	under := sampleResult("evt1", "Under 2.5")
	under.AllQuotes = "bet365:1.90;pinnacle:1.85;williamhill:1.80"

	// Different threshold without a matching Under row: untouched.
	lonely := sampleResult("evt1", "Over 3.5")
	lonely.BDIJSD = nil

	rows := []models.AnalysisResult{over, under, lonely}
	updated := RecomputeFairBDI(rows)
	assert.Equal(t, 2, updated)

	require.NotNil(t, rows[0].BDIJSD)
	require.NotNil(t, rows[1].BDIJSD)
	assert.InDelta(t, *rows[0].BDIJSD, *rows[1].BDIJSD, 1e-15)
	assert.Equal(t, 3, rows[0].BDINBookmakers)
	assert.Greater(t, *rows[0].BDIJSD, 0.0)
	assert.Nil(t, rows[2].BDIJSD)
}

func TestRecomputeFairBDISkipsThinGroups(t *testing.T) {
	over := sampleResult("evt1", "Over 2.5")
	over.AllQuotes = "bet365:1.90"
	under := sampleResult("evt1", "Under 2.5")
	under.AllQuotes = "bet365:1.90"
	orig := *over.BDIJSD

	rows := []models.AnalysisResult{over, under}
	updated := RecomputeFairBDI(rows)
	assert.Equal(t, 0, updated)
	assert.InDelta(t, orig, *rows[0].BDIJSD, 1e-12)
}
