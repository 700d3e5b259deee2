package oddsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddslab/internal/datasource"
	"github.com/yourusername/oddslab/internal/models"
)

func newTestClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	cfg := datasource.DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	httpClient := datasource.NewRateLimitedHTTPClient(cfg, nil)
	t.Cleanup(func() { httpClient.Close() })

	client, err := NewClient(httpClient, "test-key", Options{
		BaseURL:    srvURL,
		Regions:    "eu",
		Bookmakers: []string{"bet365", "pinnacle"},
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(nil, "", Options{}, nil)
	assert.ErrorIs(t, err, models.ErrMissingAPIKey)
}

func TestListEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/soccer_epl/events", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))

		w.Header().Set("x-requests-remaining", "480")
		_ = json.NewEncoder(w).Encode([]eventResponse{
			{
				ID:           "evt1",
				SportKey:     "soccer_epl",
				CommenceTime: "2026-08-29T14:00:00Z",
				HomeTeam:     "Arsenal",
				AwayTeam:     "Chelsea",
			},
			{
				ID:           "evt-bad",
				CommenceTime: "not-a-time",
				HomeTeam:     "X",
				AwayTeam:     "Y",
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	matches, err := client.ListEvents(context.Background(), "soccer_epl")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "evt1", matches[0].ID)
	assert.Equal(t, "Arsenal vs Chelsea", matches[0].Display())
	assert.Equal(t, "soccer_epl", matches[0].SportKey)
	assert.Equal(t, 480, client.RemainingQuota())
}

func oddsFixture() oddsResponse {
	point := 2.5
	return oddsResponse{
		ID:       "evt1",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Bookmakers: []bookmakerEntry{
			{
				Key: "bet365",
				Markets: []marketEntry{
					{
						Key:        "h2h",
						LastUpdate: "2026-08-29T10:00:00Z",
						Outcomes: []outcomeEntry{
							{Name: "Arsenal", Price: 2.0},
							{Name: "Draw", Price: 3.5},
							{Name: "Chelsea", Price: 3.8},
						},
					},
					{
						Key:        "totals",
						LastUpdate: "2026-08-29T10:00:00Z",
						Outcomes: []outcomeEntry{
							{Name: "Over", Price: 1.9, Point: &point},
							{Name: "Under", Price: 1.95, Point: &point},
						},
					},
				},
			},
			{
				// Not in the allowed bookmaker list, must be dropped.
				Key: "unknownbook",
				Markets: []marketEntry{
					{
						Key: "h2h",
						Outcomes: []outcomeEntry{
							{Name: "Arsenal", Price: 2.1},
							{Name: "Draw", Price: 3.4},
							{Name: "Chelsea", Price: 3.6},
						},
					},
				},
			},
		},
	}
}

func TestEventOdds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/soccer_epl/events/evt1/odds", r.URL.Path)
		assert.Equal(t, "h2h,totals", r.URL.Query().Get("markets"))
		_ = json.NewEncoder(w).Encode(oddsFixture())
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	match := models.Match{ID: "evt1", SportKey: "soccer_epl", HomeTeam: "Arsenal", AwayTeam: "Chelsea"}

	odds, err := client.EventOdds(context.Background(), match, []string{"1X", "X2", "TOTALS"})
	require.NoError(t, err)

	require.Len(t, odds.H2H, 1)
	assert.Equal(t, "bet365", odds.H2H[0].Bookmaker)

	// 1X = 1/(1/2.0 + 1/3.5)
	require.Len(t, odds.Odds1X, 1)
	assert.InDelta(t, 1.0/(1.0/2.0+1.0/3.5), odds.Odds1X[0].Price, 1e-12)

	// X2 = 1/(1/3.5 + 1/3.8)
	require.Len(t, odds.OddsX2, 1)
	assert.InDelta(t, 1.0/(1.0/3.5+1.0/3.8), odds.OddsX2[0].Price, 1e-12)

	require.Len(t, odds.Totals, 2)
	assert.Equal(t, "Over 2.5", odds.Totals[0].MarketName)
	assert.Equal(t, models.MarketTotals, odds.Totals[0].Market)
}

func TestEventOddsNotPublishedYet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	match := models.Match{ID: "evt1", SportKey: "soccer_epl"}

	odds, err := client.EventOdds(context.Background(), match, []string{"1X"})
	require.NoError(t, err)
	assert.False(t, odds.HasQuotes())
}

func TestEventOddsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	match := models.Match{ID: "evt1", SportKey: "soccer_epl"}

	_, err := client.EventOdds(context.Background(), match, []string{"1X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), datasource.ErrCodeAuthenticationFailed)
}

func TestScoresCaching(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v4/sports/soccer_epl/scores", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("daysFrom"))
		_ = json.NewEncoder(w).Encode([]scoreResponse{
			{
				HomeTeam:  "Arsenal",
				AwayTeam:  "Chelsea",
				Completed: true,
				Scores: []scoreEntry{
					{Name: "Arsenal", Score: "2"},
					{Name: "Chelsea", Score: "1"},
				},
			},
			{
				// In play, must be dropped.
				HomeTeam:  "Leeds",
				AwayTeam:  "Everton",
				Completed: false,
				Scores:    []scoreEntry{{Name: "Leeds", Score: "1"}},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	scores, err := client.Scores(context.Background(), "soccer_epl", 3)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 2, scores[0].HomeGoals)
	assert.Equal(t, 3, scores[0].TotalGoals())

	// Second call hits the cache.
	_, err = client.Scores(context.Background(), "soccer_epl", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestScoresQuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-requests-remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := datasource.DefaultHTTPClientConfig()
	cfg.MaxRetries = 1
	cfg.RateLimit = 1000
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	httpClient := datasource.NewRateLimitedHTTPClient(cfg, nil)
	defer httpClient.Close()

	client, err := NewClient(httpClient, "test-key", Options{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.Scores(context.Background(), "soccer_epl", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrQuotaExhausted)
	assert.Equal(t, 0, client.RemainingQuota())
}

func TestTranslateMarkets(t *testing.T) {
	assert.Equal(t, []string{"h2h", "totals"}, translateMarkets([]string{"1X", "X2", "TOTALS"}))
	assert.Equal(t, []string{"btts"}, translateMarkets([]string{"BTTS"}))
	// Unknown or empty input falls back to h2h.
	assert.Equal(t, []string{"h2h"}, translateMarkets(nil))
	assert.Equal(t, []string{"h2h"}, translateMarkets([]string{"CORNERS"}))
}
