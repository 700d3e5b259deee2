// Package oddsapi implements a client for The Odds API v4.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/datasource"
	"github.com/yourusername/oddslab/internal/models"
)

const providerName = "the-odds-api"

// Client fetches fixtures, prices and results from The Odds API. It
// implements datasource.OddsProvider. Completed scores are cached because
// the same league is queried once per pending prediction batch.
type Client struct {
	httpClient *datasource.RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	regions    string
	bookmakers map[string]bool
	scores     *gocache.Cache
	logger     *logrus.Logger

	// quota tracks the x-requests-remaining header from the last response,
	// -1 until the first request lands.
	quota atomic.Int64
}

// Options configures a Client beyond the required API key.
type Options struct {
	BaseURL        string
	Regions        string
	Bookmakers     []string
	ScoresCacheTTL time.Duration
}

// NewClient creates a new Odds API client.
func NewClient(httpClient *datasource.RateLimitedHTTPClient, apiKey string, opts Options, logger *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, models.ErrMissingAPIKey
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.the-odds-api.com"
	}
	if opts.Regions == "" {
		opts.Regions = "eu"
	}
	if opts.ScoresCacheTTL <= 0 {
		opts.ScoresCacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	allowed := make(map[string]bool, len(opts.Bookmakers))
	for _, b := range opts.Bookmakers {
		allowed[b] = true
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     apiKey,
		regions:    opts.Regions,
		bookmakers: allowed,
		scores:     gocache.New(opts.ScoresCacheTTL, 2*opts.ScoresCacheTTL),
		logger:     logger,
	}
	c.quota.Store(-1)
	return c, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return providerName }

// RemainingQuota returns the request budget reported by the last response,
// or -1 when no request has completed yet.
func (c *Client) RemainingQuota() int {
	return int(c.quota.Load())
}

// ListEvents retrieves upcoming fixtures for one competition.
func (c *Client) ListEvents(ctx context.Context, sportKey string) ([]models.Match, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("dateFormat", "iso")
	endpoint := fmt.Sprintf("%s/v4/sports/%s/events?%s", c.baseURL, sportKey, q.Encode())

	var events []eventResponse
	if err := c.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0, len(events))
	for _, ev := range events {
		kickoff, err := time.Parse(time.RFC3339, ev.CommenceTime)
		if err != nil {
			c.logger.WithField("event_id", ev.ID).Warnf("Skipping event with bad commence_time: %v", err)
			continue
		}
		matches = append(matches, models.Match{
			ID:       ev.ID,
			HomeTeam: ev.HomeTeam,
			AwayTeam: ev.AwayTeam,
			Kickoff:  kickoff,
			SportKey: sportKey,
		})
	}
	return matches, nil
}

// EventOdds retrieves every allowed bookmaker's prices for one fixture.
// Double-chance prices are derived from the 1X2 quote: 1X = 1/(1/home+1/draw),
// X2 = 1/(1/draw+1/away). A 404 means the market is not priced yet and
// yields empty odds, not an error.
func (c *Client) EventOdds(ctx context.Context, match models.Match, markets []string) (*models.MatchOdds, error) {
	apiMarkets := translateMarkets(markets)
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", c.regions)
	q.Set("markets", strings.Join(apiMarkets, ","))
	q.Set("oddsFormat", "decimal")
	q.Set("dateFormat", "iso")
	endpoint := fmt.Sprintf("%s/v4/sports/%s/events/%s/odds?%s", c.baseURL, match.SportKey, match.ID, q.Encode())

	odds := &models.MatchOdds{Match: match}

	var resp oddsResponse
	err := c.getJSON(ctx, endpoint, &resp)
	if err != nil {
		var perr datasource.ProviderError
		if isNotFound(err, &perr) {
			c.logger.WithField("match_id", match.ID).Debug("Odds not published yet")
			return odds, nil
		}
		return nil, err
	}

	for _, bm := range resp.Bookmakers {
		if len(c.bookmakers) > 0 && !c.bookmakers[bm.Key] {
			continue
		}
		for _, market := range bm.Markets {
			ts := parseUpdateTime(market.LastUpdate)
			switch market.Key {
			case "h2h":
				c.collectH2H(odds, bm.Key, market, resp.HomeTeam, resp.AwayTeam, ts)
			case "totals":
				for _, o := range market.Outcomes {
					name := o.Name
					if o.Point != nil {
						name = fmt.Sprintf("%s %.1f", o.Name, *o.Point)
					}
					odds.Totals = append(odds.Totals, models.OddsQuote{
						Bookmaker:  bm.Key,
						Market:     models.MarketTotals,
						MarketName: name,
						Price:      o.Price,
						Timestamp:  ts,
					})
				}
			case "btts":
				for _, o := range market.Outcomes {
					odds.BTTS = append(odds.BTTS, models.OddsQuote{
						Bookmaker:  bm.Key,
						Market:     models.MarketBTTS,
						MarketName: o.Name,
						Price:      o.Price,
						Timestamp:  ts,
					})
				}
			}
		}
	}

	return odds, nil
}

// collectH2H stores the full 1X2 quote and the derived double-chance prices.
func (c *Client) collectH2H(odds *models.MatchOdds, bookmaker string, market marketEntry, homeTeam, awayTeam string, ts time.Time) {
	var home, draw, away float64
	for _, o := range market.Outcomes {
		switch o.Name {
		case homeTeam:
			home = o.Price
		case awayTeam:
			away = o.Price
		case "Draw":
			draw = o.Price
		}
	}

	if home > 1 && draw > 1 && away > 1 {
		odds.H2H = append(odds.H2H, models.H2HOdds{
			Bookmaker: bookmaker,
			Home:      home,
			Draw:      draw,
			Away:      away,
			Timestamp: ts,
		})
	}

	if home > 1 && draw > 1 {
		odds.Odds1X = append(odds.Odds1X, models.OddsQuote{
			Bookmaker: bookmaker,
			Market:    models.MarketDoubleChance1X,
			Price:     1.0 / (1.0/home + 1.0/draw),
			Timestamp: ts,
		})
	}
	if draw > 1 && away > 1 {
		odds.OddsX2 = append(odds.OddsX2, models.OddsQuote{
			Bookmaker: bookmaker,
			Market:    models.MarketDoubleChanceX2,
			Price:     1.0 / (1.0/draw + 1.0/away),
			Timestamp: ts,
		})
	}
}

// Scores retrieves completed results for one competition going back daysFrom
// days. Responses are cached per sport key for the configured TTL.
func (c *Client) Scores(ctx context.Context, sportKey string, daysFrom int) ([]models.Score, error) {
	cacheKey := fmt.Sprintf("%s:%d", sportKey, daysFrom)
	if cached, ok := c.scores.Get(cacheKey); ok {
		return cached.([]models.Score), nil
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("daysFrom", strconv.Itoa(daysFrom))
	q.Set("dateFormat", "iso")
	endpoint := fmt.Sprintf("%s/v4/sports/%s/scores?%s", c.baseURL, sportKey, q.Encode())

	var events []scoreResponse
	if err := c.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}

	results := make([]models.Score, 0, len(events))
	for _, ev := range events {
		if !ev.Completed || len(ev.Scores) == 0 {
			continue
		}
		homeGoals, awayGoals := -1, -1
		for _, s := range ev.Scores {
			goals, err := strconv.Atoi(s.Score)
			if err != nil {
				continue
			}
			switch s.Name {
			case ev.HomeTeam:
				homeGoals = goals
			case ev.AwayTeam:
				awayGoals = goals
			}
		}
		if homeGoals < 0 || awayGoals < 0 {
			continue
		}
		results = append(results, models.Score{
			HomeTeam:  ev.HomeTeam,
			AwayTeam:  ev.AwayTeam,
			HomeGoals: homeGoals,
			AwayGoals: awayGoals,
			Completed: true,
		})
	}

	c.scores.SetDefault(cacheKey, results)
	return results, nil
}

// getJSON executes a GET, tracks quota headers and decodes the body.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return datasource.NewProviderError(providerName, datasource.ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		if n, err := strconv.Atoi(remaining); err == nil {
			c.quota.Store(int64(n))
		}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return datasource.NewProviderError(providerName, datasource.ErrCodeAuthenticationFailed, "invalid API key", nil)
	case http.StatusNotFound:
		return datasource.NewProviderError(providerName, datasource.ErrCodeNotFound, "resource not found", models.ErrNotFound)
	case http.StatusTooManyRequests:
		return datasource.NewProviderError(providerName, datasource.ErrCodeQuotaExhausted, "request quota exhausted", models.ErrQuotaExhausted)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return datasource.NewProviderError(providerName, datasource.ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return datasource.NewProviderError(providerName, datasource.ErrCodeInvalidData, "failed to parse response", err)
	}
	return nil
}

func isNotFound(err error, perr *datasource.ProviderError) bool {
	if pe, ok := err.(datasource.ProviderError); ok {
		*perr = pe
		return pe.Code == datasource.ErrCodeNotFound
	}
	return false
}

func parseUpdateTime(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return ts
}

// translateMarkets maps toolkit market names onto API market keys. The
// double-chance markets are derived from h2h, so they collapse into it.
func translateMarkets(markets []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(markets))
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	for _, m := range markets {
		switch m {
		case "1X", "X2", "H2H":
			add("h2h")
		case "TOTALS":
			add("totals")
		case "BTTS":
			add("btts")
		}
	}
	if len(out) == 0 {
		add("h2h")
	}
	return out
}
