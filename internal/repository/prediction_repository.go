package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/oddslab/internal/database"
	"github.com/yourusername/oddslab/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

const predictionColumns = `
	id, match_id, home_team, away_team, league, country, sport_key, kickoff,
	market_type, market_name, bookmaker, best_price, num_bookmakers,
	bookmaker_margin_pct, avg_market_margin_pct, avg_market_price,
	volatility_pct, bdi_jsd, bdi_n_bookmakers, bdi_std_p, bdi_mad_p,
	all_quotes, result, profit`

// Queries embed the result state literals from the models constants so the
// SQL can never drift from the values the repository actually writes.
var (
	upsertPredictionQuery = fmt.Sprintf(`
		INSERT INTO predictions (`+predictionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (match_id, market_type, market_name, bookmaker) DO UPDATE SET
			best_price = EXCLUDED.best_price,
			num_bookmakers = EXCLUDED.num_bookmakers,
			bookmaker_margin_pct = EXCLUDED.bookmaker_margin_pct,
			avg_market_margin_pct = EXCLUDED.avg_market_margin_pct,
			avg_market_price = EXCLUDED.avg_market_price,
			volatility_pct = EXCLUDED.volatility_pct,
			bdi_jsd = EXCLUDED.bdi_jsd,
			bdi_n_bookmakers = EXCLUDED.bdi_n_bookmakers,
			bdi_std_p = EXCLUDED.bdi_std_p,
			bdi_mad_p = EXCLUDED.bdi_mad_p,
			all_quotes = EXCLUDED.all_quotes,
			updated_at = now()
		WHERE predictions.result = '%s'
	`, models.ResultPending)

	listPendingQuery = fmt.Sprintf(`
		SELECT `+predictionColumns+`
		FROM predictions
		WHERE result = '%s' AND kickoff < $1
		ORDER BY kickoff
	`, models.ResultPending)

	listSettledQuery = fmt.Sprintf(`
		SELECT `+predictionColumns+`
		FROM predictions
		WHERE result IN ('%s', '%s')
		ORDER BY kickoff
	`, models.ResultWon, models.ResultLost)

	settlePredictionQuery = fmt.Sprintf(`
		UPDATE predictions
		SET result = $5, profit = $6, updated_at = now()
		WHERE match_id = $1 AND market_type = $2 AND market_name = $3 AND bookmaker = $4
		  AND result = '%s'
	`, models.ResultPending)
)

// Upsert stores selections keyed on their dedupe identity. A conflicting
// pending row is refreshed with the new quote; a settled row is left alone.
// The whole batch commits or rolls back as one transaction.
func (p *PostgresPredictionRepository) Upsert(ctx context.Context, results []models.AnalysisResult) error {
	return p.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, r := range results {
			id := r.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			_, err := tx.Exec(ctx, upsertPredictionQuery,
				id, r.Match.ID, r.Match.HomeTeam, r.Match.AwayTeam, r.Match.League,
				r.Match.Country, r.Match.SportKey, r.Match.Kickoff,
				string(r.Market), r.MarketName, r.Bookmaker, r.BestPrice, r.NumBookmakers,
				r.BookmakerMarginPct, r.AvgMarketMarginPct, r.AvgMarketPrice,
				r.VolatilityPct, r.BDIJSD, r.BDINBookmakers, r.BDIStdP, r.BDIMADP,
				r.AllQuotes, string(r.Result), r.Profit,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert prediction %s/%s: %w", r.Match.ID, r.MarketName, err)
			}
		}
		return nil
	})
}

// GetByID retrieves a prediction by its archive ID.
func (p *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	r, err := scanPrediction(p.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return r, nil
}

// ListPending retrieves unsettled predictions with kickoff before the cutoff.
func (p *PostgresPredictionRepository) ListPending(ctx context.Context, before time.Time) ([]models.AnalysisResult, error) {
	return p.list(ctx, listPendingQuery, before)
}

// ListSettled retrieves all settled predictions ordered by kickoff.
func (p *PostgresPredictionRepository) ListSettled(ctx context.Context) ([]models.AnalysisResult, error) {
	return p.list(ctx, listSettledQuery)
}

// Settle records the outcome of one prediction.
func (p *PostgresPredictionRepository) Settle(ctx context.Context, matchID string, market models.MarketType, marketName, bookmaker string, result models.BetResult, profit float64) error {
	tag, err := p.db.GetPool().Exec(ctx, settlePredictionQuery, matchID, string(market), marketName, bookmaker, string(result), profit)
	if err != nil {
		return fmt.Errorf("failed to settle prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (p *PostgresPredictionRepository) list(ctx context.Context, query string, args ...any) ([]models.AnalysisResult, error) {
	rows, err := p.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var results []models.AnalysisResult
	for rows.Next() {
		r, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

func scanPrediction(row pgx.Row) (*models.AnalysisResult, error) {
	var (
		r          models.AnalysisResult
		marketType string
		result     string
	)
	err := row.Scan(
		&r.ID, &r.Match.ID, &r.Match.HomeTeam, &r.Match.AwayTeam, &r.Match.League,
		&r.Match.Country, &r.Match.SportKey, &r.Match.Kickoff,
		&marketType, &r.MarketName, &r.Bookmaker, &r.BestPrice, &r.NumBookmakers,
		&r.BookmakerMarginPct, &r.AvgMarketMarginPct, &r.AvgMarketPrice,
		&r.VolatilityPct, &r.BDIJSD, &r.BDINBookmakers, &r.BDIStdP, &r.BDIMADP,
		&r.AllQuotes, &result, &r.Profit,
	)
	if err != nil {
		return nil, err
	}
	r.Market = models.MarketType(marketType)
	r.Result = models.BetResult(result)
	if r.BestPrice > 0 {
		r.ImpliedProb = 1 / r.BestPrice
	}
	return &r, nil
}
