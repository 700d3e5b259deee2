package database

import (
	"context"
	"fmt"

	"github.com/yourusername/oddslab/internal/config"
	"github.com/yourusername/oddslab/internal/models"
)

// Archive schema. Predictions are keyed by the same identity the CSV master
// dataset dedupes on, so repeated scans upsert instead of duplicating. The
// result default comes from the models constant the repositories write.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id UUID PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		matches_scanned INT NOT NULL,
		matches_quoted INT NOT NULL,
		markets_found INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS predictions (
		id UUID PRIMARY KEY,
		match_id TEXT NOT NULL,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		league TEXT NOT NULL,
		country TEXT NOT NULL,
		sport_key TEXT NOT NULL,
		kickoff TIMESTAMPTZ NOT NULL,
		market_type TEXT NOT NULL,
		market_name TEXT NOT NULL,
		bookmaker TEXT NOT NULL,
		best_price NUMERIC(8,3) NOT NULL,
		num_bookmakers INT NOT NULL,
		bookmaker_margin_pct DOUBLE PRECISION,
		avg_market_margin_pct DOUBLE PRECISION,
		avg_market_price DOUBLE PRECISION,
		volatility_pct DOUBLE PRECISION,
		bdi_jsd DOUBLE PRECISION,
		bdi_n_bookmakers INT NOT NULL DEFAULT 0,
		bdi_std_p DOUBLE PRECISION,
		bdi_mad_p DOUBLE PRECISION,
		all_quotes TEXT NOT NULL DEFAULT '',
		result TEXT NOT NULL DEFAULT '%s',
		profit NUMERIC(10,4),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (match_id, market_type, market_name, bookmaker)
	)`, models.ResultPending),
	`CREATE INDEX IF NOT EXISTS idx_predictions_kickoff ON predictions (kickoff)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_result ON predictions (result)`,
}

// Initialize connects to the archive and ensures the schema exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply archive schema: %w", err)
		}
	}

	return db, nil
}
