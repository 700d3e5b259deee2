package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/oddslab/internal/database"
	"github.com/yourusername/oddslab/internal/models"
)

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository creates a new run repository
func NewPostgresRunRepository(db *database.DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

// Create inserts a scan run summary.
func (r *PostgresRunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO analysis_runs (id, started_at, finished_at, matches_scanned, matches_quoted, markets_found)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt,
		run.MatchesScanned, run.MatchesQuoted, run.MarketsFound,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}
	return nil
}

// Latest returns the most recently started run.
func (r *PostgresRunRepository) Latest(ctx context.Context) (*models.AnalysisRun, error) {
	query := `
		SELECT id, started_at, finished_at, matches_scanned, matches_quoted, markets_found
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	run := &models.AnalysisRun{}
	err := r.db.GetPool().QueryRow(ctx, query).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt,
		&run.MatchesScanned, &run.MatchesQuoted, &run.MarketsFound,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}
