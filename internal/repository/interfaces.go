// Package repository provides Postgres persistence for the optional
// prediction archive.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/oddslab/internal/models"
)

// PredictionRepository persists analysis selections and their settlement.
type PredictionRepository interface {
	// Upsert stores selections keyed by match, market, selection and
	// bookmaker. Settled rows are never downgraded to pending.
	Upsert(ctx context.Context, results []models.AnalysisResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error)
	ListPending(ctx context.Context, before time.Time) ([]models.AnalysisResult, error)
	ListSettled(ctx context.Context) ([]models.AnalysisResult, error)
	Settle(ctx context.Context, matchID string, market models.MarketType, marketName, bookmaker string, result models.BetResult, profit float64) error
}

// RunRepository persists scan run summaries.
type RunRepository interface {
	Create(ctx context.Context, run *models.AnalysisRun) error
	Latest(ctx context.Context) (*models.AnalysisRun, error)
}
