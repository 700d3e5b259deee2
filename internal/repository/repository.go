package repository

import (
	"fmt"

	"github.com/yourusername/oddslab/internal/database"
)

// Repositories holds all archive repository implementations
type Repositories struct {
	Prediction PredictionRepository
	Run        RunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Prediction: NewPostgresPredictionRepository(db),
		Run:        NewPostgresRunRepository(db),
	}, nil
}
