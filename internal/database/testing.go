package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/oddslab/internal/config"
)

// SetupTestDB connects to the archive database named by ODDSLAB_TEST_DSN
// settings in the test config. Tests calling this skip when no archive is
// configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv("ODDSLAB_TEST_CONFIG")
	if path == "" {
		t.Skip("ODDSLAB_TEST_CONFIG not set, skipping archive test")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}
	if !cfg.Database.Enabled {
		t.Skip("archive database disabled in test config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	return db
}

// TeardownTestDB closes the connection pool.
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}
