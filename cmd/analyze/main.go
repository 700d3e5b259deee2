// Package main provides the one-shot market scan CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/oddslab/internal/config"
	"github.com/yourusername/oddslab/internal/csvstore"
	"github.com/yourusername/oddslab/internal/database"
	"github.com/yourusername/oddslab/internal/datasource"
	"github.com/yourusername/oddslab/internal/logger"
	"github.com/yourusername/oddslab/internal/models"
	"github.com/yourusername/oddslab/internal/oddsapi"
	"github.com/yourusername/oddslab/internal/reporter"
	"github.com/yourusername/oddslab/internal/repository"
	"github.com/yourusername/oddslab/internal/service"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

var (
	configFile string
	topN       int
	skipCSV    bool

	cfg    *config.Config
	appLog *logrus.Logger
)

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().IntVar(&topN, "top", 0, "Print only the top N selections (0 = all)")
	rootCmd.Flags().BoolVar(&skipCSV, "no-csv", false, "Skip writing CSV output")
}

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Scan upcoming fixtures and rank market selections",
	Long:  `Fetches odds for the configured leagues, computes margin, volatility and bookmaker disagreement metrics per market, and ranks the selections.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configFile)
		if err != nil {
			return err
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context())
	},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newProvider(cfg *config.Config, appLog *logrus.Logger) (*oddsapi.Client, error) {
	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.OddsAPI.APITimeout()
	httpCfg.MaxRetries = cfg.OddsAPI.MaxRetries
	httpCfg.RateLimit = cfg.OddsAPI.RateLimitPerSecond
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, appLog)

	return oddsapi.NewClient(httpClient, cfg.OddsAPI.APIKey, oddsapi.Options{
		BaseURL:        cfg.OddsAPI.BaseURL,
		Regions:        cfg.OddsAPI.Regions,
		Bookmakers:     cfg.OddsAPI.Bookmakers,
		ScoresCacheTTL: cfg.OddsAPI.ScoresCacheTTL(),
	}, appLog)
}

func runScan(ctx context.Context) error {
	provider, err := newProvider(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to create odds client: %w", err)
	}

	analyzer := service.NewAnalyzer(provider, cfg.Analysis, cfg.OddsAPI.Leagues, appLog)

	results, run, err := analyzer.AnalyzeAll(ctx)
	if errors.Is(err, models.ErrNoMatches) {
		fmt.Println("No fixtures inside the scan window.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	location, err := time.LoadLocation(cfg.Output.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	console := reporter.NewConsoleReporter(os.Stdout, location)
	console.PrintAnalysis(results, topN)
	console.PrintRunSummary(run)

	if !skipCSV {
		store, err := csvstore.NewStore(cfg.Output.Dir, location, appLog)
		if err != nil {
			return fmt.Errorf("failed to open output directory: %w", err)
		}
		path, err := store.WriteAnalysis(results, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to write analysis CSV: %w", err)
		}
		merged, err := store.MergeIntoMaster(results)
		if err != nil {
			return fmt.Errorf("failed to update master dataset: %w", err)
		}
		fmt.Printf("Wrote %s, %d new rows in master dataset\n", path, merged)
	}

	if cfg.Database.Enabled {
		if err := archiveResults(ctx, results, &run); err != nil {
			// The CSV output already has everything; the archive is a replica.
			appLog.WithError(err).Warn("Failed to archive scan to Postgres")
		}
	}
	return nil
}

func archiveResults(ctx context.Context, results []models.AnalysisResult, run *models.AnalysisRun) error {
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}
	if err := repos.Prediction.Upsert(ctx, results); err != nil {
		return err
	}
	return repos.Run.Create(ctx, run)
}
