// Package main provides the results reconciliation CLI.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/config"
	"github.com/yourusername/oddslab/internal/csvstore"
	"github.com/yourusername/oddslab/internal/datasource"
	"github.com/yourusername/oddslab/internal/logger"
	"github.com/yourusername/oddslab/internal/oddsapi"
	"github.com/yourusername/oddslab/internal/reporter"
	"github.com/yourusername/oddslab/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		daysFrom   = flag.Int("days-from", 0, "Override how many days back to fetch scores (1-3)")
	)
	flag.Parse()

	appLog := logrus.New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg := loadConfigWithSecrets(ctx, *configPath, appLog)
	appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	days := cfg.Results.DaysFrom
	if *daysFrom > 0 {
		if *daysFrom > 3 {
			appLog.Fatalf("days-from must be between 1 and 3, got %d", *daysFrom)
		}
		days = *daysFrom
	}

	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.OddsAPI.APITimeout()
	httpCfg.MaxRetries = cfg.OddsAPI.MaxRetries
	httpCfg.RateLimit = cfg.OddsAPI.RateLimitPerSecond
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, appLog)

	provider, err := oddsapi.NewClient(httpClient, cfg.OddsAPI.APIKey, oddsapi.Options{
		BaseURL:        cfg.OddsAPI.BaseURL,
		Regions:        cfg.OddsAPI.Regions,
		Bookmakers:     cfg.OddsAPI.Bookmakers,
		ScoresCacheTTL: cfg.OddsAPI.ScoresCacheTTL(),
	}, appLog)
	if err != nil {
		appLog.Fatalf("Failed to create odds client: %v", err)
	}

	location, err := time.LoadLocation(cfg.Output.Timezone)
	if err != nil {
		appLog.Fatalf("Invalid timezone: %v", err)
	}
	store, err := csvstore.NewStore(cfg.Output.Dir, location, appLog)
	if err != nil {
		appLog.Fatalf("Failed to open output directory: %v", err)
	}

	updater := service.NewResultsUpdater(provider, store, cfg.OddsAPI.Leagues, days, appLog)
	summary, err := updater.Sync(ctx, time.Now().UTC())
	if err != nil {
		appLog.Fatalf("Results sync failed: %v", err)
	}

	reporter.NewConsoleReporter(os.Stdout, location).PrintSyncSummary(summary)
}

func loadConfigWithSecrets(ctx context.Context, path string, appLog *logrus.Logger) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		appLog.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			appLog.Fatal("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			appLog.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		appLog.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}
