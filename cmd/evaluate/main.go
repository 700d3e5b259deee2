// Package main provides the strategy evaluation CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/oddslab/internal/config"
	"github.com/yourusername/oddslab/internal/csvstore"
	"github.com/yourusername/oddslab/internal/database"
	"github.com/yourusername/oddslab/internal/logger"
	"github.com/yourusername/oddslab/internal/models"
	"github.com/yourusername/oddslab/internal/reporter"
	"github.com/yourusername/oddslab/internal/repository"
	"github.com/yourusername/oddslab/internal/service"
)

var (
	configFile   string
	testFraction float64
	fromArchive  bool

	cfg    *config.Config
	appLog *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().Float64Var(&testFraction, "test-fraction", 0.25, "Chronological tail held out for testing")
	rootCmd.Flags().BoolVar(&fromArchive, "from-archive", false, "Read settled predictions from Postgres instead of the CSV master dataset")
}

var rootCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the strategy evaluation battery over settled predictions",
	Long:  `Fits a calibrated win-probability model on a chronological split of settled predictions, screens every metric for predictive power and writes a markdown report.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluation(cmd.Context())
	},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runEvaluation(ctx context.Context) error {
	rows, err := loadRows(ctx)
	if err != nil {
		return err
	}

	ev, err := service.NewEvaluator(testFraction, appLog).Evaluate(rows)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	md, err := reporter.NewMarkdownReporter(cfg.Output.ReportDir, appLog)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	path, err := md.WriteEvaluation(ev, now)
	if err != nil {
		return err
	}
	calibrated, err := md.WriteCalibratedCSV(ev, now)
	if err != nil {
		return err
	}

	fmt.Printf("Evaluated %d settled predictions (train %d / test %d)\n", ev.NumSettled, ev.NumTrain, ev.NumTest)
	fmt.Printf("Test split: AUC %.3f, LogLoss %.4f, hit rate %.1f%%, ROI %+.4f units\n",
		ev.Test.AUC, ev.Test.LogLoss, ev.Test.HitRate*100, ev.Test.ROI)
	fmt.Printf("Report written to %s\nCalibrated predictions written to %s\n", path, calibrated)
	return nil
}

func loadRows(ctx context.Context) ([]models.AnalysisResult, error) {
	if fromArchive {
		if !cfg.Database.Enabled {
			return nil, fmt.Errorf("--from-archive requires database.enabled in the config")
		}
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to archive: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return nil, err
		}
		return repos.Prediction.ListSettled(ctx)
	}

	location, err := time.LoadLocation(cfg.Output.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	store, err := csvstore.NewStore(cfg.Output.Dir, location, appLog)
	if err != nil {
		return nil, err
	}
	rows, err := store.ReadMaster()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no master dataset yet, run analyze and update-results first")
	}
	return rows, nil
}
