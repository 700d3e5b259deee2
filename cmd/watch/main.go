// Package main provides the watch daemon: scheduled scans, results syncs,
// metrics, health probes and the selection stream.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/config"
	"github.com/yourusername/oddslab/internal/csvstore"
	"github.com/yourusername/oddslab/internal/database"
	"github.com/yourusername/oddslab/internal/datasource"
	"github.com/yourusername/oddslab/internal/health"
	"github.com/yourusername/oddslab/internal/logger"
	"github.com/yourusername/oddslab/internal/metrics"
	"github.com/yourusername/oddslab/internal/models"
	"github.com/yourusername/oddslab/internal/oddsapi"
	"github.com/yourusername/oddslab/internal/repository"
	"github.com/yourusername/oddslab/internal/scheduler"
	"github.com/yourusername/oddslab/internal/service"
	"github.com/yourusername/oddslab/internal/stream"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

func main() {
	configPath := os.Getenv("ODDSLAB_CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		secretsCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := config.LoadSecretsFromAWS(secretsCtx, cfg, region, secretName); err != nil {
			cancel()
			log.Fatalf("Failed to load secrets: %v", err)
		}
		cancel()
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"version":     Version,
		"environment": cfg.App.Environment,
	}).Info("Watch daemon starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.InitRegistry()

	provider, err := buildProvider(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create odds client")
	}

	location, err := time.LoadLocation(cfg.Output.Timezone)
	if err != nil {
		appLog.WithError(err).Fatal("Invalid output timezone")
	}
	store, err := csvstore.NewStore(cfg.Output.Dir, location, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to open output directory")
	}

	var (
		db    *database.DB
		repos *repository.Repositories
	)
	if cfg.Database.Enabled {
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to archive database")
		}
		defer db.Close()
		repos, err = repository.NewRepositories(db)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to initialize repositories")
		}
		appLog.Info("Archive database connected")
	}

	var hub *stream.Hub
	if cfg.Stream.Enabled {
		hub = stream.NewHub(appLog)
		go hub.Run(ctx)
		streamSrv := stream.NewServer(hub, cfg.Stream.Port, appLog)
		if err := streamSrv.Start(ctx); err != nil {
			appLog.WithError(err).Fatal("Failed to start stream server")
		}
	}

	analyzer := service.NewAnalyzer(provider, cfg.Analysis, cfg.OddsAPI.Leagues, appLog)
	updater := service.NewResultsUpdater(provider, store, cfg.OddsAPI.Leagues, cfg.Results.DaysFrom, appLog)

	sched := scheduler.NewScheduler(appLog)
	scanJob := buildScanJob(analyzer, provider, store, repos, hub, appLog)
	if err := sched.ScheduleScan(cfg.Schedule.ScanIntervalSeconds, scanJob); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule scan")
	}
	resultsJob := buildResultsJob(updater, store, repos, appLog)
	if err := sched.ScheduleResultsSync(cfg.Schedule.ResultsSyncCron, resultsJob); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule results sync")
	}

	var healthSrv *health.Server
	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg, appLog)

		healthSrv = health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        cfg.Metrics.HealthPort,
			Logger:      appLog,
			DB:          dbPinger(db),
			Quota:       provider,
		})
		if err := healthSrv.Start(ctx); err != nil {
			appLog.WithError(err).Fatal("Failed to start health server")
		}
	}

	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	if healthSrv != nil {
		healthSrv.SetReady(true)
	}

	// Run the first scan immediately instead of waiting a full interval.
	go func() {
		scanCtx, scanCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer scanCancel()
		if err := scanJob(scanCtx); err != nil {
			appLog.WithError(err).Error("Initial scan failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig.String()).Info("Shutting down")

	if healthSrv != nil {
		healthSrv.SetReady(false)
	}
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Scheduler stop failed")
	}
	cancel()
	appLog.Info("Watch daemon stopped")
}

func buildProvider(cfg *config.Config, appLog *logrus.Logger) (*oddsapi.Client, error) {
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

// buildScanJob wires one scheduled scan: analyze, persist, archive, stream.
func buildScanJob(analyzer *service.Analyzer, provider datasource.OddsProvider, store *csvstore.Store, repos *repository.Repositories, hub *stream.Hub, appLog *logrus.Logger) scheduler.Job {
	return func(ctx context.Context) error {
		start := time.Now()

		results, run, err := analyzer.AnalyzeAll(ctx)
		if err != nil {
			if err == models.ErrNoMatches {
				appLog.Info("No fixtures inside the scan window")
				return nil
			}
			metrics.RecordScanError()
			return err
		}
		metrics.RecordScan(time.Since(start).Seconds())
		metrics.UpdateQuota(provider.RemainingQuota())
		for i := 0; i < run.MatchesQuoted; i++ {
			metrics.RecordMatchAnalyzed()
		}
		for _, r := range results {
			metrics.RecordSelection(string(r.Market))
			if r.BDIJSD != nil {
				metrics.ObserveDisagreement(*r.BDIJSD)
			}
		}

		if _, err := store.WriteAnalysis(results, time.Now().UTC()); err != nil {
			return err
		}
		if _, err := store.MergeIntoMaster(results); err != nil {
			return err
		}

		if repos != nil {
			if err := repos.Prediction.Upsert(ctx, results); err != nil {
				appLog.WithError(err).Warn("Failed to archive selections")
			}
			if err := repos.Run.Create(ctx, &run); err != nil {
				appLog.WithError(err).Warn("Failed to archive run summary")
			}
		}
		if hub != nil {
			hub.Broadcast(results)
		}
		return nil
	}
}

// buildResultsJob wires the scheduled settlement sync.
func buildResultsJob(updater *service.ResultsUpdater, store *csvstore.Store, repos *repository.Repositories, appLog *logrus.Logger) scheduler.Job {
	return func(ctx context.Context) error {
		summary, err := updater.Sync(ctx, time.Now().UTC())
		if err != nil {
			return err
		}

		for i := 0; i < summary.Won; i++ {
			metrics.RecordSettlement(string(models.ResultWon))
		}
		for i := 0; i < summary.Lost; i++ {
			metrics.RecordSettlement(string(models.ResultLost))
		}
		metrics.UpdatePendingPredictions(summary.Pending - summary.Settled)

		if repos != nil && summary.Settled > 0 {
			syncArchiveSettlements(ctx, store, repos, appLog)
		}
		return nil
	}
}

// syncArchiveSettlements mirrors freshly settled master rows into Postgres.
func syncArchiveSettlements(ctx context.Context, store *csvstore.Store, repos *repository.Repositories, appLog *logrus.Logger) {
	rows, err := store.ReadMaster()
	if err != nil {
		appLog.WithError(err).Warn("Failed to read master dataset for archive sync")
		return
	}

	var profit float64
	for _, r := range rows {
		if r.Result != models.ResultWon && r.Result != models.ResultLost {
			continue
		}
		if r.Profit != nil {
			profit += *r.Profit
		}
		err := repos.Prediction.Settle(ctx, r.Match.ID, r.Market, r.MarketName, r.Bookmaker, r.Result, deref(r.Profit))
		if err != nil && err != models.ErrNotFound {
			appLog.WithError(err).Warn("Failed to settle archived prediction")
		}
	}
	metrics.UpdateCumulativeProfit(profit)
}

func startMetricsServer(ctx context.Context, cfg *config.Config, appLog *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	srv := &http.Server{
		Addr:        ":" + strconv.Itoa(cfg.Metrics.Port),
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}
	go func() {
		appLog.WithField("addr", srv.Addr).Info("Metrics server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

// dbPinger adapts a possibly nil DB to the health check interface. A typed
// nil inside a non-nil interface would make the probe ping a dead pool.
func dbPinger(db *database.DB) health.DatabasePinger {
	if db == nil {
		return nil
	}
	return db
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
