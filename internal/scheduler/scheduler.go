// Package scheduler runs the recurring scan and results jobs on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a schedulable unit of work. The context carries the job timeout.
type Job func(ctx context.Context) error

// Scheduler manages the recurring market scan and results sync jobs.
// All schedules run in UTC.
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a stopped scheduler with no jobs.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleScan runs the market scan every intervalSeconds. Intervals under
// 60s are raised to 60s; a scan burns one API request per fixture.
func (s *Scheduler) ScheduleScan(intervalSeconds int, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if intervalSeconds < 60 {
		intervalSeconds = 60
	}

	timeout := time.Duration(intervalSeconds) * time.Second
	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), s.wrap("scan", timeout, job))
	if err != nil {
		return fmt.Errorf("failed to schedule scan job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval_seconds", intervalSeconds).Info("Scheduled market scan")
	return nil
}

// ScheduleResultsSync runs the results reconciliation on a cron expression,
// typically once daily after the evening fixtures finish.
func (s *Scheduler) ScheduleResultsSync(cronExpression string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.wrap("results_sync", 15*time.Minute, job))
	if err != nil {
		return fmt.Errorf("failed to schedule results sync job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled results sync")
	return nil
}

// wrap gives each run a timeout and logs failures instead of propagating
// them; one bad run must not kill the daemon.
func (s *Scheduler) wrap(name string, timeout time.Duration, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.WithError(err).WithField("job", name).Error("Scheduled job failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"job":     name,
			"elapsed": time.Since(start).Round(time.Millisecond).String(),
		}).Info("Scheduled job complete")
	}
}

// Start starts the cron loop. At least one job must be scheduled.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish, up to the graceful timeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning reports whether the cron loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the earliest upcoming job time, zero when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	var next time.Time
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if !entry.Valid() {
			continue
		}
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}

// Entries returns the scheduled cron entries.
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, id := range s.jobIDs {
		if entry := s.cron.Entry(id); entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}
