// Package logger provides scan trail logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ScanLogger provides dedicated logging for odds-scan cycles.
type ScanLogger struct {
	*logrus.Entry
}

// NewScanLogger creates a new scan logger.
func NewScanLogger(baseLogger *logrus.Logger) *ScanLogger {
	return &ScanLogger{
		Entry: baseLogger.WithField("component", "scan"),
	}
}

// LogScanStart logs the beginning of a scan cycle.
func (sl *ScanLogger) LogScanStart(leagues []string, hoursAhead int, markets []string) {
	sl.WithFields(logrus.Fields{
		"leagues":     leagues,
		"hours_ahead": hoursAhead,
		"markets":     markets,
	}).Info("Odds scan started")
}

// LogMatchAnalyzed logs one scored match.
func (sl *ScanLogger) LogMatchAnalyzed(matchID, match, market string, scoreFinal *float64, bdi *float64, bookmakers int) {
	fields := logrus.Fields{
		"match_id":   matchID,
		"match":      match,
		"market":     market,
		"bookmakers": bookmakers,
	}
	if scoreFinal != nil {
		fields["score_final"] = *scoreFinal
	}
	if bdi != nil {
		fields["bdi_jsd"] = *bdi
	}
	sl.WithFields(fields).Debug("Match analyzed")
}

// LogScanComplete logs the end of a scan cycle.
func (sl *ScanLogger) LogScanComplete(matches, analyzed, skipped int, elapsed time.Duration) {
	sl.WithFields(logrus.Fields{
		"matches":    matches,
		"analyzed":   analyzed,
		"skipped":    skipped,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("Odds scan complete")
}

// LogQuotaRemaining logs the API credit budget reported by the provider.
func (sl *ScanLogger) LogQuotaRemaining(remaining, used int) {
	entry := sl.WithFields(logrus.Fields{
		"requests_remaining": remaining,
		"requests_used":      used,
	})
	if remaining >= 0 && remaining < 50 {
		entry.Warn("API quota running low")
		return
	}
	entry.Debug("API quota checked")
}
