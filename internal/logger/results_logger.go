// Package logger provides results reconciliation logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ResultsLogger provides dedicated logging for outcome reconciliation runs.
type ResultsLogger struct {
	*logrus.Entry
}

// NewResultsLogger creates a new results logger.
func NewResultsLogger(baseLogger *logrus.Logger) *ResultsLogger {
	return &ResultsLogger{
		Entry: baseLogger.WithField("component", "results"),
	}
}

// LogSettlement logs one settled prediction.
func (rl *ResultsLogger) LogSettlement(matchID, match, market, result string, profit float64) {
	rl.WithFields(logrus.Fields{
		"match_id": matchID,
		"match":    match,
		"market":   market,
		"result":   result,
		"profit":   profit,
	}).Info("Prediction settled")
}

// LogUnmatchedScore logs a completed fixture that no pending prediction claims.
func (rl *ResultsLogger) LogUnmatchedScore(match, league string) {
	rl.WithFields(logrus.Fields{
		"match":  match,
		"league": league,
	}).Debug("Completed fixture had no pending prediction")
}

// LogSyncComplete logs the end of a reconciliation run.
func (rl *ResultsLogger) LogSyncComplete(pending, settled, won, lost int, totalProfit float64) {
	rl.WithFields(logrus.Fields{
		"pending":      pending,
		"settled":      settled,
		"won":          won,
		"lost":         lost,
		"total_profit": totalProfit,
	}).Info("Results sync complete")
}
