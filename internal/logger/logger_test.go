package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("nonsense", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerProductionUsesJSON(t *testing.T) {
	log := NewLogger("info", "production")
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	log = NewLogger("info", "development")
	_, ok = log.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestScanLoggerStart(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	scanLogger.LogScanStart([]string{"La Liga"}, 48, []string{"1X", "TOTALS"})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scan", logEntry["component"])
	assert.Equal(t, float64(48), logEntry["hours_ahead"])
}

func TestScanLoggerMatchAnalyzed(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	score := 1.7
	scanLogger.LogMatchAnalyzed("evt1", "Betis vs Sevilla", "1X", &score, nil, 5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, 1.7, logEntry["score_final"])
	assert.NotContains(t, logEntry, "bdi_jsd")
}

func TestScanLoggerQuotaWarning(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	scanLogger.LogQuotaRemaining(12, 488)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, float64(12), logEntry["requests_remaining"])
}

func TestScanLoggerComplete(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	scanLogger.LogScanComplete(20, 17, 3, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(17), logEntry["analyzed"])
	assert.Equal(t, float64(1500), logEntry["elapsed_ms"])
}

func TestResultsLoggerSettlement(t *testing.T) {
	log, buf := setupTestLogger()
	resultsLogger := NewResultsLogger(log)

	resultsLogger.LogSettlement("evt1", "Betis vs Sevilla", "1X", "Won", 0.45)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "results", logEntry["component"])
	assert.Equal(t, "Won", logEntry["result"])
	assert.Equal(t, 0.45, logEntry["profit"])
}

func TestResultsLoggerSyncComplete(t *testing.T) {
	log, buf := setupTestLogger()
	resultsLogger := NewResultsLogger(log)

	resultsLogger.LogSyncComplete(10, 7, 4, 3, 0.8)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(7), logEntry["settled"])
}

func BenchmarkScanLoggerMatchAnalyzed(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	log.SetLevel(logrus.DebugLevel)
	scanLogger := NewScanLogger(log)

	score := 1.7
	bdi := 0.003
	for i := 0; i < b.N; i++ {
		scanLogger.LogMatchAnalyzed("evt1", "Betis vs Sevilla", "1X", &score, &bdi, 5)
	}
}
