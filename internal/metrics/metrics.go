// Package metrics provides the centralized Prometheus registry for the
// odds research toolkit.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oddslab",
		Name:      "scans_total",
		Help:      "Total number of market scans executed",
	})
	ScanErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oddslab",
		Name:      "scan_errors_total",
		Help:      "Total number of market scans that failed",
	})
	MatchesAnalyzedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oddslab",
		Name:      "matches_analyzed_total",
		Help:      "Total number of fixtures with at least one quoted market",
	})
	SelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oddslab",
		Name:      "selections_total",
		Help:      "Total number of market selections produced per market type",
	}, []string{"market"})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oddslab",
		Name:      "api_requests_total",
		Help:      "Total number of odds API requests per outcome",
	}, []string{"status"})
	BetsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oddslab",
		Name:      "bets_settled_total",
		Help:      "Total number of predictions settled per result",
	}, []string{"result"})
)

// Gauge metrics
var (
	APIQuotaRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oddslab",
		Name:      "api_quota_remaining",
		Help:      "Requests remaining on the odds API monthly quota",
	})
	PendingPredictions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oddslab",
		Name:      "pending_predictions",
		Help:      "Number of unsettled predictions in the master dataset",
	})
	CumulativeProfit = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oddslab",
		Name:      "cumulative_profit_units",
		Help:      "Cumulative settled profit in flat stake units",
	})
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oddslab",
		Name:      "stream_clients",
		Help:      "Number of connected websocket stream clients",
	})
)

// Histogram metrics
var (
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oddslab",
		Name:      "scan_duration_seconds",
		Help:      "Duration of full market scans in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
	APIRequestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oddslab",
		Name:      "api_request_latency_seconds",
		Help:      "Latency of odds API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	DisagreementScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oddslab",
		Name:      "bdi_jsd",
		Help:      "Bookmaker disagreement index (mean JSD) per selection",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ScansTotal)
		registry.MustRegister(ScanErrorsTotal)
		registry.MustRegister(MatchesAnalyzedTotal)
		registry.MustRegister(SelectionsTotal)
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(BetsSettledTotal)

		registry.MustRegister(APIQuotaRemaining)
		registry.MustRegister(PendingPredictions)
		registry.MustRegister(CumulativeProfit)
		registry.MustRegister(StreamClients)

		registry.MustRegister(ScanDuration)
		registry.MustRegister(APIRequestLatency)
		registry.MustRegister(DisagreementScore)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordScan records one completed scan and its duration.
func RecordScan(durationSeconds float64) {
	ScansTotal.Inc()
	ScanDuration.Observe(durationSeconds)
}

// RecordScanError records a failed scan.
func RecordScanError() {
	ScanErrorsTotal.Inc()
}

// RecordMatchAnalyzed records a fixture that produced selections.
func RecordMatchAnalyzed() {
	MatchesAnalyzedTotal.Inc()
}

// RecordSelection records a produced selection for a market type.
func RecordSelection(market string) {
	SelectionsTotal.WithLabelValues(market).Inc()
}

// RecordAPIRequest records an odds API request outcome and latency.
func RecordAPIRequest(status string, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(status).Inc()
	APIRequestLatency.Observe(durationSeconds)
}

// ObserveDisagreement records one selection's disagreement score.
func ObserveDisagreement(jsd float64) {
	DisagreementScore.Observe(jsd)
}

// RecordSettlement records a settled prediction by result.
func RecordSettlement(result string) {
	BetsSettledTotal.WithLabelValues(result).Inc()
}

// UpdateQuota updates the remaining API quota gauge. Negative values mean
// the quota is not yet known and are skipped.
func UpdateQuota(remaining int) {
	if remaining < 0 {
		return
	}
	APIQuotaRemaining.Set(float64(remaining))
}

// UpdatePendingPredictions updates the unsettled prediction count.
func UpdatePendingPredictions(count int) {
	PendingPredictions.Set(float64(count))
}

// UpdateCumulativeProfit updates the settled profit gauge.
func UpdateCumulativeProfit(units float64) {
	CumulativeProfit.Set(units)
}

// UpdateStreamClients updates the connected websocket client count.
func UpdateStreamClients(count int) {
	StreamClients.Set(float64(count))
}
