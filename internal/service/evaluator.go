package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/models"
	"github.com/yourusername/oddslab/internal/stats"
)

// Feature columns used by the calibration model and the predictor screens.
var (
	evalNumFeatures = []string{
		"score_final",
		"volatility_pct",
		"bookmaker_margin_pct",
		"num_bookmakers",
		"avg_market_price",
		"price_advantage",
		"best_price",
		"bdi_jsd",
	}
	evalCatFeatures = []string{"market_type"}
)

// Evaluator runs the strategy evaluation battery over settled predictions:
// a chronological train/test split, a calibrated win-probability model and
// per-feature predictive screens.
type Evaluator struct {
	testFraction float64
	logisticCfg  stats.LogisticConfig
	log          *logrus.Logger
}

// Evaluation is the full output of one evaluation run.
type Evaluation struct {
	NumSettled int
	NumTrain   int
	NumTest    int

	Model        *stats.LogisticModel
	FeatureNames []string

	Train SplitMetrics
	Test  SplitMetrics

	Calibration []stats.CalibrationBin
	Screens     []stats.PredictorScreen

	// Predictions pairs each held-out row with its modeled win probability,
	// in chronological order.
	Predictions []RowPrediction
}

// RowPrediction is one held-out selection with its modeled probability.
type RowPrediction struct {
	Row  models.AnalysisResult
	Prob float64
}

// SplitMetrics are the classification metrics for one data split.
type SplitMetrics struct {
	AUC     float64
	LogLoss float64
	Brier   float64
	HitRate float64
	ROI     float64
}

// NewEvaluator creates an evaluator. testFraction is the chronological tail
// held out for testing; 0 falls back to 0.25.
func NewEvaluator(testFraction float64, log *logrus.Logger) *Evaluator {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.25
	}
	return &Evaluator{
		testFraction: testFraction,
		logisticCfg:  stats.DefaultLogisticConfig(),
		log:          log,
	}
}

// Evaluate runs the battery over the settled subset of rows. At least
// minSettled settled rows in each split are required.
func (e *Evaluator) Evaluate(rows []models.AnalysisResult) (*Evaluation, error) {
	const minSettled = 10

	settledRows := make([]models.AnalysisResult, 0, len(rows))
	for _, r := range rows {
		if r.Result == models.ResultWon || r.Result == models.ResultLost {
			settledRows = append(settledRows, r)
		}
	}
	if len(settledRows) < 2*minSettled {
		return nil, fmt.Errorf("need at least %d settled predictions, have %d", 2*minSettled, len(settledRows))
	}

	// Chronological split: the model never trains on the future.
	sort.SliceStable(settledRows, func(i, j int) bool {
		return settledRows[i].Match.Kickoff.Before(settledRows[j].Match.Kickoff)
	})
	cut := int(math.Floor(float64(len(settledRows)) * (1.0 - e.testFraction)))
	trainRows, testRows := settledRows[:cut], settledRows[cut:]
	if len(trainRows) < minSettled || len(testRows) < minSettled {
		return nil, fmt.Errorf("split too thin: %d train / %d test", len(trainRows), len(testRows))
	}

	trainSamples, trainLabels := toSamples(trainRows)
	testSamples, testLabels := toSamples(testRows)

	trainDesign, err := stats.BuildDesign(trainSamples, evalNumFeatures, evalCatFeatures, true, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build train design: %w", err)
	}
	testDesign, err := stats.BuildDesign(testSamples, evalNumFeatures, evalCatFeatures, false, trainDesign)
	if err != nil {
		return nil, fmt.Errorf("failed to build test design: %w", err)
	}

	model, err := stats.FitLogistic(trainDesign, trainLabels, e.logisticCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	trainProbs := model.Predict(trainDesign)
	testProbs := model.Predict(testDesign)

	ev := &Evaluation{
		NumSettled:   len(settledRows),
		NumTrain:     len(trainRows),
		NumTest:      len(testRows),
		Model:        model,
		FeatureNames: trainDesign.FeatureNames,
		Train:        splitMetrics(trainProbs, trainLabels, trainRows),
		Test:         splitMetrics(testProbs, testLabels, testRows),
		Calibration:  stats.CalibrationBins(testProbs, testLabels, 10),
		Screens:      e.screens(settledRows),
	}
	ev.Predictions = make([]RowPrediction, len(testRows))
	for i, r := range testRows {
		ev.Predictions[i] = RowPrediction{Row: r, Prob: testProbs[i]}
	}

	if e.log != nil {
		e.log.WithFields(logrus.Fields{
			"settled":      ev.NumSettled,
			"train":        ev.NumTrain,
			"test":         ev.NumTest,
			"test_auc":     ev.Test.AUC,
			"test_logloss": ev.Test.LogLoss,
		}).Info("Evaluation complete")
	}
	return ev, nil
}

// screens runs the per-feature predictive screens over all settled rows.
func (e *Evaluator) screens(rows []models.AnalysisResult) []stats.PredictorScreen {
	profit := make([]float64, len(rows))
	won := make([]int, len(rows))
	for i, r := range rows {
		profit[i] = profitOf(r)
		won[i] = labelOf(r)
	}

	screens := make([]stats.PredictorScreen, 0, len(evalNumFeatures))
	for _, name := range evalNumFeatures {
		feature := make([]float64, len(rows))
		for i, r := range rows {
			feature[i] = numericFeature(r, name)
		}
		screens = append(screens, stats.ScreenPredictor(name, feature, profit, won))
	}
	return screens
}

func splitMetrics(probs []float64, labels []int, rows []models.AnalysisResult) SplitMetrics {
	var wins int
	var profitSum float64
	for i, r := range rows {
		wins += labels[i]
		profitSum += profitOf(r)
	}
	m := SplitMetrics{
		AUC:     stats.AUC(probs, labels),
		LogLoss: stats.LogLoss(probs, labels),
		Brier:   stats.Brier(probs, labels),
	}
	if len(rows) > 0 {
		m.HitRate = float64(wins) / float64(len(rows))
		m.ROI = profitSum / float64(len(rows))
	}
	return m
}

// toSamples converts settled rows into model samples. Missing metrics map
// to NaN so the design matrix imputes them with the train median.
func toSamples(rows []models.AnalysisResult) ([]stats.Sample, []int) {
	samples := make([]stats.Sample, len(rows))
	labels := make([]int, len(rows))
	for i, r := range rows {
		numeric := make(map[string]float64, len(evalNumFeatures))
		for _, name := range evalNumFeatures {
			numeric[name] = numericFeature(r, name)
		}
		samples[i] = stats.Sample{
			Numeric:     numeric,
			Categorical: map[string]string{"market_type": string(r.Market)},
			Label:       labelOf(r),
		}
		labels[i] = samples[i].Label
	}
	return samples, labels
}

func numericFeature(r models.AnalysisResult, name string) float64 {
	switch name {
	case "score_final":
		return deref(r.ScoreFinal())
	case "volatility_pct":
		return deref(r.VolatilityPct)
	case "bookmaker_margin_pct":
		return deref(r.BookmakerMarginPct)
	case "num_bookmakers":
		return float64(r.NumBookmakers)
	case "avg_market_price":
		return deref(r.AvgMarketPrice)
	case "price_advantage":
		return deref(r.PriceAdvantage())
	case "best_price":
		return r.BestPrice
	case "bdi_jsd":
		return deref(r.BDIJSD)
	default:
		return math.NaN()
	}
}

func labelOf(r models.AnalysisResult) int {
	if r.Result == models.ResultWon {
		return 1
	}
	return 0
}

func profitOf(r models.AnalysisResult) float64 {
	if r.Profit != nil {
		return *r.Profit
	}
	return ProfitPerUnit(r.BestPrice, r.Result).InexactFloat64()
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
