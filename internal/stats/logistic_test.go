package stats

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeparableSamples(n int) ([]Sample, []int) {
	samples := make([]Sample, 0, n)
	labels := make([]int, 0, n)
	for i := 0; i < n; i++ {
		// Feature x cleanly separates the classes; the market category
		// carries no signal.
		label := 0
		x := float64(i%10) - 6.0
		if i%2 == 0 {
			label = 1
			x = float64(i%10) + 2.0
		}
		market := "1X"
		if i%3 == 0 {
			market = "TOTALS"
		}
		samples = append(samples, Sample{
			Numeric:     map[string]float64{"score_final": x, "volatility": float64(i % 5)},
			Categorical: map[string]string{"market_type": market},
			Label:       label,
		})
		labels = append(labels, label)
	}
	return samples, labels
}

func TestBuildDesignStandardizes(t *testing.T) {
	samples, _ := makeSeparableSamples(200)
	d, err := BuildDesign(samples, []string{"score_final", "volatility"}, []string{"market_type"}, true, nil)
	require.NoError(t, err)

	require.Len(t, d.X, 200)
	// numeric columns + one-hot levels {1X, TOTALS}
	assert.Equal(t, []string{"score_final", "volatility", "market_type=1X", "market_type=TOTALS"}, d.FeatureNames)

	for j := 0; j < 2; j++ {
		col := make([]float64, len(d.X))
		for i, row := range d.X {
			col[i] = row[j]
		}
		assert.InDelta(t, 0.0, Mean(col), 1e-9, "standardized column %d must be centred", j)
		assert.InDelta(t, 1.0, PopulationStd(col), 1e-9)
	}
}

func TestBuildDesignImputesWithTrainMedians(t *testing.T) {
	train := []Sample{
		{Numeric: map[string]float64{"f": 1}},
		{Numeric: map[string]float64{"f": 3}},
		{Numeric: map[string]float64{"f": 5}},
	}
	d, err := BuildDesign(train, []string{"f"}, nil, true, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{3}, d.Medians)

	test := []Sample{{Numeric: map[string]float64{"f": math.NaN()}}}
	dt, err := BuildDesign(test, []string{"f"}, nil, false, d)
	require.NoError(t, err)
	// Imputed to the train median, then scaled with train statistics:
	// (3 - mean_train) / std_train == 0 since mean_train is also 3.
	assert.InDelta(t, 0.0, dt.X[0][0], 1e-12)
}

func TestBuildDesignTransformRequiresPrior(t *testing.T) {
	_, err := BuildDesign(nil, []string{"f"}, nil, false, nil)
	assert.Error(t, err)
}

func TestFitLogisticSeparableData(t *testing.T) {
	samples, labels := makeSeparableSamples(400)
	d, err := BuildDesign(samples, []string{"score_final", "volatility"}, []string{"market_type"}, true, nil)
	require.NoError(t, err)

	model, err := FitLogistic(d, labels, DefaultLogisticConfig())
	require.NoError(t, err)

	probs := model.Predict(d)
	auc := AUC(probs, labels)
	assert.Greater(t, auc, 0.9, "model must rank a mostly separable dataset, got AUC %.3f", auc)
	assert.Less(t, LogLoss(probs, labels), math.Ln2, "fit must beat the uninformative baseline")
}

func TestFitLogisticRejectsBadInput(t *testing.T) {
	d := &Design{X: [][]float64{{1}}, FeatureNames: []string{"f"}}

	_, err := FitLogistic(&Design{}, nil, DefaultLogisticConfig())
	assert.Error(t, err)

	_, err = FitLogistic(d, []int{1, 0}, DefaultLogisticConfig())
	assert.Error(t, err)
}

func TestScreenPredictor(t *testing.T) {
	n := 100
	feature := make([]float64, n)
	profit := make([]float64, n)
	won := make([]int, n)
	for i := 0; i < n; i++ {
		feature[i] = float64(i)
		if i >= n/2 {
			won[i] = 1
			profit[i] = 0.9
		} else {
			profit[i] = -1
		}
	}

	screen := ScreenPredictor("score_final", feature, profit, won)
	assert.Equal(t, n, screen.N)
	assert.Greater(t, screen.PearsonProfit, 0.8)
	assert.InDelta(t, 1.0, screen.AUCvsWin, 1e-9)
	assert.Greater(t, screen.TopDecileROI, screen.BottomDecileROI)
	assert.InDelta(t, 0.9, screen.TopDecileROI, 1e-9)
	assert.InDelta(t, -1.0, screen.BottomDecileROI, 1e-9)
}

func TestScreenPredictorDropsNaN(t *testing.T) {
	feature := []float64{1, math.NaN(), 3}
	profit := []float64{-1, 0.5, 0.8}
	won := []int{0, 1, 1}

	screen := ScreenPredictor("f", feature, profit, won)
	assert.Equal(t, 2, screen.N)
}

func BenchmarkFitLogistic(b *testing.B) {
	samples, labels := makeSeparableSamples(1000)
	d, err := BuildDesign(samples, []string{"score_final", "volatility"}, []string{"market_type"}, true, nil)
	if err != nil {
		b.Fatal(err)
	}
	cfg := DefaultLogisticConfig()
	cfg.Iterations = 200
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FitLogistic(d, labels, cfg); err != nil {
			b.Fatal(fmt.Sprintf("fit failed: %v", err))
		}
	}
}
