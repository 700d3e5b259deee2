package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		labels []int
		want   float64
	}{
		{
			name:   "perfect ranking",
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			labels: []int{0, 0, 1, 1},
			want:   1.0,
		},
		{
			name:   "inverted ranking",
			scores: []float64{0.9, 0.8, 0.2, 0.1},
			labels: []int{0, 0, 1, 1},
			want:   0.0,
		},
		{
			name:   "all ties",
			scores: []float64{0.5, 0.5, 0.5, 0.5},
			labels: []int{0, 1, 0, 1},
			want:   0.5,
		},
		{
			name:   "partial separation",
			scores: []float64{0.1, 0.35, 0.4, 0.8},
			labels: []int{0, 1, 0, 1},
			want:   0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AUC(tt.scores, tt.labels), 1e-9)
		})
	}
}

func TestAUCSingleClass(t *testing.T) {
	assert.True(t, math.IsNaN(AUC([]float64{0.1, 0.9}, []int{1, 1})))
	assert.True(t, math.IsNaN(AUC([]float64{0.1, 0.9}, []int{0, 0})))
}

func TestLogLoss(t *testing.T) {
	// Confident correct predictions score near zero.
	low := LogLoss([]float64{0.99, 0.01}, []int{1, 0})
	assert.Less(t, low, 0.02)

	// Confident wrong predictions blow up but stay finite thanks to the clip.
	high := LogLoss([]float64{0.0, 1.0}, []int{1, 0})
	assert.False(t, math.IsInf(high, 1))
	assert.Greater(t, high, 10.0)

	// Uninformative predictor on balanced labels is ln 2.
	assert.InDelta(t, math.Ln2, LogLoss([]float64{0.5, 0.5}, []int{1, 0}), 1e-12)
}

func TestBrier(t *testing.T) {
	assert.InDelta(t, 0.0, Brier([]float64{1, 0}, []int{1, 0}), 1e-12)
	assert.InDelta(t, 1.0, Brier([]float64{0, 1}, []int{1, 0}), 1e-12)
	assert.InDelta(t, 0.25, Brier([]float64{0.5, 0.5}, []int{1, 0}), 1e-12)
}

func TestCalibrationBins(t *testing.T) {
	probs := []float64{0.05, 0.15, 0.15, 0.95, 1.0}
	labels := []int{0, 0, 1, 1, 1}

	bins := CalibrationBins(probs, labels, 10)
	require.Len(t, bins, 10)

	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 2, bins[1].Count)
	assert.InDelta(t, 0.5, bins[1].FracWon, 1e-12)
	// p == 1.0 lands in the last bin, not out of range.
	assert.Equal(t, 2, bins[9].Count)
	assert.InDelta(t, 1.0, bins[9].FracWon, 1e-12)
}

func TestCorrelations(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, PearsonCorrelation(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, PearsonCorrelation(x, []float64{5, 4, 3, 2, 1}), 1e-12)

	// Monotone but non-linear: Spearman sees a perfect relationship.
	y := []float64{1, 8, 27, 64, 125}
	assert.InDelta(t, 1.0, SpearmanCorrelation(x, y), 1e-12)
	assert.Less(t, PearsonCorrelation(x, y), 1.0)

	assert.True(t, math.IsNaN(PearsonCorrelation(x, []float64{3, 3, 3, 3, 3})))
}

func TestPointBiserial(t *testing.T) {
	x := []float64{1, 2, 3, 10, 11, 12}
	labels := []int{0, 0, 0, 1, 1, 1}
	assert.Greater(t, PointBiserial(x, labels), 0.9)
}
