package stats

import "math"

// PearsonCorrelation returns the linear correlation coefficient between two
// equal-length series. NaN when either series is constant or lengths differ.
func PearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return math.NaN()
	}
	mx, my := Mean(x), Mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// SpearmanCorrelation returns the rank correlation: Pearson over
// tie-averaged ranks, robust to monotone but non-linear relationships.
func SpearmanCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return math.NaN()
	}
	return PearsonCorrelation(tieAveragedRanks(x), tieAveragedRanks(y))
}

// PointBiserial correlates a continuous predictor with binary labels. It is
// numerically the Pearson correlation with the labels cast to 0/1.
func PointBiserial(x []float64, labels []int) float64 {
	if len(x) != len(labels) || len(x) == 0 {
		return math.NaN()
	}
	y := make([]float64, len(labels))
	for i, l := range labels {
		if l != 0 {
			y[i] = 1
		}
	}
	return PearsonCorrelation(x, y)
}
