package stats

import "math"

const probClip = 1e-12

// AUC computes the area under the ROC curve via the rank-sum (Mann-Whitney)
// identity, with tie-averaged ranks. NaN when one class is absent.
func AUC(scores []float64, labels []int) float64 {
	if len(scores) != len(labels) || len(scores) == 0 {
		return math.NaN()
	}
	nPos, nNeg := 0, 0
	for _, l := range labels {
		if l == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}

	ranks := tieAveragedRanks(scores)
	var posRankSum float64
	for i, l := range labels {
		if l == 1 {
			posRankSum += ranks[i]
		}
	}
	return (posRankSum - float64(nPos)*float64(nPos+1)/2.0) / (float64(nPos) * float64(nNeg))
}

// LogLoss returns the mean negative log likelihood of binary labels under
// predicted probabilities, clipped away from 0 and 1.
func LogLoss(probs []float64, labels []int) float64 {
	if len(probs) != len(labels) || len(probs) == 0 {
		return math.NaN()
	}
	var total float64
	for i, p := range probs {
		p = clamp(p, probClip, 1-probClip)
		if labels[i] == 1 {
			total -= math.Log(p)
		} else {
			total -= math.Log(1 - p)
		}
	}
	return total / float64(len(probs))
}

// Brier returns the mean squared error between predicted probabilities and
// binary outcomes.
func Brier(probs []float64, labels []int) float64 {
	if len(probs) != len(labels) || len(probs) == 0 {
		return math.NaN()
	}
	var total float64
	for i, p := range probs {
		y := 0.0
		if labels[i] == 1 {
			y = 1.0
		}
		d := p - y
		total += d * d
	}
	return total / float64(len(probs))
}

// CalibrationBin is one row of a reliability table.
type CalibrationBin struct {
	Low      float64
	High     float64
	Count    int
	MeanPred float64
	FracWon  float64
}

// CalibrationBins buckets predictions into equal-width probability bins and
// reports predicted vs observed win rates per bin. Empty bins keep
// Count == 0 and zeroed means.
func CalibrationBins(probs []float64, labels []int, nbins int) []CalibrationBin {
	if nbins <= 0 {
		nbins = 10
	}
	bins := make([]CalibrationBin, nbins)
	width := 1.0 / float64(nbins)
	for i := range bins {
		bins[i].Low = float64(i) * width
		bins[i].High = bins[i].Low + width
	}
	if len(probs) != len(labels) {
		return bins
	}

	sums := make([]float64, nbins)
	wins := make([]int, nbins)
	for i, p := range probs {
		idx := int(p / width)
		if idx >= nbins {
			idx = nbins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
		sums[idx] += p
		if labels[i] == 1 {
			wins[idx]++
		}
	}
	for i := range bins {
		if bins[i].Count > 0 {
			bins[i].MeanPred = sums[i] / float64(bins[i].Count)
			bins[i].FracWon = float64(wins[i]) / float64(bins[i].Count)
		}
	}
	return bins
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
