package stats

import (
	"math"
	"sort"
)

// PredictorScreen reports how one candidate feature relates to realised
// betting profit. Profit is the per-unit-stake return of each settled bet
// (price-1 on a win, -1 on a loss), so correlating against it asks the
// question that matters for a bettor: not "does this predict winners" but
// "does this predict money".
type PredictorScreen struct {
	Feature         string
	N               int
	PearsonProfit   float64
	SpearmanProfit  float64
	PointBiserial   float64
	AUCvsWin        float64
	TopDecileROI    float64
	BottomDecileROI float64
}

// ScreenPredictor computes the screening metrics for one feature against
// settled outcomes. Rows where the feature is NaN are dropped.
func ScreenPredictor(name string, feature, profit []float64, won []int) PredictorScreen {
	x := make([]float64, 0, len(feature))
	p := make([]float64, 0, len(feature))
	y := make([]int, 0, len(feature))
	for i, v := range feature {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x = append(x, v)
		p = append(p, profit[i])
		y = append(y, won[i])
	}

	screen := PredictorScreen{Feature: name, N: len(x)}
	if len(x) == 0 {
		screen.PearsonProfit = math.NaN()
		screen.SpearmanProfit = math.NaN()
		screen.PointBiserial = math.NaN()
		screen.AUCvsWin = math.NaN()
		return screen
	}

	screen.PearsonProfit = PearsonCorrelation(x, p)
	screen.SpearmanProfit = SpearmanCorrelation(x, p)
	screen.PointBiserial = PointBiserial(x, y)
	screen.AUCvsWin = AUC(x, y)
	screen.TopDecileROI, screen.BottomDecileROI = decileROI(x, p)
	return screen
}

// decileROI splits rows by feature value and returns the mean profit of the
// top and bottom deciles. A feature worth acting on should separate the
// two.
func decileROI(feature, profit []float64) (top, bottom float64) {
	n := len(feature)
	if n < 10 {
		return math.NaN(), math.NaN()
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return feature[order[a]] < feature[order[b]]
	})

	size := n / 10
	var bottomSum, topSum float64
	for i := 0; i < size; i++ {
		bottomSum += profit[order[i]]
		topSum += profit[order[n-1-i]]
	}
	return topSum / float64(size), bottomSum / float64(size)
}
