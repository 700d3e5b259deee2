package stats

import (
	"fmt"
	"math"
	"sort"
)

// Design is a standardized design matrix plus the statistics needed to
// transform a held-out set with the training-set parameters: per-feature
// means/stds for scaling, medians for imputing missing numerics and the
// category levels used for one-hot expansion.
type Design struct {
	X            [][]float64
	FeatureNames []string
	Means        []float64
	Stds         []float64
	Medians      []float64
	CatLevels    map[string][]string
}

// Sample is one labelled observation before matrix construction. Numeric
// holds raw feature values keyed by feature name; NaN marks a missing
// value. Categorical holds string-valued features for one-hot expansion.
type Sample struct {
	Numeric     map[string]float64
	Categorical map[string]string
	Label       int
}

// BuildDesign assembles a standardized matrix from samples. When fit is
// true the imputation/scaling statistics and category levels are computed
// from the data; otherwise they are taken from prior, so a test split is
// transformed exactly like the training split.
func BuildDesign(samples []Sample, numFeatures, catFeatures []string, fit bool, prior *Design) (*Design, error) {
	if !fit && prior == nil {
		return nil, fmt.Errorf("transform requires a fitted design")
	}
	n := len(samples)

	d := &Design{CatLevels: map[string][]string{}}

	// Raw numeric columns with NaN for missing entries.
	columns := make([][]float64, len(numFeatures))
	for j, name := range numFeatures {
		col := make([]float64, n)
		for i, s := range samples {
			v, ok := s.Numeric[name]
			if !ok {
				v = math.NaN()
			}
			col[i] = v
		}
		columns[j] = col
	}

	if fit {
		d.Medians = make([]float64, len(numFeatures))
		for j, col := range columns {
			d.Medians[j] = Median(finiteOnly(col))
		}
	} else {
		d.Medians = prior.Medians
	}

	for j, col := range columns {
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				col[i] = d.Medians[j]
			}
		}
	}

	if fit {
		d.Means = make([]float64, len(numFeatures))
		d.Stds = make([]float64, len(numFeatures))
		for j, col := range columns {
			d.Means[j] = Mean(col)
			std := PopulationStd(col)
			if std == 0 {
				std = 1 // constant column, leave it centred at zero
			}
			d.Stds[j] = std
		}
	} else {
		d.Means = prior.Means
		d.Stds = prior.Stds
	}

	if fit {
		for _, name := range catFeatures {
			levels := map[string]struct{}{}
			for _, s := range samples {
				levels[s.Categorical[name]] = struct{}{}
			}
			sorted := make([]string, 0, len(levels))
			for l := range levels {
				sorted = append(sorted, l)
			}
			sort.Strings(sorted)
			d.CatLevels[name] = sorted
		}
	} else {
		d.CatLevels = prior.CatLevels
	}

	d.FeatureNames = append([]string{}, numFeatures...)
	for _, name := range catFeatures {
		for _, level := range d.CatLevels[name] {
			d.FeatureNames = append(d.FeatureNames, name+"="+level)
		}
	}

	d.X = make([][]float64, n)
	for i, s := range samples {
		row := make([]float64, 0, len(d.FeatureNames))
		for j := range numFeatures {
			row = append(row, (columns[j][i]-d.Means[j])/d.Stds[j])
		}
		for _, name := range catFeatures {
			for _, level := range d.CatLevels[name] {
				if s.Categorical[name] == level {
					row = append(row, 1)
				} else {
					row = append(row, 0)
				}
			}
		}
		d.X[i] = row
	}

	return d, nil
}

// LogisticConfig holds the gradient descent hyperparameters.
type LogisticConfig struct {
	LearningRate float64
	Iterations   int
	L2Penalty    float64
}

// DefaultLogisticConfig returns settings that converge comfortably on the
// dataset sizes this toolkit works with (hundreds to low thousands of rows).
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		LearningRate: 0.1,
		Iterations:   2000,
		L2Penalty:    1e-3,
	}
}

// LogisticModel is a fitted logistic regression: an intercept plus one
// weight per design-matrix column.
type LogisticModel struct {
	Intercept float64
	Weights   []float64
}

// FitLogistic trains by full-batch gradient descent on the regularized
// log loss. The intercept is not penalized.
func FitLogistic(d *Design, labels []int, cfg LogisticConfig) (*LogisticModel, error) {
	n := len(d.X)
	if n == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if n != len(labels) {
		return nil, fmt.Errorf("labels length %d does not match design rows %d", len(labels), n)
	}
	k := len(d.FeatureNames)

	m := &LogisticModel{Weights: make([]float64, k)}
	for iter := 0; iter < cfg.Iterations; iter++ {
		gradW := make([]float64, k)
		var gradB float64
		for i, row := range d.X {
			p := sigmoid(m.Intercept + dot(m.Weights, row))
			residual := p - float64(labels[i])
			for j, x := range row {
				gradW[j] += residual * x
			}
			gradB += residual
		}
		scale := cfg.LearningRate / float64(n)
		for j := range m.Weights {
			m.Weights[j] -= scale * (gradW[j] + cfg.L2Penalty*m.Weights[j]*float64(n))
		}
		m.Intercept -= scale * gradB
	}
	return m, nil
}

// Predict returns the win probability for every design-matrix row.
func (m *LogisticModel) Predict(d *Design) []float64 {
	probs := make([]float64, len(d.X))
	for i, row := range d.X {
		probs[i] = sigmoid(m.Intercept + dot(m.Weights, row))
	}
	return probs
}

func sigmoid(z float64) float64 {
	z = clamp(z, -35, 35)
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}

func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
