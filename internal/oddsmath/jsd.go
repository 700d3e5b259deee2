package oddsmath

import (
	"fmt"
	"math"
)

// epsilon floors zero denominators inside the KL sum. A mixture term can
// only be zero when both inputs are zero, in which case the numerator is
// zero too and the term is vacuous; the floor just keeps the division
// defined.
const epsilon = 1e-12

// klDivergence computes D(p||q) in base 2. Terms with p_i <= 0 contribute
// nothing by the usual 0*log(0) = 0 convention.
func klDivergence(p, q []float64) float64 {
	var total float64
	for i, pi := range p {
		if pi <= 0 {
			continue
		}
		qi := q[i]
		if qi <= 0 {
			qi = epsilon
		}
		total += pi * math.Log2(pi/qi)
	}
	return total
}

// JensenShannon computes the Jensen-Shannon divergence between two
// probability vectors over the same support, in base 2. The result is
// symmetric and non-negative, and bounded by 1 for two-outcome supports.
// The only error is a length mismatch, which indicates a caller bug rather
// than bad market data.
func JensenShannon(p, q []float64) (float64, error) {
	if len(p) != len(q) {
		return 0, fmt.Errorf("distributions must have the same length: %d != %d", len(p), len(q))
	}
	m := make([]float64, len(p))
	for i := range p {
		m[i] = (p[i] + q[i]) / 2.0
	}
	return 0.5*klDivergence(p, m) + 0.5*klDivergence(q, m), nil
}
