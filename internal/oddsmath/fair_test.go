package oddsmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveVigNormalizes(t *testing.T) {
	tests := []struct {
		name   string
		quotes QuoteSet
	}{
		{
			name:   "symmetric binary market",
			quotes: QuoteSet{"Over 2.5": 1.8, "Under 2.5": 2.05},
		},
		{
			name:   "three way market",
			quotes: QuoteSet{"Home": 2.1, "Draw": 3.4, "Away": 3.6},
		},
		{
			name:   "heavy favourite",
			quotes: QuoteSet{"Home": 1.05, "Draw": 12.0, "Away": 34.0},
		},
		{
			name:   "single valid entry",
			quotes: QuoteSet{"Home": 1.5, "Away": -2.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fair := RemoveVig(tt.quotes)
			require.NotEmpty(t, fair)

			var sum float64
			for _, p := range fair {
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestRemoveVigNoMargin(t *testing.T) {
	fair := RemoveVig(QuoteSet{"A": 2.0, "B": 2.0})
	require.Len(t, fair, 2)
	assert.Equal(t, 0.5, fair["A"])
	assert.Equal(t, 0.5, fair["B"])
}

func TestRemoveVigSymmetricMarginCancels(t *testing.T) {
	// ~11% overround split evenly across both sides.
	fair := RemoveVig(QuoteSet{"A": 1.8, "B": 1.8})
	require.Len(t, fair, 2)
	assert.InDelta(t, 0.5, fair["A"], 1e-12)
	assert.InDelta(t, 0.5, fair["B"], 1e-12)
}

func TestRemoveVigSkipsInvalidPrices(t *testing.T) {
	tests := []struct {
		name   string
		quotes QuoteSet
		want   int
	}{
		{"empty input", QuoteSet{}, 0},
		{"all invalid", QuoteSet{"A": -1, "B": 0}, 0},
		{"nan and inf", QuoteSet{"A": math.NaN(), "B": math.Inf(1)}, 0},
		{"partial data", QuoteSet{"A": 2.0, "B": -3.0, "C": 4.0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fair := RemoveVig(tt.quotes)
			assert.Len(t, fair, tt.want)
		})
	}
}

func TestOverround(t *testing.T) {
	margin, ok := Overround(QuoteSet{"Home": 2.0, "Draw": 3.5, "Away": 4.0})
	require.True(t, ok)
	assert.InDelta(t, 0.5+1.0/3.5+0.25-1.0, margin, 1e-12)

	_, ok = Overround(QuoteSet{"Home": -1.0})
	assert.False(t, ok)
}
