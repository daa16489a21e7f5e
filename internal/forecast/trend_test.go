package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearTrendPerfectLine(t *testing.T) {
	points := genSeries(30, func(i int) float64 { return 100_000 + float64(i)*2_500 })

	intercept, slope, ok := LinearTrend(points)
	require.True(t, ok)
	assert.InDelta(t, 100_000, intercept, 1e-6)
	assert.InDelta(t, 2_500, slope, 1e-6)
}

func TestLinearTrendTooShort(t *testing.T) {
	_, _, ok := LinearTrend(genSeries(1, func(i int) float64 { return 100 }))
	assert.False(t, ok)
}

func TestDailyGrowthRate(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		check  func(t *testing.T, g float64)
	}{
		{
			name:   "flat_series_has_no_growth",
			points: genSeries(30, func(i int) float64 { return 500_000 }),
			check: func(t *testing.T, g float64) {
				assert.InDelta(t, 0, g, 1e-9)
			},
		},
		{
			name:   "gentle_growth_detected",
			points: genSeries(60, func(i int) float64 { return 1_000_000 * (1 + 0.01*float64(i)) }),
			check: func(t *testing.T, g float64) {
				assert.Greater(t, g, 0.0)
				assert.LessOrEqual(t, g, MaxDailyGrowth)
			},
		},
		{
			name:   "decline_bounded_below",
			points: genSeries(30, func(i int) float64 { return 10_000_000 / float64(i+1) }),
			check: func(t *testing.T, g float64) {
				assert.Less(t, g, 0.0)
				assert.GreaterOrEqual(t, g, -MaxDailyGrowth)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DailyGrowthRate(tt.points))
		})
	}
}

func TestPeriodOverPeriodFallback(t *testing.T) {
	// A steep two-point series clamps to the growth band.
	points := genSeries(2, func(i int) float64 { return 1_000_000 * float64(i+1) })
	g := DailyGrowthRate(points)
	assert.Greater(t, g, 0.0)
	assert.LessOrEqual(t, g, MaxDailyGrowth)
}
