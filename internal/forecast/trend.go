package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LinearTrend fits a least-squares line through (day index, value)
// and reports intercept and slope. ok is false when the series is too
// short or the fit is degenerate.
func LinearTrend(points []Point) (intercept, slope float64, ok bool) {
	if len(points) < 2 {
		return 0, 0, false
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = p.Value
	}

	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(intercept) || math.IsNaN(slope) ||
		math.IsInf(intercept, 0) || math.IsInf(slope, 0) {
		return 0, 0, false
	}
	return intercept, slope, true
}

// DailyGrowthRate converts the fitted slope into a relative growth
// rate per day, bounded to MaxDailyGrowth in either direction. Falls
// back to a period-over-period ratio for series too short to regress.
func DailyGrowthRate(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	if intercept, slope, ok := LinearTrend(points); ok {
		// Relative growth against the level at the middle of the fit,
		// which is less sensitive to a noisy intercept.
		mid := intercept + slope*float64(len(points))/2
		if mid > 0 {
			return clampGrowth(slope / mid)
		}
	}

	return clampGrowth(periodOverPeriodGrowth(points))
}

// periodOverPeriodGrowth compares the average of the last half of the
// series against the first half and spreads the ratio over the span.
func periodOverPeriodGrowth(points []Point) float64 {
	half := len(points) / 2
	if half == 0 {
		return 0
	}

	firstSum, lastSum := 0.0, 0.0
	for i := 0; i < half; i++ {
		firstSum += points[i].Value
	}
	for i := len(points) - half; i < len(points); i++ {
		lastSum += points[i].Value
	}

	firstAvg := firstSum / float64(half)
	lastAvg := lastSum / float64(half)
	if firstAvg <= 0 {
		return 0
	}

	span := float64(len(points) - half)
	if span <= 0 {
		return 0
	}
	return (lastAvg/firstAvg - 1) / span
}

func clampGrowth(g float64) float64 {
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0
	}
	if g > MaxDailyGrowth {
		return MaxDailyGrowth
	}
	if g < -MaxDailyGrowth {
		return -MaxDailyGrowth
	}
	return g
}
