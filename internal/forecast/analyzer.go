package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Analyze computes the historical statistics the forecasting models
// build on: value level, day-over-day return moments, autocorrelation
// at the lags the weekly cycle shows up in, and the bounded trend.
func Analyze(points []Point) (SeriesStats, error) {
	if len(points) == 0 {
		return SeriesStats{}, fmt.Errorf("analyze: empty series")
	}

	values := make([]float64, len(points))
	active := 0
	for i, p := range points {
		if !p.IsValid() {
			return SeriesStats{}, fmt.Errorf("analyze: invalid point at index %d (date=%s value=%f)",
				i, p.Date.Format("2006-01-02"), p.Value)
		}
		values[i] = p.Value
		if p.Value > 0 {
			active++
		}
	}

	stats := SeriesStats{
		Mean:       stat.Mean(values, nil),
		ActiveDays: active,
		TotalDays:  len(points),
		LastValue:  values[len(values)-1],
	}
	if len(values) > 1 {
		stats.StdDev = stat.StdDev(values, nil)
	}
	if stats.Mean > 0 {
		stats.CV = stats.StdDev / stats.Mean
	}

	stats.Baseline = trailingAverage(values, BaselineWindow)
	stats.ZeroRunLength = trailingZeroRun(values)

	returns := dailyReturns(values)
	if len(returns) > 0 {
		stats.ReturnMean = stat.Mean(returns, nil)
		if len(returns) > 1 {
			stats.ReturnStdDev = stat.StdDev(returns, nil)
		}
		stats.Autocorr1 = autocorrelation(returns, 1)
		stats.Autocorr7 = autocorrelation(returns, 7)
	}

	stats.DailyGrowth = DailyGrowthRate(points)

	return stats, nil
}

// dailyReturns computes day-over-day percentage returns, skipping
// pairs where the previous day is zero.
func dailyReturns(values []float64) []float64 {
	var returns []float64
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev <= 0 {
			continue
		}
		ret := (values[i] - prev) / prev
		if !math.IsNaN(ret) && !math.IsInf(ret, 0) {
			returns = append(returns, ret)
		}
	}
	return returns
}

// autocorrelation returns the Pearson correlation between the series
// and itself shifted by lag. Returns 0 when the series is too short
// or degenerate.
func autocorrelation(series []float64, lag int) float64 {
	if lag <= 0 || len(series) <= lag+1 {
		return 0
	}
	head := series[:len(series)-lag]
	tail := series[lag:]
	corr := stat.Correlation(head, tail, nil)
	if math.IsNaN(corr) || math.IsInf(corr, 0) {
		return 0
	}
	return corr
}

// trailingAverage averages the last window values, or the whole series
// when shorter than the window.
func trailingAverage(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	if window > len(values) {
		window = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// trailingZeroRun counts consecutive zero-revenue days at the end of
// the series. Long trailing zero runs push the engine toward the flat
// model.
func trailingZeroRun(values []float64) int {
	run := 0
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != 0 {
			break
		}
		run++
	}
	return run
}
