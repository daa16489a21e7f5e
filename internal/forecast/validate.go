package forecast

import (
	"context"
	"math"
)

// Holdout sizing: a fifth of the series, bounded so short series keep
// enough history to train on and long series don't spend forever
// re-forecasting.
const (
	minHoldoutDays = 7
	maxHoldoutDays = 30
)

// validateHoldout withholds the tail of the series, re-forecasts the
// withheld window from the remaining history, and scores the forecast
// against what actually happened. There is no external ground truth;
// the series itself is the benchmark.
func (e *Engine) validateHoldout(ctx context.Context, points []Point, stats SeriesStats) Metrics {
	holdout := len(points) / 5
	if holdout < minHoldoutDays {
		holdout = minHoldoutDays
	}
	if holdout > maxHoldoutDays {
		holdout = maxHoldoutDays
	}

	train := len(points) - holdout
	if train < MinPointsMovingAverage {
		// Not enough history to validate against; report the horizon
		// confidence only.
		return Metrics{HoldoutDays: 0}
	}

	predicted, _, _, err := e.run(ctx, points[:train], holdout)
	if err != nil {
		e.logger.WarnContext(ctx, "holdout validation failed", "error", err)
		return Metrics{HoldoutDays: 0}
	}

	actual := points[train:]
	return scoreHoldout(predicted, actual)
}

// scoreHoldout computes the accuracy statistics between predicted and
// actual rows. MAPE skips zero-revenue days; R² uses the actual mean
// as the null model.
func scoreHoldout(predicted []Result, actual []Point) Metrics {
	n := len(predicted)
	if len(actual) < n {
		n = len(actual)
	}
	if n == 0 {
		return Metrics{HoldoutDays: 0}
	}

	var sumAbsErr, sumSqErr, sumPct float64
	pctCount := 0
	actualMean := 0.0
	for i := 0; i < n; i++ {
		actualMean += actual[i].Value
	}
	actualMean /= float64(n)

	var ssTot float64
	for i := 0; i < n; i++ {
		err := predicted[i].Predicted - actual[i].Value
		sumAbsErr += math.Abs(err)
		sumSqErr += err * err
		ssTot += (actual[i].Value - actualMean) * (actual[i].Value - actualMean)

		if actual[i].Value > 0 {
			sumPct += math.Abs(err) / actual[i].Value
			pctCount++
		}
	}

	m := Metrics{
		MAE:         sumAbsErr / float64(n),
		RMSE:        math.Sqrt(sumSqErr / float64(n)),
		HoldoutDays: n,
	}
	if pctCount > 0 {
		m.MAPE = sumPct / float64(pctCount) * 100
	}
	if ssTot > 0 {
		m.RSquared = 1 - sumSqErr/ssTot
		if m.RSquared < 0 {
			m.RSquared = 0
		}
	}
	return m
}

// qualityScore blends MAPE and R² into a 0-100 score for dashboard
// display. A forecast nobody validated scores on confidence alone.
func qualityScore(m Metrics) float64 {
	if m.HoldoutDays == 0 {
		return m.Confidence * 100 * 0.5
	}

	mapeScore := 100 - m.MAPE
	if mapeScore < 0 {
		mapeScore = 0
	}
	score := 0.6*mapeScore + 0.4*m.RSquared*100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
