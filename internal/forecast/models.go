package forecast

import (
	"fmt"
	"math"
	"time"
)

// generator produces forecast rows for one model. Generators are pure:
// same inputs, same output.
type generator func(points []Point, horizon int, stats SeriesStats, seas Seasonality) ([]Result, error)

// interval tuning: the band around a prediction widens with both the
// historical return dispersion and the forecast horizon.
const (
	baseIntervalSpread   = 0.08
	spreadVolatilityGain = 0.50
	spreadHorizonGrowth  = 0.015
	maxIntervalSpread    = 0.60
)

// movingAverageModel carries the trailing average forward.
func movingAverageModel(points []Point, horizon int, stats SeriesStats, _ Seasonality) ([]Result, error) {
	if len(points) < MinPointsMovingAverage {
		return nil, fmt.Errorf("moving average model needs %d points, got %d", MinPointsMovingAverage, len(points))
	}

	results := make([]Result, 0, horizon)
	last := points[len(points)-1]
	for t := 1; t <= horizon; t++ {
		date := last.Date.AddDate(0, 0, t)
		results = append(results, buildResult(date, stats.Baseline, stats.Baseline, t, stats, ModelMovingAverage, Components{
			Baseline: stats.Baseline,
			Trend:    1, Seasonal: 1, Volatility: 1, Business: 1,
		}))
	}
	return results, nil
}

// linearTrendModel extrapolates the bounded trend from the last
// observed level.
func linearTrendModel(points []Point, horizon int, stats SeriesStats, _ Seasonality) ([]Result, error) {
	if len(points) < MinPointsLinearTrend {
		return nil, fmt.Errorf("linear trend model needs %d points, got %d", MinPointsLinearTrend, len(points))
	}

	results := make([]Result, 0, horizon)
	last := points[len(points)-1]
	prev := stats.Baseline
	for t := 1; t <= horizon; t++ {
		date := last.Date.AddDate(0, 0, t)
		trendMult := math.Pow(1+stats.DailyGrowth, float64(t))
		raw := stats.Baseline * trendMult
		results = append(results, buildResult(date, raw, prev, t, stats, ModelLinearTrend, Components{
			Baseline: stats.Baseline,
			Trend:    trendMult,
			Seasonal: 1, Volatility: 1, Business: 1,
		}))
		prev = results[len(results)-1].Predicted
	}
	return results, nil
}

// seasonalTrendModel layers the weekly and monthly multipliers on top
// of the trend.
func seasonalTrendModel(points []Point, horizon int, stats SeriesStats, seas Seasonality) ([]Result, error) {
	if len(points) < MinPointsSeasonalTrend {
		return nil, fmt.Errorf("seasonal trend model needs %d points, got %d", MinPointsSeasonalTrend, len(points))
	}

	results := make([]Result, 0, horizon)
	last := points[len(points)-1]
	prev := stats.Baseline
	for t := 1; t <= horizon; t++ {
		date := last.Date.AddDate(0, 0, t)
		trendMult := math.Pow(1+stats.DailyGrowth, float64(t))
		seasonal := seas.Factor(date)
		raw := stats.Baseline * trendMult * seasonal
		results = append(results, buildResult(date, raw, prev, t, stats, ModelSeasonalTrend, Components{
			Baseline: stats.Baseline,
			Trend:    trendMult,
			Seasonal: seasonal,
			Volatility: 1, Business: 1,
		}))
		prev = results[len(results)-1].Predicted
	}
	return results, nil
}

// volatilityModel adds the deterministic volatility wave and the
// business calendar on top of trend and seasonality.
func volatilityModel(points []Point, horizon int, stats SeriesStats, seas Seasonality) ([]Result, error) {
	if len(points) < MinPointsVolatility {
		return nil, fmt.Errorf("volatility model needs %d points, got %d", MinPointsVolatility, len(points))
	}

	results := make([]Result, 0, horizon)
	last := points[len(points)-1]
	prev := stats.Baseline
	for t := 1; t <= horizon; t++ {
		date := last.Date.AddDate(0, 0, t)
		trendMult := math.Pow(1+stats.DailyGrowth, float64(t))
		seasonal := seas.Factor(date)
		wave := VolatilityWave(date, stats.ReturnStdDev)
		business := CalendarFactor(date)
		raw := stats.Baseline * trendMult * seasonal * wave * business
		results = append(results, buildResult(date, raw, prev, t, stats, ModelVolatility, Components{
			Baseline:   stats.Baseline,
			Trend:      trendMult,
			Seasonal:   seasonal,
			Volatility: wave,
			Business:   business,
		}))
		prev = results[len(results)-1].Predicted
	}
	return results, nil
}

// flatModel is the emergency fallback: a flat line at the last
// observed value (or zero for a dead series) with wide bounds.
func flatModel(points []Point, horizon int, stats SeriesStats, _ Seasonality) ([]Result, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("flat model needs at least one point")
	}

	last := points[len(points)-1]
	level := math.Max(0, last.Value)

	results := make([]Result, 0, horizon)
	for t := 1; t <= horizon; t++ {
		date := last.Date.AddDate(0, 0, t)
		results = append(results, Result{
			Date:       date,
			Predicted:  level,
			LowerBound: level * 0.5,
			UpperBound: level*1.5 + 1,
			Confidence: FlatConfidence,
			Model:      ModelFlat,
			Components: Components{Baseline: level, Trend: 1, Seasonal: 1, Volatility: 1, Business: 1},
		})
	}
	return results, nil
}

// buildResult applies the shared invariants to a raw prediction:
// clamp to the day-over-day band, floor at zero, attach bounds and
// the decayed confidence.
func buildResult(date time.Time, raw, prev float64, t int, stats SeriesStats, model Model, comp Components) Result {
	predicted := clampDailyChange(raw, prev)
	predicted = sanitize(predicted)

	spread := intervalSpread(t, stats.ReturnStdDev)
	lower := math.Max(0, predicted*(1-spread))
	upper := predicted * (1 + spread)

	return Result{
		Date:       date,
		Predicted:  predicted,
		LowerBound: lower,
		UpperBound: upper,
		Confidence: confidenceAt(t),
		Model:      model,
		Components: comp,
	}
}

// clampDailyChange bounds a prediction to MaxDailyChange around the
// previous day's value. A zero previous day releases the clamp so a
// series can restart after a gap.
func clampDailyChange(raw, prev float64) float64 {
	if prev <= 0 {
		return math.Max(0, raw)
	}
	upper := prev * (1 + MaxDailyChange)
	lower := prev * (1 - MaxDailyChange)
	if raw > upper {
		return upper
	}
	if raw < lower {
		return math.Max(0, lower)
	}
	return math.Max(0, raw)
}

func intervalSpread(t int, returnStdDev float64) float64 {
	vol := returnStdDev
	if math.IsNaN(vol) || math.IsInf(vol, 0) || vol < 0 {
		vol = 0
	}
	spread := (baseIntervalSpread + vol*spreadVolatilityGain) * (1 + float64(t)*spreadHorizonGrowth)
	if spread > maxIntervalSpread {
		spread = maxIntervalSpread
	}
	return spread
}

// confidenceAt decays linearly with horizon down to the floor, so
// confidence is monotonically non-increasing over the forecast.
func confidenceAt(t int) float64 {
	conf := BaseConfidence - ConfidenceDecay*float64(t)
	if conf < ConfidenceFloor {
		return ConfidenceFloor
	}
	return conf
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
