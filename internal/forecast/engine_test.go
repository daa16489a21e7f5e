package forecast

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// genSeries builds a daily series starting 2024-01-01 with values from f.
func genSeries(n int, f func(i int) float64) []Point {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{Date: start.AddDate(0, 0, i), Value: f(i)}
	}
	return points
}

// steadySeries is 90 days of revenue around 5M IDR with a weekly bump.
func steadySeries() []Point {
	return genSeries(90, func(i int) float64 {
		base := 5_000_000.0
		if i%7 == 5 || i%7 == 6 {
			base *= 1.3
		}
		return base + float64(i)*10_000
	})
}

func TestForecastInvariants(t *testing.T) {
	engine := NewEngine(testLogger())

	fc, err := engine.Forecast(context.Background(), steadySeries(), 30)
	require.NoError(t, err)
	require.Len(t, fc.Results, 30)

	lastDate := steadySeries()[89].Date
	for i, r := range fc.Results {
		assert.True(t, r.IsValid(), "row %d violates invariants: %+v", i, r)
		assert.GreaterOrEqual(t, r.Predicted, 0.0)
		assert.LessOrEqual(t, r.LowerBound, r.Predicted)
		assert.LessOrEqual(t, r.Predicted, r.UpperBound)
		assert.Equal(t, lastDate.AddDate(0, 0, i+1), r.Date)
	}
}

func TestForecastConfidenceNonIncreasing(t *testing.T) {
	engine := NewEngine(testLogger())

	fc, err := engine.Forecast(context.Background(), steadySeries(), 90)
	require.NoError(t, err)

	for i := 1; i < len(fc.Results); i++ {
		assert.LessOrEqual(t, fc.Results[i].Confidence, fc.Results[i-1].Confidence,
			"confidence must not increase with horizon (row %d)", i)
	}
	// Long horizons bottom out at the floor, never below.
	assert.GreaterOrEqual(t, fc.Results[len(fc.Results)-1].Confidence, ConfidenceFloor)
}

func TestForecastDeterministic(t *testing.T) {
	engine := NewEngine(testLogger())

	first, err := engine.Forecast(context.Background(), steadySeries(), 21)
	require.NoError(t, err)
	second, err := engine.Forecast(context.Background(), steadySeries(), 21)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results, "identical input must produce identical forecasts")
	assert.Equal(t, first.Model, second.Model)
}

func TestForecastModelSelection(t *testing.T) {
	tests := []struct {
		name     string
		points   []Point
		expected Model
	}{
		{
			name:     "long_series_uses_hybrid",
			points:   steadySeries(),
			expected: ModelHybrid,
		},
		{
			name:     "ten_points_falls_to_linear_trend",
			points:   genSeries(10, func(i int) float64 { return 1_000_000 + float64(i)*5_000 }),
			expected: ModelLinearTrend,
		},
		{
			name:     "four_points_falls_to_moving_average",
			points:   genSeries(4, func(i int) float64 { return 1_000_000 }),
			expected: ModelMovingAverage,
		},
		{
			name:     "two_points_falls_to_flat",
			points:   genSeries(2, func(i int) float64 { return 1_000_000 }),
			expected: ModelFlat,
		},
	}

	engine := NewEngine(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := engine.Forecast(context.Background(), tt.points, 14)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fc.Model)
			for _, r := range fc.Results {
				assert.Equal(t, tt.expected, r.Model)
			}
		})
	}
}

func TestForecastInputValidation(t *testing.T) {
	engine := NewEngine(testLogger())
	ctx := context.Background()

	t.Run("empty_series", func(t *testing.T) {
		_, err := engine.Forecast(ctx, nil, 30)
		assert.Error(t, err)
	})

	t.Run("unsorted_series", func(t *testing.T) {
		points := steadySeries()
		points[0], points[1] = points[1], points[0]
		_, err := engine.Forecast(ctx, points, 30)
		assert.ErrorContains(t, err, "sorted")
	})

	t.Run("negative_value", func(t *testing.T) {
		points := steadySeries()
		points[10].Value = -1
		_, err := engine.Forecast(ctx, points, 30)
		assert.ErrorContains(t, err, "invalid point")
	})

	t.Run("horizon_too_large", func(t *testing.T) {
		_, err := engine.Forecast(ctx, steadySeries(), MaxHorizonDays+1)
		assert.ErrorContains(t, err, "horizon")
	})

	t.Run("zero_horizon_uses_default", func(t *testing.T) {
		fc, err := engine.Forecast(ctx, steadySeries(), 0)
		require.NoError(t, err)
		assert.Len(t, fc.Results, DefaultHorizonDays)
	})
}

func TestForecastAllZeroSeries(t *testing.T) {
	engine := NewEngine(testLogger())
	points := genSeries(60, func(i int) float64 { return 0 })

	fc, err := engine.Forecast(context.Background(), points, 14)
	require.NoError(t, err)
	require.Len(t, fc.Results, 14)

	assert.Equal(t, ModelFlat, fc.Model, "dead series must dispatch the flat model")
	for _, r := range fc.Results {
		assert.Zero(t, r.Predicted, "dead series must forecast flat zero")
		assert.Equal(t, FlatConfidence, r.Confidence)
		assert.True(t, r.IsValid())
	}
}

func TestForecastTrailingZeroRunUsesFlatModel(t *testing.T) {
	engine := NewEngine(testLogger())
	// Healthy history that went dark for the whole baseline window.
	points := genSeries(60, func(i int) float64 {
		if i >= 60-BaselineWindow {
			return 0
		}
		return 3_000_000
	})

	fc, err := engine.Forecast(context.Background(), points, 7)
	require.NoError(t, err)

	assert.Equal(t, ModelFlat, fc.Model)
	for _, r := range fc.Results {
		assert.Zero(t, r.Predicted)
		assert.Equal(t, FlatConfidence, r.Confidence)
	}
}

func TestForecastClampsDailyChange(t *testing.T) {
	// A series ending in a violent spike: the walk-forward still may
	// not move more than MaxDailyChange per day.
	points := genSeries(60, func(i int) float64 {
		if i == 59 {
			return 50_000_000
		}
		return 1_000_000
	})

	engine := NewEngine(testLogger())
	fc, err := engine.Forecast(context.Background(), points, 30)
	require.NoError(t, err)

	prev := fc.Results[0].Predicted
	for _, r := range fc.Results[1:] {
		if prev > 0 {
			change := math.Abs(r.Predicted-prev) / prev
			assert.LessOrEqual(t, change, MaxDailyChange+1e-9,
				"day-over-day change exceeds clamp on %s", r.Date.Format("2006-01-02"))
		}
		prev = r.Predicted
	}
}

func TestForecastWithPinnedModel(t *testing.T) {
	engine := NewEngine(testLogger())
	ctx := context.Background()

	rows, err := engine.ForecastWith(ctx, ModelMovingAverage, steadySeries(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for _, r := range rows {
		assert.Equal(t, ModelMovingAverage, r.Model)
	}

	_, err = engine.ForecastWith(ctx, Model("prophet"), steadySeries(), 7)
	assert.ErrorContains(t, err, "unknown forecast model")
}

func TestForecastMetricsPopulated(t *testing.T) {
	engine := NewEngine(testLogger())

	fc, err := engine.Forecast(context.Background(), steadySeries(), 30)
	require.NoError(t, err)

	assert.Greater(t, fc.Metrics.HoldoutDays, 0)
	assert.GreaterOrEqual(t, fc.Metrics.MAE, 0.0)
	assert.GreaterOrEqual(t, fc.Metrics.RMSE, fc.Metrics.MAE)
	assert.GreaterOrEqual(t, fc.Metrics.QualityScore, 0.0)
	assert.LessOrEqual(t, fc.Metrics.QualityScore, 100.0)
	assert.InDelta(t, averageConfidence(fc.Results), fc.Metrics.Confidence, 1e-9)
}
