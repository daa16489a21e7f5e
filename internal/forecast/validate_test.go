package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func holdoutRows(values []float64) ([]Result, []Point) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Result, len(values))
	points := make([]Point, len(values))
	for i, v := range values {
		date := start.AddDate(0, 0, i)
		rows[i] = Result{Date: date, Predicted: v}
		points[i] = Point{Date: date, Value: v}
	}
	return rows, points
}

func TestScoreHoldoutPerfectForecast(t *testing.T) {
	rows, actual := holdoutRows([]float64{100, 200, 150, 300, 250})

	m := scoreHoldout(rows, actual)

	assert.InDelta(t, 0, m.MAPE, 1e-9)
	assert.InDelta(t, 0, m.MAE, 1e-9)
	assert.InDelta(t, 0, m.RMSE, 1e-9)
	assert.InDelta(t, 1, m.RSquared, 1e-9)
	assert.Equal(t, 5, m.HoldoutDays)
}

func TestScoreHoldoutConstantError(t *testing.T) {
	rows, _ := holdoutRows([]float64{110, 210, 160, 310, 260})
	_, actual := holdoutRows([]float64{100, 200, 150, 300, 250})

	m := scoreHoldout(rows, actual)

	assert.InDelta(t, 10, m.MAE, 1e-9)
	assert.InDelta(t, 10, m.RMSE, 1e-9)
	// MAPE: mean of 10/100, 10/200, 10/150, 10/300, 10/250 in percent.
	expectedMAPE := (0.10 + 0.05 + 10.0/150 + 10.0/300 + 0.04) / 5 * 100
	assert.InDelta(t, expectedMAPE, m.MAPE, 1e-9)
	assert.Greater(t, m.RSquared, 0.9)
}

func TestScoreHoldoutSkipsZeroDays(t *testing.T) {
	rows, _ := holdoutRows([]float64{50, 50, 50})
	_, actual := holdoutRows([]float64{0, 100, 100})

	m := scoreHoldout(rows, actual)

	// Only the two non-zero days count toward MAPE.
	assert.InDelta(t, 50, m.MAPE, 1e-9)
	assert.Equal(t, 3, m.HoldoutDays)
}

func TestScoreHoldoutEmpty(t *testing.T) {
	m := scoreHoldout(nil, nil)
	assert.Equal(t, 0, m.HoldoutDays)
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name     string
		metrics  Metrics
		expected float64
	}{
		{
			name:     "perfect_forecast",
			metrics:  Metrics{MAPE: 0, RSquared: 1, HoldoutDays: 14},
			expected: 100,
		},
		{
			name:     "decent_forecast",
			metrics:  Metrics{MAPE: 20, RSquared: 0.5, HoldoutDays: 14},
			expected: 0.6*80 + 0.4*50,
		},
		{
			name:     "terrible_forecast_floors_at_zero",
			metrics:  Metrics{MAPE: 400, RSquared: 0, HoldoutDays: 14},
			expected: 0,
		},
		{
			name:     "unvalidated_scores_on_confidence",
			metrics:  Metrics{Confidence: 0.8, HoldoutDays: 0},
			expected: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, qualityScore(tt.metrics), 1e-9)
		})
	}
}
