package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbusana/internal/forecast"
)

func TestExportForecast(t *testing.T) {
	dir := t.TempDir()
	e := NewForecastExporter(dir)

	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	fc := &forecast.Forecast{
		Model: forecast.ModelHybrid,
		Results: []forecast.Result{
			{Date: day, Predicted: 150000, LowerBound: 120000, UpperBound: 180000, Confidence: 0.85, Model: forecast.ModelHybrid},
			{Date: day.AddDate(0, 0, 1), Predicted: 155000, LowerBound: 122000, UpperBound: 190000, Confidence: 0.84, Model: forecast.ModelHybrid},
		},
		Metrics: forecast.Metrics{MAPE: 12.5, MAE: 9000, RMSE: 11000, RSquared: 0.7, Confidence: 0.85, QualityScore: 78, HoldoutDays: 7},
	}

	runAt := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	file, err := e.ExportForecast(fc, runAt)
	require.NoError(t, err)
	assert.Equal(t, "forecast_hybrid_2024-04-01_093000.csv", file)

	rows := readCSV(t, filepath.Join(dir, file))
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-04-01", rows[1][0])
	assert.Equal(t, "150000.00", rows[1][1])
	assert.Equal(t, "hybrid", rows[1][5])

	metricsRows := readCSV(t, filepath.Join(dir, "forecast_hybrid_2024-04-01_093000_metrics.csv"))
	require.Len(t, metricsRows, 2)
	assert.Equal(t, "12.50", metricsRows[1][0])
	assert.Equal(t, "7", metricsRows[1][6])
}

func TestExportForecastEmpty(t *testing.T) {
	e := NewForecastExporter(t.TempDir())
	_, err := e.ExportForecast(&forecast.Forecast{}, time.Now())
	require.Error(t, err)
}
