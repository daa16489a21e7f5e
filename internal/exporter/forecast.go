package exporter

import (
	"fmt"
	"time"

	"dbusana/internal/forecast"
)

// ForecastExporter writes forecast runs to CSV for offline analysis.
type ForecastExporter struct {
	csvWriter *CSVWriter
}

// NewForecastExporter creates a forecast exporter rooted at exportDir.
func NewForecastExporter(exportDir string) *ForecastExporter {
	return &ForecastExporter{csvWriter: NewCSVWriter(exportDir)}
}

// ExportForecast writes one row per predicted day plus a companion
// metrics file, both named after the run timestamp. Returns the
// forecast file path relative to the export dir.
func (e *ForecastExporter) ExportForecast(fc *forecast.Forecast, runAt time.Time) (string, error) {
	if fc == nil || len(fc.Results) == 0 {
		return "", fmt.Errorf("no forecast results to export")
	}

	stamp := runAt.Format("2006-01-02_150405")
	forecastFile := fmt.Sprintf("forecast_%s_%s.csv", fc.Model, stamp)

	records := make([][]string, 0, len(fc.Results))
	for _, r := range fc.Results {
		records = append(records, []string{
			r.Date.Format("2006-01-02"),
			formatFloat(r.Predicted),
			formatFloat(r.LowerBound),
			formatFloat(r.UpperBound),
			formatFloat(r.Confidence),
			string(r.Model),
		})
	}

	headers := []string{"Date", "Predicted", "LowerBound", "UpperBound", "Confidence", "Model"}
	if err := e.csvWriter.WriteSimpleCSV(forecastFile, headers, records); err != nil {
		return "", fmt.Errorf("export forecast: %w", err)
	}

	metricsFile := fmt.Sprintf("forecast_%s_%s_metrics.csv", fc.Model, stamp)
	metricsHeaders := []string{"MAPE", "MAE", "RMSE", "RSquared", "Confidence", "QualityScore", "HoldoutDays"}
	metricsRecord := [][]string{{
		formatFloat(fc.Metrics.MAPE),
		formatFloat(fc.Metrics.MAE),
		formatFloat(fc.Metrics.RMSE),
		formatFloat(fc.Metrics.RSquared),
		formatFloat(fc.Metrics.Confidence),
		formatFloat(fc.Metrics.QualityScore),
		formatInt(fc.Metrics.HoldoutDays),
	}}
	if err := e.csvWriter.WriteSimpleCSV(metricsFile, metricsHeaders, metricsRecord); err != nil {
		return "", fmt.Errorf("export forecast metrics: %w", err)
	}

	return forecastFile, nil
}
