package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbusana/internal/config"
	apierrors "dbusana/internal/errors"
	"dbusana/internal/exporter"
	"dbusana/internal/forecast"
	"dbusana/internal/infrastructure"
	api "dbusana/pkg/contracts/api/v1"
	"dbusana/pkg/contracts/events"
)

type stubProvider struct {
	points []forecast.Point
	err    error
}

func (p *stubProvider) DailyRevenue(from, to time.Time) ([]forecast.Point, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.points, nil
}

type captureBroadcaster struct {
	mu        sync.Mutex
	started   []events.ForecastRun
	completed []events.ForecastRun
}

func (c *captureBroadcaster) BroadcastForecastStarted(run events.ForecastRun) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, run)
}

func (c *captureBroadcaster) BroadcastForecastCompleted(run events.ForecastRun) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, run)
}

func seriesOf(days int) []forecast.Point {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]forecast.Point, days)
	for i := range points {
		points[i] = forecast.Point{
			Date:  start.AddDate(0, 0, i),
			Value: 500000 + float64(i%7)*40000 + float64(i)*2000,
		}
	}
	return points
}

func newForecastService(provider DailyRevenueProvider, hub ForecastBroadcaster, exportDir string) *ForecastService {
	var fcExporter *exporter.ForecastExporter
	if exportDir != "" {
		fcExporter = exporter.NewForecastExporter(exportDir)
	}
	cfg := config.ForecastConfig{DefaultHorizon: 7, Timeout: 10 * time.Second}
	return NewForecastService(forecast.NewEngine(discardLogger()), provider, fcExporter, hub, nil, cfg, discardLogger())
}

func TestForecast_RecordsRunMetrics(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(nil, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	cfg := config.ForecastConfig{DefaultHorizon: 7, Timeout: 10 * time.Second}
	svc := NewForecastService(forecast.NewEngine(discardLogger()), &stubProvider{points: seriesOf(40)},
		nil, nil, metrics, cfg, discardLogger())

	_, err = svc.Forecast(context.Background(), api.ForecastRequest{Horizon: 7})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	assert.Contains(t, body, "forecast_runs_total")
	assert.Contains(t, body, "forecast_duration_seconds")
}

func TestForecast_AutoModel(t *testing.T) {
	hub := &captureBroadcaster{}
	svc := newForecastService(&stubProvider{points: seriesOf(40)}, hub, t.TempDir())

	outcome, err := svc.Forecast(context.Background(), api.ForecastRequest{Horizon: 14})
	require.NoError(t, err)

	require.Len(t, outcome.Forecast.Results, 14)
	assert.NotEmpty(t, outcome.Forecast.Model)
	assert.Equal(t, 40, outcome.DataDays)
	assert.NotEmpty(t, outcome.ExportFile)

	require.Len(t, hub.started, 1)
	require.Len(t, hub.completed, 1)
	assert.Equal(t, 14, hub.completed[0].Horizon)
	assert.Equal(t, outcome.Forecast.Model.String(), hub.completed[0].Model)
}

func TestForecast_PinnedModel(t *testing.T) {
	svc := newForecastService(&stubProvider{points: seriesOf(10)}, nil, "")

	outcome, err := svc.Forecast(context.Background(), api.ForecastRequest{
		Horizon: 5,
		Model:   "moving_average",
	})
	require.NoError(t, err)

	require.Len(t, outcome.Forecast.Results, 5)
	assert.Equal(t, forecast.ModelMovingAverage, outcome.Forecast.Model)
	assert.Greater(t, outcome.Forecast.Metrics.Confidence, 0.0)
}

func TestForecast_PinnedModelInsufficientHistory(t *testing.T) {
	svc := newForecastService(&stubProvider{points: seriesOf(5)}, nil, "")

	_, err := svc.Forecast(context.Background(), api.ForecastRequest{
		Horizon: 5,
		Model:   "hybrid",
	})
	assert.ErrorIs(t, err, apierrors.ErrInsufficientData)
}

func TestForecast_HorizonOutOfRange(t *testing.T) {
	svc := newForecastService(&stubProvider{points: seriesOf(40)}, nil, "")

	_, err := svc.Forecast(context.Background(), api.ForecastRequest{Horizon: 400})
	assert.ErrorIs(t, err, apierrors.ErrHorizonOutOfRange)

	_, err = svc.Forecast(context.Background(), api.ForecastRequest{Horizon: -3})
	assert.ErrorIs(t, err, apierrors.ErrHorizonOutOfRange)
}

func TestForecast_UnknownModel(t *testing.T) {
	svc := newForecastService(&stubProvider{points: seriesOf(40)}, nil, "")

	_, err := svc.Forecast(context.Background(), api.ForecastRequest{Horizon: 7, Model: "arima"})
	assert.ErrorIs(t, err, apierrors.ErrUnknownModel)
}

func TestForecast_NoSalesData(t *testing.T) {
	svc := newForecastService(&stubProvider{err: apierrors.ErrNoSalesData}, nil, "")

	_, err := svc.Forecast(context.Background(), api.ForecastRequest{Horizon: 7})
	assert.ErrorIs(t, err, apierrors.ErrNoSalesData)
}

func TestForecast_DefaultHorizon(t *testing.T) {
	svc := newForecastService(&stubProvider{points: seriesOf(40)}, nil, "")

	outcome, err := svc.Forecast(context.Background(), api.ForecastRequest{})
	require.NoError(t, err)
	assert.Len(t, outcome.Forecast.Results, 7)
}

func TestForecast_BadDateRange(t *testing.T) {
	svc := newForecastService(&stubProvider{points: seriesOf(40)}, nil, "")

	_, err := svc.Forecast(context.Background(), api.ForecastRequest{
		Horizon: 7,
		DateRangeRequest: api.DateRangeRequest{
			From: "not-a-date",
		},
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
