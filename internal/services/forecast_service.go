package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dbusana/internal/config"
	apierrors "dbusana/internal/errors"
	"dbusana/internal/exporter"
	"dbusana/internal/forecast"
	"dbusana/internal/infrastructure"
	api "dbusana/pkg/contracts/api/v1"
	"dbusana/pkg/contracts/events"
)

// DailyRevenueProvider supplies the historical series the forecast
// engine runs on. The sales store implements it.
type DailyRevenueProvider interface {
	DailyRevenue(from, to time.Time) ([]forecast.Point, error)
}

// ForecastBroadcaster pushes forecast lifecycle events to connected
// dashboards. The WebSocket hub implements it; nil disables pushes.
type ForecastBroadcaster interface {
	BroadcastForecastStarted(run events.ForecastRun)
	BroadcastForecastCompleted(run events.ForecastRun)
}

// ForecastOutcome bundles the forecast with its export artifact.
type ForecastOutcome struct {
	Forecast   *forecast.Forecast `json:"forecast"`
	DataDays   int                `json:"data_days"`
	ExportFile string             `json:"export_file,omitempty"`
}

// ForecastService runs revenue forecasts over the stored sales series.
type ForecastService struct {
	engine   *forecast.Engine
	provider DailyRevenueProvider
	exporter *exporter.ForecastExporter
	hub      ForecastBroadcaster
	metrics  *infrastructure.BusinessMetrics
	cfg      config.ForecastConfig
	logger   *slog.Logger
}

// NewForecastService creates a new forecast service with injected
// dependencies. exporter, hub and metrics may be nil.
func NewForecastService(engine *forecast.Engine, provider DailyRevenueProvider, fcExporter *exporter.ForecastExporter, hub ForecastBroadcaster, metrics *infrastructure.BusinessMetrics, cfg config.ForecastConfig, logger *slog.Logger) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultHorizon <= 0 {
		cfg.DefaultHorizon = forecast.DefaultHorizonDays
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &ForecastService{
		engine:   engine,
		provider: provider,
		exporter: fcExporter,
		hub:      hub,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// Forecast produces horizon daily revenue predictions. With no model
// pinned the engine walks its fallback chain; a pinned model runs
// alone and fails when the series is too short for it.
func (fs *ForecastService) Forecast(ctx context.Context, req api.ForecastRequest) (*ForecastOutcome, error) {
	// CLI callers arrive without the HTTP middleware's trace id.
	ctx = infrastructure.EnsureTraceID(ctx)

	horizon := req.Horizon
	if horizon == 0 {
		horizon = fs.cfg.DefaultHorizon
	}
	if horizon < 1 || horizon > forecast.MaxHorizonDays {
		return nil, fmt.Errorf("%w: %d", apierrors.ErrHorizonOutOfRange, horizon)
	}

	if req.Model != "" && !knownModel(forecast.Model(req.Model)) {
		return nil, fmt.Errorf("%w: %q", apierrors.ErrUnknownModel, req.Model)
	}

	from, to, err := ResolveDateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	points, err := fs.provider.DailyRevenue(from, to)
	if err != nil {
		return nil, err
	}

	if fs.hub != nil {
		fs.hub.BroadcastForecastStarted(events.ForecastRun{
			Horizon:  horizon,
			Model:    req.Model,
			DataDays: len(points),
		})
	}

	runCtx, cancel := context.WithTimeout(ctx, fs.cfg.Timeout)
	defer cancel()

	start := time.Now()
	infrastructure.RecordActiveForecastChange(ctx, fs.metrics, 1)
	defer infrastructure.RecordActiveForecastChange(ctx, fs.metrics, -1)

	var fc *forecast.Forecast
	if req.Model != "" {
		results, runErr := fs.engine.ForecastWith(runCtx, forecast.Model(req.Model), points, horizon)
		if runErr != nil {
			// Known model on a validated series, so failure means the
			// history is too short for it
			infrastructure.RecordForecastMetrics(ctx, fs.metrics, req.Model, false, 0, time.Since(start), runErr)
			return nil, fmt.Errorf("%w: %v", apierrors.ErrInsufficientData, runErr)
		}
		fc = &forecast.Forecast{
			Results: results,
			Model:   forecast.Model(req.Model),
			Metrics: forecast.Metrics{Confidence: meanConfidence(results)},
		}
	} else {
		fc, err = fs.engine.Forecast(runCtx, points, horizon)
		if err != nil {
			infrastructure.RecordForecastMetrics(ctx, fs.metrics, "", false, 0, time.Since(start), err)
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: forecast exceeded %s", ErrOperationTimeout, fs.cfg.Timeout)
			}
			return nil, fmt.Errorf("forecast: %w", err)
		}
	}

	fellBack := req.Model == "" && fc.Model != forecast.ModelHybrid
	infrastructure.RecordForecastMetrics(ctx, fs.metrics, fc.Model.String(), fellBack, fc.Metrics.QualityScore, time.Since(start), nil)

	outcome := &ForecastOutcome{
		Forecast: fc,
		DataDays: len(points),
	}

	if fs.exporter != nil {
		fileName, expErr := fs.exporter.ExportForecast(fc, time.Now())
		if expErr != nil {
			// Export is best effort; the forecast itself succeeded
			fs.logger.WarnContext(ctx, "forecast export failed",
				slog.String("error", expErr.Error()))
		} else {
			outcome.ExportFile = fileName
		}
	}

	if fs.hub != nil {
		fs.hub.BroadcastForecastCompleted(events.ForecastRun{
			Horizon:    horizon,
			Model:      fc.Model.String(),
			DataDays:   len(points),
			MAPE:       fc.Metrics.MAPE,
			Quality:    fc.Metrics.QualityScore,
			DurationMS: time.Since(start).Milliseconds(),
		})
	}

	fs.logger.InfoContext(ctx, "forecast run finished",
		slog.String("model", fc.Model.String()),
		slog.Int("horizon", horizon),
		slog.Int("data_days", len(points)),
		slog.Float64("quality_score", fc.Metrics.QualityScore))

	return outcome, nil
}

func knownModel(m forecast.Model) bool {
	switch m {
	case forecast.ModelHybrid, forecast.ModelVolatility, forecast.ModelSeasonalTrend,
		forecast.ModelLinearTrend, forecast.ModelMovingAverage, forecast.ModelFlat:
		return true
	}
	return false
}

func meanConfidence(results []forecast.Result) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}
