package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Hybrid blend weights. The volatility model carries the most signal,
// the linear trend acts as a stabiliser.
const (
	hybridVolatilityWeight = 0.50
	hybridSeasonalWeight   = 0.30
	hybridTrendWeight      = 0.20
)

// Engine dispatches forecasting across the model chain. It tries the
// richest model the series supports, recovers from per-model failures
// and falls back down the chain, ending at the flat emergency model.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a forecasting engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// candidate pairs a model with its generator for the fallback chain.
type candidate struct {
	model Model
	run   generator
}

// chain returns the fallback chain richest-first. The flat model never
// fails on a non-empty series, so the chain always terminates.
func (e *Engine) chain(ctx context.Context) []candidate {
	return []candidate{
		{ModelHybrid, e.hybridModel(ctx)},
		{ModelVolatility, volatilityModel},
		{ModelSeasonalTrend, seasonalTrendModel},
		{ModelLinearTrend, linearTrendModel},
		{ModelMovingAverage, movingAverageModel},
		{ModelFlat, flatModel},
	}
}

// Forecast produces horizon daily predictions from the historical
// series, plus holdout-validation accuracy metrics.
func (e *Engine) Forecast(ctx context.Context, points []Point, horizon int) (*Forecast, error) {
	start := time.Now()

	horizon, err := normalizeHorizon(horizon)
	if err != nil {
		return nil, err
	}
	if err := validateSeries(points); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "starting forecast",
		"data_points", len(points),
		"horizon", horizon,
	)

	results, model, stats, err := e.run(ctx, points, horizon)
	if err != nil {
		return nil, err
	}

	metrics := e.validateHoldout(ctx, points, stats)
	metrics.Confidence = averageConfidence(results)
	metrics.QualityScore = qualityScore(metrics)

	e.logger.InfoContext(ctx, "forecast completed",
		"model", model.String(),
		"horizon", horizon,
		"mape", metrics.MAPE,
		"quality_score", metrics.QualityScore,
		"duration", time.Since(start),
	)

	return &Forecast{Results: results, Metrics: metrics, Model: model}, nil
}

// ForecastWith runs a single named model without the fallback chain.
// Used by callers that pin a model, and by holdout validation.
func (e *Engine) ForecastWith(ctx context.Context, model Model, points []Point, horizon int) ([]Result, error) {
	horizon, err := normalizeHorizon(horizon)
	if err != nil {
		return nil, err
	}
	if err := validateSeries(points); err != nil {
		return nil, err
	}

	stats, err := Analyze(points)
	if err != nil {
		return nil, err
	}
	seas := Decompose(points)

	for _, c := range e.chain(ctx) {
		if c.model != model {
			continue
		}
		return runSafe(c.run, points, horizon, stats, seas)
	}
	return nil, fmt.Errorf("unknown forecast model %q", model)
}

// run walks the fallback chain and returns the first model that
// succeeds.
func (e *Engine) run(ctx context.Context, points []Point, horizon int) ([]Result, Model, SeriesStats, error) {
	stats, err := Analyze(points)
	if err != nil {
		return nil, "", SeriesStats{}, err
	}
	seas := Decompose(points)

	// A dead series leaves the richer models nothing to fit: all-zero
	// history, or a trailing zero run covering the whole baseline
	// window, goes straight to the flat emergency model.
	if stats.Mean == 0 || stats.ZeroRunLength >= BaselineWindow {
		e.logger.InfoContext(ctx, "dead series, using flat model",
			"active_days", stats.ActiveDays,
			"zero_run", stats.ZeroRunLength,
		)
		results, err := runSafe(flatModel, points, horizon, stats, seas)
		if err != nil {
			return nil, "", stats, err
		}
		return results, ModelFlat, stats, nil
	}

	for _, c := range e.chain(ctx) {
		select {
		case <-ctx.Done():
			return nil, "", stats, fmt.Errorf("forecast cancelled: %w", ctx.Err())
		default:
		}

		results, err := runSafe(c.run, points, horizon, stats, seas)
		if err != nil {
			e.logger.DebugContext(ctx, "model failed, falling back",
				"model", c.model.String(),
				"error", err,
			)
			continue
		}
		return results, c.model, stats, nil
	}

	return nil, "", stats, fmt.Errorf("all forecast models failed for %d-point series", len(points))
}

// hybridModel blends the three strongest models. Candidates are
// evaluated concurrently; one failing candidate fails the hybrid and
// the chain falls back to the plain volatility model.
func (e *Engine) hybridModel(ctx context.Context) generator {
	return func(points []Point, horizon int, stats SeriesStats, seas Seasonality) ([]Result, error) {
		if len(points) < MinPointsHybrid {
			return nil, fmt.Errorf("hybrid model needs %d points, got %d", MinPointsHybrid, len(points))
		}

		var volRows, seasRows, trendRows []Result
		g, _ := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			volRows, err = runSafe(volatilityModel, points, horizon, stats, seas)
			return err
		})
		g.Go(func() (err error) {
			seasRows, err = runSafe(seasonalTrendModel, points, horizon, stats, seas)
			return err
		})
		g.Go(func() (err error) {
			trendRows, err = runSafe(linearTrendModel, points, horizon, stats, seas)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("hybrid candidate failed: %w", err)
		}

		results := make([]Result, horizon)
		for i := 0; i < horizon; i++ {
			results[i] = blendRows(volRows[i], seasRows[i], trendRows[i])
		}
		return results, nil
	}
}

// blendRows combines candidate rows as a convex combination, which
// preserves the bound ordering each row already satisfies.
func blendRows(vol, seas, trend Result) Result {
	blend := func(a, b, c float64) float64 {
		return hybridVolatilityWeight*a + hybridSeasonalWeight*b + hybridTrendWeight*c
	}
	return Result{
		Date:       vol.Date,
		Predicted:  blend(vol.Predicted, seas.Predicted, trend.Predicted),
		LowerBound: blend(vol.LowerBound, seas.LowerBound, trend.LowerBound),
		UpperBound: blend(vol.UpperBound, seas.UpperBound, trend.UpperBound),
		Confidence: vol.Confidence,
		Model:      ModelHybrid,
		Components: Components{
			Baseline:   vol.Components.Baseline,
			Trend:      blend(vol.Components.Trend, seas.Components.Trend, trend.Components.Trend),
			Seasonal:   blend(vol.Components.Seasonal, seas.Components.Seasonal, 1),
			Volatility: vol.Components.Volatility,
			Business:   vol.Components.Business,
		},
	}
}

// runSafe shields the chain from a panicking generator: a panic
// becomes an error and the dispatcher falls back to the next model.
func runSafe(run generator, points []Point, horizon int, stats SeriesStats, seas Seasonality) (results []Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results = nil
			err = fmt.Errorf("model panicked: %v", rec)
		}
	}()
	return run(points, horizon, stats, seas)
}

func normalizeHorizon(horizon int) (int, error) {
	if horizon == 0 {
		return DefaultHorizonDays, nil
	}
	if horizon < 0 || horizon > MaxHorizonDays {
		return 0, fmt.Errorf("horizon must be between 1 and %d days, got %d", MaxHorizonDays, horizon)
	}
	return horizon, nil
}

// validateSeries checks the input contract: non-empty, valid points,
// chronological order.
func validateSeries(points []Point) error {
	if len(points) == 0 {
		return fmt.Errorf("no historical data provided")
	}
	for i, p := range points {
		if !p.IsValid() {
			return fmt.Errorf("invalid point at index %d", i)
		}
	}
	if !sort.SliceIsSorted(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	}) {
		return fmt.Errorf("series must be chronologically sorted")
	}
	return nil
}

func averageConfidence(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}
