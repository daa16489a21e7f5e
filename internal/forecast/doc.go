// Package forecast implements the revenue forecasting engine for the
// D'Busana sales dashboard.
//
// The engine generates daily revenue predictions by composing a
// baseline level with trend, seasonal, volatility and business-calendar
// factors, and falls back through a chain of progressively simpler
// models when the series cannot support the richer ones.
//
// # Models
//
// The fallback chain, richest first:
//
//  1. Hybrid: convex blend of the volatility, seasonal-trend and
//     linear-trend models, candidates evaluated concurrently.
//  2. Volatility: trend + seasonality + deterministic volatility wave
//     + business calendar.
//  3. Seasonal trend: trend + day-of-week / day-of-month multipliers.
//  4. Linear trend: bounded least-squares extrapolation.
//  5. Moving average: trailing average carried forward.
//  6. Flat: emergency flat line at the last observed value.
//
// # Architecture
//
//   - types.go: data structures, model constants, business tuning
//   - analyzer.go: historical return statistics and autocorrelation
//   - trend.go: bounded regression and growth-rate extraction
//   - seasonal.go: day-of-week / day-of-month decomposition
//   - volatility.go: deterministic date-seeded volatility wave
//   - business.go: payday and fashion-season calendar multipliers
//   - models.go: per-model walk-forward generators
//   - engine.go: dispatcher with fallback chain and hybrid blending
//   - validate.go: holdout validation and accuracy metrics
//
// # Usage
//
//	engine := forecast.NewEngine(slog.Default())
//	fc, err := engine.Forecast(ctx, points, 30)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range fc.Results {
//	    fmt.Println(row.Date, row.Predicted, row.Confidence)
//	}
//
// Every prediction is non-negative, bounded by its interval, and
// deterministic for identical input: the pseudo-random volatility term
// is seeded from a hash of the forecast date.
package forecast
