package forecast

import (
	"time"
)

// Model identifies which forecasting model produced a result.
type Model string

const (
	// ModelHybrid blends the volatility, seasonal-trend and linear-trend
	// models into a single prediction. Richest model, first in the chain.
	ModelHybrid Model = "hybrid"
	// ModelVolatility composes trend, seasonality and a deterministic
	// volatility wave scaled by historical return dispersion.
	ModelVolatility Model = "volatility"
	// ModelSeasonalTrend composes trend with day-of-week and
	// day-of-month seasonal multipliers.
	ModelSeasonalTrend Model = "seasonal_trend"
	// ModelLinearTrend extrapolates a bounded least-squares trend line.
	ModelLinearTrend Model = "linear_trend"
	// ModelMovingAverage carries the trailing average forward.
	ModelMovingAverage Model = "moving_average"
	// ModelFlat is the emergency fallback: a flat line at the last
	// observed value with wide bounds and floor confidence.
	ModelFlat Model = "flat"
)

// String returns the string representation of the model.
func (m Model) String() string {
	return string(m)
}

// Point is a single daily observation of the series being forecast.
// Series handed to the engine must be chronologically sorted with at
// most one point per date; the sales store sums duplicates beforehand.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// IsValid checks that the observation is usable.
func (p Point) IsValid() bool {
	return !p.Date.IsZero() && p.Value >= 0
}

// Components carries the decomposition of a single predicted value so
// callers can see how much each factor contributed.
type Components struct {
	Baseline   float64 `json:"baseline"`   // trailing-average level
	Trend      float64 `json:"trend"`      // cumulative trend multiplier
	Seasonal   float64 `json:"seasonal"`   // weekday x month-day multiplier
	Volatility float64 `json:"volatility"` // deterministic wave multiplier
	Business   float64 `json:"business"`   // payday / fashion-season multiplier
}

// Result is one forecast row for a single future day.
type Result struct {
	Date       time.Time  `json:"date"`
	Predicted  float64    `json:"predicted"`
	LowerBound float64    `json:"lower_bound"`
	UpperBound float64    `json:"upper_bound"`
	Confidence float64    `json:"confidence"`
	Model      Model      `json:"model"`
	Components Components `json:"components"`
}

// IsValid checks the per-row invariants: non-negative prediction and
// ordered bounds.
func (r Result) IsValid() bool {
	return r.Predicted >= 0 &&
		r.LowerBound <= r.Predicted && r.Predicted <= r.UpperBound &&
		r.Confidence >= 0 && r.Confidence <= 1
}

// Metrics summarises forecast accuracy from holdout validation.
type Metrics struct {
	MAPE         float64 `json:"mape"`          // mean absolute percentage error (%)
	MAE          float64 `json:"mae"`           // mean absolute error
	RMSE         float64 `json:"rmse"`          // root mean squared error
	RSquared     float64 `json:"r_squared"`     // coefficient of determination
	Confidence   float64 `json:"confidence"`    // average per-row confidence
	QualityScore float64 `json:"quality_score"` // 0-100 blended quality
	HoldoutDays  int     `json:"holdout_days"`  // days withheld for validation
}

// SeriesStats contains the historical statistics the models build on.
type SeriesStats struct {
	Mean          float64 `json:"mean"`            // mean daily value
	StdDev        float64 `json:"std_dev"`         // daily value dispersion
	Baseline      float64 `json:"baseline"`        // trailing-window average
	ReturnMean    float64 `json:"return_mean"`     // mean day-over-day return
	ReturnStdDev  float64 `json:"return_std_dev"`  // return dispersion
	CV            float64 `json:"cv"`              // coefficient of variation
	Autocorr1     float64 `json:"autocorr_1"`      // lag-1 return autocorrelation
	Autocorr7     float64 `json:"autocorr_7"`      // lag-7 return autocorrelation
	ActiveDays    int     `json:"active_days"`     // days with non-zero revenue
	TotalDays     int     `json:"total_days"`      // observations in the series
	LastValue     float64 `json:"last_value"`      // most recent observation
	DailyGrowth   float64 `json:"daily_growth"`    // bounded trend growth per day
	ZeroRunLength int     `json:"zero_run_length"` // trailing run of zero days
}

// Constants shared between the models. Values mirror the business
// tuning from the production dashboard.
const (
	// Minimum series lengths per model. A series shorter than a model's
	// minimum falls through to the next model in the chain.
	MinPointsHybrid        = 28
	MinPointsVolatility    = 21
	MinPointsSeasonalTrend = 14
	MinPointsLinearTrend   = 7
	MinPointsMovingAverage = 3

	// BaselineWindow is the trailing window used for the baseline level.
	BaselineWindow = 14

	// MaxDailyChange clamps a prediction to this percentage band around
	// the previous day's value.
	MaxDailyChange = 0.30

	// MaxDailyGrowth bounds the extracted trend slope per day.
	MaxDailyGrowth = 0.05

	// Confidence decays linearly with horizon from the base down to the
	// floor.
	BaseConfidence     = 0.92
	ConfidenceDecay    = 0.006
	ConfidenceFloor    = 0.30
	FlatConfidence     = 0.25
	DefaultHorizonDays = 30
	MaxHorizonDays     = 365
)

// Forecast bundles the rows and accuracy metrics returned by the
// engine for one run.
type Forecast struct {
	Results []Result `json:"results"`
	Metrics Metrics  `json:"metrics"`
	Model   Model    `json:"model"`
}
