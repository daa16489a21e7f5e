package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecomposeWeekendUplift(t *testing.T) {
	// Weekends sell double in this series.
	points := genSeries(84, func(i int) float64 {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		wd := start.AddDate(0, 0, i).Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			return 2_000_000
		}
		return 1_000_000
	})

	seas := Decompose(points)

	assert.Greater(t, seas.Weekday[time.Saturday], seas.Weekday[time.Tuesday])
	assert.Greater(t, seas.Weekday[time.Sunday], 1.0)
	assert.Less(t, seas.Weekday[time.Tuesday], 1.0)
}

func TestDecomposeFactorsStayInBand(t *testing.T) {
	// Pathological series: one weekday carries all revenue. Factors
	// must still stay inside the clamp bands.
	points := genSeries(70, func(i int) float64 {
		if i%7 == 0 {
			return 10_000_000
		}
		return 10
	})

	seas := Decompose(points)

	for wd, f := range seas.Weekday {
		assert.GreaterOrEqual(t, f, weekdayFactorMin, "weekday %d", wd)
		assert.LessOrEqual(t, f, weekdayFactorMax, "weekday %d", wd)
	}
	for md := 1; md <= 31; md++ {
		assert.GreaterOrEqual(t, seas.MonthDay[md], monthDayFactorMin, "month day %d", md)
		assert.LessOrEqual(t, seas.MonthDay[md], monthDayFactorMax, "month day %d", md)
	}
}

func TestDecomposeEmptyAndFlatSeries(t *testing.T) {
	neutral := Decompose(nil)
	for _, f := range neutral.Weekday {
		assert.Equal(t, 1.0, f)
	}

	// All-zero series has no mean to normalise against.
	zeros := Decompose(genSeries(30, func(i int) float64 { return 0 }))
	date := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, zeros.Factor(date))
}

func TestDecomposeSparseBucketsStayNeutral(t *testing.T) {
	// A one-week series sees each month day at most once, so month-day
	// factors must stay neutral.
	points := genSeries(7, func(i int) float64 { return float64(1_000_000 * (i + 1)) })
	seas := Decompose(points)

	for md := 1; md <= 31; md++ {
		assert.Equal(t, 1.0, seas.MonthDay[md], "month day %d", md)
	}
}
