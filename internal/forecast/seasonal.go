package forecast

import (
	"time"
)

// Seasonal multiplier bands. Weekday patterns are stronger than
// month-day patterns in the sales data, so they get the wider band.
const (
	weekdayFactorMin  = 0.70
	weekdayFactorMax  = 1.35
	monthDayFactorMin = 0.85
	monthDayFactorMax = 1.20

	// Buckets with fewer observations than this keep a neutral factor.
	minBucketObservations = 2
)

// Seasonality holds day-of-week and day-of-month revenue multipliers
// derived from bucket averages, each normalized around 1.0.
type Seasonality struct {
	Weekday  [7]float64  `json:"weekday"`   // indexed by time.Weekday
	MonthDay [32]float64 `json:"month_day"` // indexed by day of month, [0] unused
}

// Decompose averages the series by day-of-week and day-of-month and
// converts each bucket average into a multiplier against the overall
// mean, clamped to the configured bands.
func Decompose(points []Point) Seasonality {
	s := neutralSeasonality()
	if len(points) == 0 {
		return s
	}

	total := 0.0
	for _, p := range points {
		total += p.Value
	}
	mean := total / float64(len(points))
	if mean <= 0 {
		return s
	}

	var weekdaySum [7]float64
	var weekdayCount [7]int
	var monthDaySum [32]float64
	var monthDayCount [32]int

	for _, p := range points {
		wd := int(p.Date.Weekday())
		weekdaySum[wd] += p.Value
		weekdayCount[wd]++

		md := p.Date.Day()
		monthDaySum[md] += p.Value
		monthDayCount[md]++
	}

	for wd := 0; wd < 7; wd++ {
		if weekdayCount[wd] < minBucketObservations {
			continue
		}
		factor := (weekdaySum[wd] / float64(weekdayCount[wd])) / mean
		s.Weekday[wd] = clampFactor(factor, weekdayFactorMin, weekdayFactorMax)
	}

	for md := 1; md <= 31; md++ {
		if monthDayCount[md] < minBucketObservations {
			continue
		}
		factor := (monthDaySum[md] / float64(monthDayCount[md])) / mean
		s.MonthDay[md] = clampFactor(factor, monthDayFactorMin, monthDayFactorMax)
	}

	return s
}

// Factor returns the combined seasonal multiplier for a date.
func (s Seasonality) Factor(date time.Time) float64 {
	return s.Weekday[int(date.Weekday())] * s.MonthDay[date.Day()]
}

func neutralSeasonality() Seasonality {
	var s Seasonality
	for i := range s.Weekday {
		s.Weekday[i] = 1.0
	}
	for i := range s.MonthDay {
		s.MonthDay[i] = 1.0
	}
	return s
}

func clampFactor(f, min, max float64) float64 {
	if f != f { // NaN
		return 1.0
	}
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}
