package forecast

import (
	"time"
)

// Business-calendar multipliers tuned for the Indonesian fashion
// retail cycle: salaries land around the 25th and the 1st, weekends
// carry more marketplace traffic, and demand peaks ahead of Ramadan /
// Lebaran and the year-end holidays.
const (
	paydayBoost      = 1.12
	midMonthDip      = 0.95
	weekendBoost     = 1.08
	highSeasonBoost  = 1.15
	lowSeasonFactor  = 0.92
	neutralFactor    = 1.0
)

// CalendarFactor returns the combined business multiplier for a date.
func CalendarFactor(date time.Time) float64 {
	return paydayFactor(date.Day()) * weekendFactor(date.Weekday()) * seasonFactor(date.Month())
}

// paydayFactor boosts the days right after the two common Indonesian
// payroll dates and dips the dead zone in between.
func paydayFactor(day int) float64 {
	switch {
	case day >= 25 && day <= 28:
		return paydayBoost
	case day >= 1 && day <= 3:
		return paydayBoost
	case day >= 15 && day <= 20:
		return midMonthDip
	default:
		return neutralFactor
	}
}

func weekendFactor(wd time.Weekday) float64 {
	if wd == time.Saturday || wd == time.Sunday {
		return weekendBoost
	}
	return neutralFactor
}

// seasonFactor encodes the fashion-season demand cycle: Ramadan /
// Lebaran shopping (March-May), year-end holidays (November-December)
// and the slow restocking months right after each peak.
func seasonFactor(m time.Month) float64 {
	switch m {
	case time.March, time.April, time.May:
		return highSeasonBoost
	case time.November, time.December:
		return highSeasonBoost
	case time.January, time.June:
		return lowSeasonFactor
	default:
		return neutralFactor
	}
}
