package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaydayFactor(t *testing.T) {
	tests := []struct {
		name     string
		day      int
		expected float64
	}{
		{"payroll_25th", 25, paydayBoost},
		{"payroll_spillover_27th", 27, paydayBoost},
		{"month_start", 1, paydayBoost},
		{"mid_month_dead_zone", 17, midMonthDip},
		{"ordinary_day", 10, neutralFactor},
		{"month_end_before_payday", 23, neutralFactor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, paydayFactor(tt.day))
		})
	}
}

func TestSeasonFactor(t *testing.T) {
	assert.Equal(t, highSeasonBoost, seasonFactor(time.April), "Ramadan season")
	assert.Equal(t, highSeasonBoost, seasonFactor(time.December), "year-end holidays")
	assert.Equal(t, lowSeasonFactor, seasonFactor(time.January), "post-holiday slump")
	assert.Equal(t, neutralFactor, seasonFactor(time.August))
}

func TestCalendarFactorComposes(t *testing.T) {
	// Saturday 26 April 2025: payday + weekend + high season all stack.
	peak := time.Date(2025, 4, 26, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, paydayBoost*weekendBoost*highSeasonBoost, CalendarFactor(peak), 1e-9)

	// Wednesday 16 July 2025: mid-month dip only.
	quiet := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, midMonthDip, CalendarFactor(quiet), 1e-9)
}

func TestVolatilityWaveDeterministic(t *testing.T) {
	date := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, VolatilityWave(date, 0.15), VolatilityWave(date, 0.15))
}

func TestVolatilityWaveBounds(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		date := start.AddDate(0, 0, i)
		wave := VolatilityWave(date, 5.0) // extreme dispersion still capped
		assert.GreaterOrEqual(t, wave, 1-maxWaveAmplitude)
		assert.LessOrEqual(t, wave, 1+maxWaveAmplitude)
	}
}

func TestVolatilityWaveQuietSeries(t *testing.T) {
	// Zero dispersion means no wave at all.
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 1.0, VolatilityWave(date, 0), 1e-9)
}
