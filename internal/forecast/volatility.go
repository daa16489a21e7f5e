package forecast

import (
	"hash/fnv"
	"math"
	"time"
)

// Volatility wave tuning. The wave is a deterministic stand-in for
// day-to-day noise: sine components at the weekly, monthly and
// quarterly periods plus a date-hash term, all scaled by the
// historical return dispersion so quiet series get quiet forecasts.
const (
	weeklyWaveWeight    = 0.45
	monthlyWaveWeight   = 0.30
	quarterlyWaveWeight = 0.15
	noiseWeight         = 0.10

	// The wave multiplier never moves a prediction more than this.
	maxWaveAmplitude = 0.25
)

// VolatilityWave returns a multiplier around 1.0 for the given date.
// Identical inputs always produce identical output: the "random" term
// is seeded from a hash of the date, so forecasts are reproducible.
func VolatilityWave(date time.Time, returnStdDev float64) float64 {
	if math.IsNaN(returnStdDev) || math.IsInf(returnStdDev, 0) || returnStdDev < 0 {
		returnStdDev = 0
	}

	day := float64(date.Unix() / 86400)

	wave := weeklyWaveWeight*math.Sin(2*math.Pi*day/7) +
		monthlyWaveWeight*math.Sin(2*math.Pi*day/30+1.3) +
		quarterlyWaveWeight*math.Sin(2*math.Pi*day/91+2.7) +
		noiseWeight*dateNoise(date)

	amplitude := returnStdDev
	if amplitude > maxWaveAmplitude {
		amplitude = maxWaveAmplitude
	}

	return 1 + wave*amplitude
}

// dateNoise maps a date hash onto [-1, 1].
func dateNoise(date time.Time) float64 {
	h := fnv.New32a()
	h.Write([]byte(date.Format("2006-01-02")))
	return float64(h.Sum32()%2000)/1000 - 1
}
