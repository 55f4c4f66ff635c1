package series

import (
	"math"
	"math/rand"
)

// Simulated signal generator. Used for every read path while no real
// sample has ever been stored, so the dashboard has something to render
// on a fresh install. The base shape depends only on wall-clock time and
// the sensor's position in the configured order; jitter is fresh uniform
// noise on each call. No state is kept anywhere.
const (
	simBase      = 55.0
	simAmplitude = 18.0

	// Wave period differs per call site: fast for the latest view so the
	// numbers visibly move, slow for history so a day-scale chart looks
	// plausible.
	simLatestPeriod  = 60.0
	simHistoryPeriod = 1800.0

	simLatestJitter  = 3.0
	simHistoryJitter = 2.0

	simWindowDrift = 0.02    // percent lost per minute of lookback
	simRangeDrift  = 0.00002 // percent lost per second past range start
)

// SimulatedLatest produces an instantaneous value for the sensor at
// position idx in the configured order.
func SimulatedLatest(idx int, now float64) float64 {
	base := simBase + simAmplitude*math.Sin(now/simLatestPeriod+float64(idx))
	return Round1(clampPercent(base + jitter(simLatestJitter)))
}

// SimulatedWindow produces a value for one bucket of a windowed history,
// minutesBack buckets before the most recent one. Older buckets drift
// lower.
func SimulatedWindow(idx int, ts int64, minutesBack int) float64 {
	base := simBase + simAmplitude*math.Sin(float64(ts)/simHistoryPeriod+float64(idx))
	drift := -simWindowDrift * float64(minutesBack)
	return Round1(clampPercent(base + drift + jitter(simHistoryJitter)))
}

// SimulatedRange produces a value for one bucket of a date-range
// history, drifting with distance from the range start.
func SimulatedRange(idx int, ts, startTS int64) float64 {
	base := simBase + simAmplitude*math.Sin(float64(ts)/simHistoryPeriod+float64(idx))
	drift := -simRangeDrift * float64(ts-startTS)
	return Round1(clampPercent(base + drift + jitter(simHistoryJitter)))
}

// jitter draws uniformly from [-band, band].
func jitter(band float64) float64 {
	return (rand.Float64()*2 - 1) * band
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
