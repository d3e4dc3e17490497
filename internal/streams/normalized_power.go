package streams

import "math"

const rollingWindow = 30

// NormalizedPower computes the normalized power of a watts stream: the 4th
// root of the mean of the 4th powers of its 30-second rolling averages,
// rounded to the nearest integer. ok is false when the stream is too short
// for a single rolling window; callers must treat that as "unavailable" and
// must not feed it into stress-score computation.
func NormalizedPower(watts []float64) (int, bool) {
	if len(watts) < rollingWindow {
		return 0, false
	}

	var sum float64
	for i := 0; i < rollingWindow; i++ {
		sum += watts[i]
	}

	windows := len(watts) - rollingWindow + 1
	var fourthPowerSum float64
	mean := sum / rollingWindow
	fourthPowerSum += mean * mean * mean * mean
	for i := rollingWindow; i < len(watts); i++ {
		sum += watts[i] - watts[i-rollingWindow]
		mean = sum / rollingWindow
		fourthPowerSum += mean * mean * mean * mean
	}

	np := math.Pow(fourthPowerSum/float64(windows), 0.25)
	if math.IsNaN(np) || math.IsInf(np, 0) {
		return 0, false
	}

	return int(math.Round(np)), true
}
