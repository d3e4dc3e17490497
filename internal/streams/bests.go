package streams

import "math"

// Canonical best-effort window labels, longest first. Heart rate skips the
// short windows: sprint efforts are power territory, heart rate response is
// too slow for them to mean anything.
var (
	WattsLabels     = []string{"1hr", "20min", "10min", "5min", "2min", "1min", "30sec", "5sec", "max"}
	HeartRateLabels = []string{"1hr", "20min", "10min", "5min", "max"}

	windowSeconds = map[string]int{
		"1hr":   3600,
		"20min": 1200,
		"10min": 600,
		"5min":  300,
		"2min":  120,
		"1min":  60,
		"30sec": 30,
		"5sec":  5,
		"max":   1,
	}
)

// WindowSeconds returns the window length in seconds for a canonical label.
func WindowSeconds(label string) (int, bool) {
	w, ok := windowSeconds[label]
	return w, ok
}

// Bests holds the best sliding-window averages of a stream (or of an
// athlete's whole history) for the canonical window set. Map keys are the
// canonical labels; values are rounded averages.
type Bests struct {
	HasHeartRate bool           `json:"hasHeartRate"`
	HeartRate    map[string]int `json:"heartrate"`
	HasWatts     bool           `json:"hasWatts"`
	Watts        map[string]int `json:"watts"`
}

// NewBests returns a zeroed bests record with every canonical bucket present,
// the shape athlete profiles are seeded with.
func NewBests() Bests {
	b := Bests{
		HeartRate: make(map[string]int, len(HeartRateLabels)),
		Watts:     make(map[string]int, len(WattsLabels)),
	}
	for _, label := range HeartRateLabels {
		b.HeartRate[label] = 0
	}
	for _, label := range WattsLabels {
		b.Watts[label] = 0
	}
	return b
}

// Copy returns a deep copy of the bests record.
func (b Bests) Copy() Bests {
	c := Bests{
		HasHeartRate: b.HasHeartRate,
		HasWatts:     b.HasWatts,
		HeartRate:    make(map[string]int, len(b.HeartRate)),
		Watts:        make(map[string]int, len(b.Watts)),
	}
	for k, v := range b.HeartRate {
		c.HeartRate[k] = v
	}
	for k, v := range b.Watts {
		c.Watts[k] = v
	}
	return c
}

// BestWindowAverage returns the maximum sliding-window average over all
// offsets i with i+windowSecs <= len(stream), rounded to the nearest integer.
// ok is false when the stream is shorter than the window.
func BestWindowAverage(stream []float64, windowSecs int) (int, bool) {
	if windowSecs <= 0 || len(stream) < windowSecs {
		return 0, false
	}

	var sum float64
	for i := 0; i < windowSecs; i++ {
		sum += stream[i]
	}
	best := sum
	for i := windowSecs; i < len(stream); i++ {
		sum += stream[i] - stream[i-windowSecs]
		if sum > best {
			best = sum
		}
	}

	return int(math.Round(best / float64(windowSecs))), true
}

// ActivityBests computes the per-window bests of a single activity's streams.
// Windows longer than a stream are simply skipped and stay at zero.
func ActivityBests(watts, heartRate []float64) Bests {
	bests := NewBests()
	bests.HasWatts = len(watts) > 0
	bests.HasHeartRate = len(heartRate) > 0

	for _, label := range WattsLabels {
		if v, ok := BestWindowAverage(watts, windowSeconds[label]); ok {
			bests.Watts[label] = v
		}
	}
	for _, label := range HeartRateLabels {
		if v, ok := BestWindowAverage(heartRate, windowSeconds[label]); ok {
			bests.HeartRate[label] = v
		}
	}

	return bests
}
