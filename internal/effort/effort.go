package effort

import (
	"math"

	"github.com/velomont/trainlog/internal/athlete"
)

const (
	// TRIMP exponential weighting constants (Banister model)
	trimpCoefficient = 0.64
	trimpExpMale     = 1.92
	trimpExpFemale   = 1.67

	metersPerMile = 1609.34
	hourSeconds   = 3600
)

// Kind tags which formula produced an effort value. Power-based scores are
// preferred over heart-rate-based ones when both exist.
type Kind int

const (
	Unavailable Kind = iota
	PowerBased
	HeartRateBased
)

func (k Kind) String() string {
	switch k {
	case PowerBased:
		return "power"
	case HeartRateBased:
		return "heartrate"
	default:
		return "unavailable"
	}
}

// Effort is a tagged daily-effort value, making the power-over-heart-rate
// precedence an explicit rule instead of null coalescing.
type Effort struct {
	Kind  Kind
	Value int
}

// Select picks the effort for a workout given its (possibly missing) stress
// scores: the power-based score wins when both are present.
func Select(powerTSS, hrTSS *int) Effort {
	switch {
	case powerTSS != nil:
		return Effort{Kind: PowerBased, Value: *powerTSS}
	case hrTSS != nil:
		return Effort{Kind: HeartRateBased, Value: *hrTSS}
	default:
		return Effort{Kind: Unavailable}
	}
}

// PowerTSS computes the cycling training stress score from normalized power
// and the athlete's threshold power. One hour at threshold scores 100.
// Returns nil when threshold power or normalized power is unavailable.
func PowerTSS(durationSec, normalizedPower int, thresholdPower *int) *int {
	if thresholdPower == nil || *thresholdPower <= 0 || normalizedPower <= 0 || durationSec <= 0 {
		return nil
	}

	ftp := float64(*thresholdPower)
	np := float64(normalizedPower)
	tss := 100 * float64(durationSec) * np * (np / ftp) / (ftp * hourSeconds)
	return roundedScore(tss)
}

// PaceTSS computes the running training stress score from the activity's
// normalized graded pace against the athlete's threshold pace (both in
// seconds per mile).
func PaceTSS(durationSec int, distanceMeters float64, thresholdPace *float64) *int {
	if thresholdPace == nil || *thresholdPace <= 0 || durationSec <= 0 || distanceMeters <= 0 {
		return nil
	}

	miles := distanceMeters / metersPerMile
	ngp := float64(durationSec) / miles
	intensity := *thresholdPace / ngp
	tss := 100 * float64(durationSec) * *thresholdPace * intensity / (ngp * hourSeconds)
	return roundedScore(tss)
}

// HRTSS computes the heart-rate training stress score using the TRIMP
// exponential model. Returns nil, not zero, when any of resting/max/threshold
// heart rate is missing or the heart rate stream is empty; absence of
// threshold data must not look like a zero-stress workout.
func HRTSS(p athlete.Profile, heartRate []float64) *int {
	if p.RestingHR == nil || p.MaxHR == nil || p.ThresholdHR == nil {
		return nil
	}
	if len(heartRate) == 0 {
		return nil
	}

	restingHR := float64(*p.RestingHR)
	reserve := float64(*p.MaxHR) - restingHR
	if reserve <= 0 {
		return nil
	}

	k := trimpExpFemale
	if p.Gender == athlete.GenderMale {
		k = trimpExpMale
	}

	var sum float64
	for _, hr := range heartRate {
		hrr := (hr - restingHR) / reserve
		sum += hrr * trimpCoefficient * math.Exp(k*hrr)
	}

	lthrr := (float64(*p.ThresholdHR) - restingHR) / reserve
	trimpThreshold := lthrr * trimpCoefficient * math.Exp(k*lthrr) * hourSeconds
	if trimpThreshold == 0 {
		return nil
	}

	return roundedScore(100 * sum / trimpThreshold)
}

func roundedScore(v float64) *int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	score := int(math.Round(v))
	return &score
}
