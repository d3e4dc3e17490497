package streams

import (
	"errors"
	"math"
)

var (
	ErrEmptyStream    = errors.New("stream is empty")
	ErrTargetTooSmall = errors.New("target count must be greater than 1")
)

// Interpolate resamples the given samples onto a fixed grid of targetCount
// points. The first and last samples are preserved exactly; interior points
// are linearly interpolated between the two nearest source samples and
// rounded to the nearest integer value.
func Interpolate(samples []float64, targetCount int) ([]float64, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyStream
	}
	if targetCount <= 1 {
		return nil, ErrTargetTooSmall
	}

	out := make([]float64, targetCount)
	step := float64(len(samples)-1) / float64(targetCount-1)

	out[0] = samples[0]
	for i := 1; i < targetCount-1; i++ {
		pos := float64(i) * step
		before := int(math.Floor(pos))
		after := int(math.Ceil(pos))
		if before == after {
			// grid point falls exactly on a source sample
			out[i] = samples[before]
			continue
		}
		at := pos - float64(before)
		out[i] = math.Round(samples[before] + (samples[after]-samples[before])*at)
	}
	out[targetCount-1] = samples[len(samples)-1]

	return out, nil
}
