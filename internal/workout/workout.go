package workout

import (
	"time"

	"github.com/velomont/trainlog/internal/streams"
	"github.com/velomont/trainlog/internal/zones"
)

// Supported activity types.
const (
	ActivityRide = "ride"
	ActivityRun  = "run"
	ActivitySwim = "swim"
	// ActivityWorkout is strength training; it carries no streams, zones,
	// bests or stress scores.
	ActivityWorkout = "workout"
)

// Streams holds the raw per-second series of an activity, keyed the way the
// import source delivers them.
type Streams struct {
	Time      []float64 `json:"time,omitempty"`
	HeartRate []float64 `json:"heartrate,omitempty"`
	Watts     []float64 `json:"watts,omitempty"`
}

// Workout is a single planned or completed activity of one athlete.
// Zones, Bests, Effort and HREffort stay nil when they could not be
// computed; nil means "unavailable", never zero.
type Workout struct {
	ID          int    `json:"id"`
	AthleteID   int    `json:"athlete_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Activity    string `json:"activity"`

	Source   string `json:"source"`
	SourceID string `json:"source_id"`

	// DurationSec is moving time in seconds; DistanceMeters the covered
	// distance.
	DurationSec    int     `json:"duration"`
	DistanceMeters float64 `json:"length"`

	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at"`

	Planned   bool `json:"planned"`
	Completed bool `json:"is_completed"`

	Streams *Streams            `json:"streams,omitempty"`
	Bests   *streams.Bests      `json:"bests,omitempty"`
	Zones   *zones.Distribution `json:"zones,omitempty"`

	// Effort is the power-based TSS, HREffort the heart-rate-based one.
	Effort   *int `json:"effort"`
	HREffort *int `json:"hr_effort"`
}

// StartedOn reports whether the workout started on the given calendar day
// (UTC).
func (w *Workout) StartedOn(day time.Time) bool {
	y1, m1, d1 := w.StartedAt.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
