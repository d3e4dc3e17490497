// Package ingest turns a raw imported activity into a stored workout:
// normalizes the activity type, interpolates streams, computes zones, bests
// and stress scores, merges into a planned workout when one matches, and
// updates the athlete's personal records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/velomont/trainlog/internal/athlete"
	"github.com/velomont/trainlog/internal/effort"
	"github.com/velomont/trainlog/internal/records"
	"github.com/velomont/trainlog/internal/streams"
	"github.com/velomont/trainlog/internal/telemetry/metrics"
	"github.com/velomont/trainlog/internal/telemetry/tracing"
	"github.com/velomont/trainlog/internal/workout"
	"github.com/velomont/trainlog/internal/zones"
)

var (
	ErrUnsupportedActivity = errors.New("unsupported activity type")
	ErrDuplicateWorkout    = errors.New("workout with this source id exists already")
)

// RawActivity is the import source's view of an activity: metadata plus raw
// per-second streams keyed by metric name. The orchestrator never talks to
// the source directly.
type RawActivity struct {
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ActivityType string    `json:"activity_type"`
	Source       string    `json:"source"`
	SourceID     string    `json:"source_id"`
	DurationSec  int       `json:"duration"`
	DistanceM    float64   `json:"length"`
	StartedAt    time.Time `json:"started_at"`

	Streams struct {
		Time      []float64 `json:"time,omitempty"`
		HeartRate []float64 `json:"heartrate,omitempty"`
		Watts     []float64 `json:"watts,omitempty"`
	} `json:"streams"`
}

type athleteRepo interface {
	Get(ctx context.Context, id int) (*athlete.Profile, error)
	Save(ctx context.Context, p *athlete.Profile) error
}

type workoutsRepo interface {
	Add(ctx context.Context, w workout.Workout) (*workout.Workout, error)
	Update(ctx context.Context, w *workout.Workout) error
	GetBySourceID(ctx context.Context, athleteID int, sourceID string) (*workout.Workout, error)
	FindPlanned(ctx context.Context, athleteID int, activity string, day time.Time) (*workout.Workout, error)
}

// Result is the stored workout plus any personal records the activity broke.
type Result struct {
	Workout *workout.Workout `json:"workout"`
	Records []records.Record `json:"records,omitempty"`
}

// Orchestrator owns the ingestion flow. It mutates the athlete's bests and
// thresholds on personal records; callers must serialize ingestions for the
// same athlete to avoid lost updates on that read-modify-write.
type Orchestrator struct {
	athleteRepo  athleteRepo
	workoutsRepo workoutsRepo
	metrics      *metrics.Manager
}

func NewOrchestrator(
	athleteRepo athleteRepo,
	workoutsRepo workoutsRepo,
	metricsManager *metrics.Manager,
) *Orchestrator {
	return &Orchestrator{
		athleteRepo:  athleteRepo,
		workoutsRepo: workoutsRepo,
		metrics:      metricsManager,
	}
}

// NormalizeActivity maps vendor-specific activity types onto the supported
// set. Any "ride"-flavored type (virtualride, ebikeride, ...) is a ride.
func NormalizeActivity(activityType string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(activityType))
	switch {
	case strings.Contains(t, workout.ActivityRide):
		return workout.ActivityRide, nil
	case strings.Contains(t, workout.ActivityRun):
		return workout.ActivityRun, nil
	case strings.Contains(t, workout.ActivitySwim):
		return workout.ActivitySwim, nil
	case t == "weighttraining" || t == workout.ActivityWorkout:
		return workout.ActivityWorkout, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedActivity, activityType)
	}
}

// Ingest runs the full flow for one raw activity and returns the stored
// workout with any broken records attached.
func (o *Orchestrator) Ingest(ctx context.Context, athleteID int, raw RawActivity) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "ingest.ingest")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("athlete.id", athleteID),
		attribute.String("activity.source-id", raw.SourceID),
	)

	activity, err := NormalizeActivity(raw.ActivityType)
	if err != nil {
		o.metrics.CounterIngestionsRejected.Inc()
		return nil, err
	}
	span.SetAttributes(attribute.String("activity.type", activity))

	if _, err := o.workoutsRepo.GetBySourceID(ctx, athleteID, raw.SourceID); err == nil {
		o.metrics.CounterIngestionsRejected.Inc()
		return nil, ErrDuplicateWorkout
	} else if !errors.Is(err, workout.ErrWorkoutNotFound) {
		return nil, fmt.Errorf("check for existing workout: %w", err)
	}

	p, err := o.athleteRepo.Get(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("get athlete: %w", err)
	}

	w := workout.Workout{
		AthleteID:      athleteID,
		Name:           raw.Name,
		Description:    raw.Description,
		Activity:       activity,
		Source:         raw.Source,
		SourceID:       raw.SourceID,
		DurationSec:    raw.DurationSec,
		DistanceMeters: raw.DistanceM,
		StartedAt:      raw.StartedAt,
		StoppedAt:      raw.StartedAt.Add(time.Duration(raw.DurationSec) * time.Second),
		Completed:      true,
	}

	// Strength training keeps only the basic metadata: no streams, no
	// zones, no bests, no stress scores.
	if activity != workout.ActivityWorkout {
		o.enrich(&w, *p, raw)
	}

	stored, err := o.store(ctx, &w)
	if err != nil {
		return nil, err
	}
	o.metrics.CounterWorkoutsIngested.Inc()

	result := &Result{Workout: stored}
	if stored.Bests != nil {
		result.Records, err = o.updateRecords(ctx, p, *stored.Bests)
		if err != nil {
			return nil, err
		}
	}

	log.Infof(
		"ingested %s [%s/%s] for athlete %d: workout %d, %d records broken",
		activity, raw.Source, raw.SourceID, athleteID, stored.ID, len(result.Records),
	)

	return result, nil
}

// enrich interpolates streams to a per-second grid and fills in zones, bests
// and stress scores. Every metric fails closed: missing inputs leave the
// field nil, the rest still computes.
func (o *Orchestrator) enrich(w *workout.Workout, p athlete.Profile, raw RawActivity) {
	heartRate := interpolated(raw.Streams.HeartRate, raw.DurationSec)
	watts := interpolated(raw.Streams.Watts, raw.DurationSec)

	w.Streams = &workout.Streams{
		Time:      raw.Streams.Time,
		HeartRate: heartRate,
		Watts:     watts,
	}

	if len(heartRate) > 0 || len(watts) > 0 {
		dist := zones.BuildDistribution(watts, heartRate, hrTableFor(w.Activity, p), p.PowerZones)
		w.Zones = &dist

		bests := streams.ActivityBests(watts, heartRate)
		w.Bests = &bests
	}

	switch w.Activity {
	case workout.ActivityRide:
		if np, ok := streams.NormalizedPower(watts); ok {
			w.Effort = effort.PowerTSS(w.DurationSec, np, p.ThresholdPower)
		}
	case workout.ActivityRun:
		w.Effort = effort.PaceTSS(w.DurationSec, w.DistanceMeters, p.RunningThresholdPace)
	}
	w.HREffort = effort.HRTSS(p, heartRate)
}

// hrTableFor picks the heart rate zone table variant: running zones are
// derived from max HR, everything else uses the threshold-derived table.
func hrTableFor(activity string, p athlete.Profile) zones.Table {
	if activity == workout.ActivityRun {
		if p.MaxHR == nil {
			return nil
		}
		return zones.HeartRateZonesFromMax(*p.MaxHR)
	}
	return p.HRZones
}

func interpolated(samples []float64, targetCount int) []float64 {
	if len(samples) == 0 || targetCount <= 0 {
		return nil
	}
	out, err := streams.Interpolate(samples, targetCount)
	if err != nil {
		log.Warnf("interpolate stream of %d samples to %d: %s", len(samples), targetCount, err)
		return samples
	}
	return out
}

// store merges the workout into a matching incomplete planned one (keeping
// its id) or inserts a new row.
func (o *Orchestrator) store(ctx context.Context, w *workout.Workout) (*workout.Workout, error) {
	planned, err := o.workoutsRepo.FindPlanned(ctx, w.AthleteID, w.Activity, w.StartedAt)
	switch {
	case err == nil:
		w.ID = planned.ID
		w.Planned = true
		if err := o.workoutsRepo.Update(ctx, w); err != nil {
			return nil, fmt.Errorf("update planned workout %d: %w", planned.ID, err)
		}
		log.Debugf("merged import into planned workout %d", planned.ID)
		return w, nil
	case errors.Is(err, workout.ErrWorkoutNotFound):
		stored, err := o.workoutsRepo.Add(ctx, *w)
		if err != nil {
			return nil, fmt.Errorf("add workout: %w", err)
		}
		return stored, nil
	default:
		return nil, fmt.Errorf("find planned workout: %w", err)
	}
}

func (o *Orchestrator) updateRecords(ctx context.Context, p *athlete.Profile, activityBests streams.Bests) ([]records.Record, error) {
	updated, broken := records.UpdateBests(*p, activityBests)
	if len(broken) == 0 {
		return nil, nil
	}

	if err := o.athleteRepo.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save athlete bests: %w", err)
	}
	o.metrics.CounterPersonalRecords.Add(float64(len(broken)))

	return broken, nil
}
