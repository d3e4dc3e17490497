package trainload

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/velomont/trainlog/internal/effort"
	"github.com/velomont/trainlog/internal/telemetry/metrics"
	"github.com/velomont/trainlog/internal/telemetry/tracing"
	"github.com/velomont/trainlog/internal/workout"
	"github.com/velomont/trainlog/internal/zones"
)

// Summary aggregates an athlete's training over a date range. The calendar
// frontend reads it by these exact keys.
type Summary struct {
	Effort        int `json:"effort"`
	TotalDuration int `json:"total_duration"`
	// ActivityDuration and ActivityDistance are keyed by activity type.
	ActivityDuration map[string]int     `json:"activity_duration"`
	TotalDistance    float64            `json:"total_distance"`
	ActivityDistance map[string]float64 `json:"activity_distance"`

	Fitness int `json:"fitness"`
	Fatigue int `json:"fatigue"`
	Form    int `json:"form"`

	// ZoneDistribution is seconds-in-zone summed across workouts, preferring
	// watt seconds over heart rate seconds per workout and zone.
	ZoneDistribution map[string]int `json:"zoneDistribution"`

	WorkoutIDs []int     `json:"workoutIds"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

func newSummary(startDate, endDate time.Time) *Summary {
	s := &Summary{
		ActivityDuration: map[string]int{
			workout.ActivityRun:     0,
			workout.ActivityRide:    0,
			workout.ActivityWorkout: 0,
			workout.ActivitySwim:    0,
		},
		ActivityDistance: map[string]float64{
			workout.ActivityRun:  0,
			workout.ActivityRide: 0,
			workout.ActivitySwim: 0,
		},
		ZoneDistribution: make(map[string]int, len(zones.PowerZoneTitles)),
		WorkoutIDs:       []int{},
		StartDate:        startDate,
		EndDate:          endDate,
	}
	for _, title := range zones.PowerZoneTitles {
		s.ZoneDistribution[title] = 0
	}
	return s
}

// Service computes period summaries, with a short-lived redis cache in front
// since the calendar view asks for the same range on every page load.
type Service struct {
	workoutsRepo workoutsRepo
	engine       *Engine
	cache        *SummaryCache
	metrics      *metrics.Manager
}

func NewService(
	workoutsRepo workoutsRepo,
	engine *Engine,
	cache *SummaryCache,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		workoutsRepo: workoutsRepo,
		engine:       engine,
		cache:        cache,
		metrics:      metricsManager,
	}
}

// GetSummary returns the period summary for an athlete, served from cache
// when a fresh one exists.
func (s *Service) GetSummary(ctx context.Context, athleteID int, startDate, endDate time.Time) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "trainload.getSummary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, athleteID, startDate, endDate); ok {
			span.SetAttributes(attribute.Bool("summary.from-cache", true))
			s.metrics.CounterSummaryCacheHits.Inc()
			return cached, nil
		}
		span.SetAttributes(attribute.Bool("summary.from-cache", false))
		s.metrics.CounterSummaryCacheMisses.Inc()
	}

	summary, err := s.computeSummary(ctx, athleteID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, athleteID, startDate, endDate, summary)
	}

	return summary, nil
}

func (s *Service) computeSummary(ctx context.Context, athleteID int, startDate, endDate time.Time) (*Summary, error) {
	workouts, err := s.workoutsRepo.List(ctx, workout.ListParams{
		AthleteID: athleteID,
		From:      &startDate,
		To:        &endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	summary := newSummary(startDate, endDate)
	for _, w := range workouts {
		summary.addWorkout(w)
	}

	summary.Fitness = s.engine.Fitness(ctx, athleteID, endDate)
	summary.Fatigue = s.engine.Fatigue(ctx, athleteID, endDate)
	summary.Form = s.engine.Form(ctx, athleteID, endDate)

	log.Debugf(
		"summary for athlete %d [%s - %s]: %d workouts, effort %d",
		athleteID,
		startDate.Format(time.DateOnly), endDate.Format(time.DateOnly),
		len(summary.WorkoutIDs), summary.Effort,
	)

	return summary, nil
}

func (s *Summary) addWorkout(w workout.Workout) {
	s.addZoneSeconds(w)

	s.Effort += effort.Select(w.Effort, w.HREffort).Value

	s.TotalDuration += w.DurationSec
	if _, ok := s.ActivityDuration[w.Activity]; ok {
		s.ActivityDuration[w.Activity] += w.DurationSec
	}

	s.TotalDistance += w.DistanceMeters
	if _, ok := s.ActivityDistance[w.Activity]; ok {
		s.ActivityDistance[w.Activity] += w.DistanceMeters
	}

	s.WorkoutIDs = append(s.WorkoutIDs, w.ID)
}

func (s *Summary) addZoneSeconds(w workout.Workout) {
	if w.Zones == nil {
		return
	}
	switch w.Activity {
	case workout.ActivityRun, workout.ActivityRide, workout.ActivitySwim:
	default:
		return
	}

	for title, counts := range w.Zones.Zones {
		if counts.WattSeconds > 0 {
			s.ZoneDistribution[title] += counts.WattSeconds
		} else {
			s.ZoneDistribution[title] += counts.HRSeconds
		}
	}
}
