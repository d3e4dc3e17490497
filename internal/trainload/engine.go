// Package trainload implements the fitness / fatigue / form model: an
// exponentially weighted trailing-window sum over daily workout effort,
// recomputed freshly on each call.
package trainload

import (
	"context"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/velomont/trainlog/internal/effort"
	"github.com/velomont/trainlog/internal/workout"
)

const (
	// FitnessWindowDays is the long (chronic) training load window.
	FitnessWindowDays = 42
	// FatigueWindowDays is the short (acute) training load window.
	FatigueWindowDays = 7
)

type workoutsRepo interface {
	List(ctx context.Context, params workout.ListParams) ([]workout.Workout, error)
}

// Engine computes training load values for an athlete from their workout
// history. It holds no state between calls: concurrent use for different
// athletes or date ranges is safe.
type Engine struct {
	workoutsRepo workoutsRepo

	// now is swapped in tests to pin the planned-workout exclusion.
	now func() time.Time
}

func NewEngine(workoutsRepo workoutsRepo) *Engine {
	return &Engine{
		workoutsRepo: workoutsRepo,
		now:          time.Now,
	}
}

// TrainingLoad returns the weighted average daily effort over the trailing
// windowDays ending on date. A workout lookup failure is treated as an empty
// range, never an error: the calendar keeps rendering with a zero load.
func (e *Engine) TrainingLoad(ctx context.Context, athleteID int, date time.Time, windowDays int) int {
	if windowDays <= 0 {
		return 0
	}

	day := date.UTC().Truncate(24 * time.Hour)
	start := day.AddDate(0, 0, -windowDays)
	dailyEffort := e.dailyEffort(ctx, athleteID, start.AddDate(0, 0, 1), day)

	var load float64
	for count := 1; count <= windowDays; count++ {
		weight := (1 / float64(windowDays)) *
			math.Pow(1-1/float64(windowDays), float64(windowDays-count))
		d := start.AddDate(0, 0, count)
		load += dailyEffort[d] * (1 - weight)
	}

	return int(math.Round(load / float64(windowDays)))
}

// Fitness is the 42-day training load (CTL).
func (e *Engine) Fitness(ctx context.Context, athleteID int, date time.Time) int {
	return e.TrainingLoad(ctx, athleteID, date, FitnessWindowDays)
}

// Fatigue is the 7-day training load (ATL).
func (e *Engine) Fatigue(ctx context.Context, athleteID int, date time.Time) int {
	return e.TrainingLoad(ctx, athleteID, date, FatigueWindowDays)
}

// Form is fitness minus fatigue, evaluated one day before date. The one day
// lag is deliberate: form answers "how fresh was I going into today".
func (e *Engine) Form(ctx context.Context, athleteID int, date time.Time) int {
	yesterday := date.AddDate(0, 0, -1)
	return e.Fitness(ctx, athleteID, yesterday) - e.Fatigue(ctx, athleteID, yesterday)
}

// dailyEffort buckets workout effort by UTC calendar day over [from, to].
// Planned workouts whose day has passed without being completed contribute
// nothing.
func (e *Engine) dailyEffort(ctx context.Context, athleteID int, from, to time.Time) map[time.Time]float64 {
	rangeEnd := to.AddDate(0, 0, 1)
	workouts, err := e.workoutsRepo.List(ctx, workout.ListParams{
		AthleteID: athleteID,
		From:      &from,
		To:        &rangeEnd,
	})
	if err != nil {
		log.Warnf("training load: list workouts for athlete %d: %s", athleteID, err)
		return nil
	}

	today := e.now().UTC().Truncate(24 * time.Hour)
	dailyEffort := make(map[time.Time]float64)
	for _, w := range workouts {
		day := w.StartedAt.UTC().Truncate(24 * time.Hour)
		if w.Planned && !w.Completed && today.After(day) {
			continue
		}
		dailyEffort[day] += float64(effort.Select(w.Effort, w.HREffort).Value)
	}
	return dailyEffort
}
