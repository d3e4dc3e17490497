package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/velomont/trainlog/internal/streams"
	"github.com/velomont/trainlog/internal/telemetry/tracing"
	"github.com/velomont/trainlog/internal/zones"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

// ListParams filters the workouts of one athlete by start time range and,
// optionally, by activity types.
type ListParams struct {
	AthleteID  int
	From       *time.Time
	To         *time.Time
	Activities []string
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const workoutColumns = `
	id, athlete_id, name, description, activity,
	source, source_id,
	duration, length,
	started_at, stopped_at,
	planned, is_completed,
	streams, bests, zones,
	effort, hr_effort`

func (r *Repo) Add(ctx context.Context, w Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	streamsJSON, bestsJSON, zonesJSON, err := marshalJSONFields(&w)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO workout
				(athlete_id, name, description, activity,
				source, source_id,
				duration, length,
				started_at, stopped_at,
				planned, is_completed,
				streams, bests, zones,
				effort, hr_effort)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id;`,
		w.AthleteID, w.Name, w.Description, w.Activity,
		w.Source, w.SourceID,
		w.DurationSec, w.DistanceMeters,
		w.StartedAt, w.StoppedAt,
		w.Planned, w.Completed,
		streamsJSON, bestsJSON, zonesJSON,
		w.Effort, w.HREffort,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("workout.id", id))

	w.ID = id
	return &w, nil
}

func (r *Repo) Update(ctx context.Context, w *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", w.ID))

	streamsJSON, bestsJSON, zonesJSON, err := marshalJSONFields(w)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET
				name = $1, description = $2, activity = $3,
				source = $4, source_id = $5,
				duration = $6, length = $7,
				started_at = $8, stopped_at = $9,
				planned = $10, is_completed = $11,
				streams = $12, bests = $13, zones = $14,
				effort = $15, hr_effort = $16
			WHERE id = $17;`,
		w.Name, w.Description, w.Activity,
		w.Source, w.SourceID,
		w.DurationSec, w.DistanceMeters,
		w.StartedAt, w.StoppedAt,
		w.Planned, w.Completed,
		streamsJSON, bestsJSON, zonesJSON,
		w.Effort, w.HREffort,
		w.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workout WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

// GetBySourceID finds the athlete's workout imported under the given source
// id, used as the ingestion idempotency check.
func (r *Repo) GetBySourceID(ctx context.Context, athleteID int, sourceID string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.getBySourceID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete_id", athleteID))
	span.SetAttributes(attribute.String("source_id", sourceID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workout WHERE athlete_id = $1 AND source_id = $2;`,
		athleteID, sourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) == 0 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

// List returns all workouts matching the params, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete_id", params.AthleteID))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout
			WHERE athlete_id = $1
			AND ($2::timestamptz IS NULL OR started_at >= $2)
			AND ($3::timestamptz IS NULL OR started_at <= $3)
			AND ($4::text[] IS NULL OR activity = ANY($4))
			ORDER BY started_at DESC;`,
		params.AthleteID, params.From, params.To, params.Activities,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2workouts: %w", err)
	}
	return workouts, nil
}

// FindPlanned finds an athlete's planned-but-not-completed workout of the
// given activity type on the given calendar day, the merge target for a
// completed import.
func (r *Repo) FindPlanned(ctx context.Context, athleteID int, activity string, day time.Time) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.findPlanned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete_id", athleteID))
	span.SetAttributes(attribute.String("activity", activity))

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout
			WHERE athlete_id = $1
			AND activity = $2
			AND planned IS TRUE
			AND is_completed IS FALSE
			AND started_at >= $3 AND started_at < $4;`,
		athleteID, activity, dayStart, dayEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) == 0 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func marshalJSONFields(w *Workout) (streamsJSON, bestsJSON, zonesJSON []byte, err error) {
	if w.Streams != nil {
		if streamsJSON, err = json.Marshal(w.Streams); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal streams: %w", err)
		}
	}
	if w.Bests != nil {
		if bestsJSON, err = json.Marshal(w.Bests); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal bests: %w", err)
		}
	}
	if w.Zones != nil {
		if zonesJSON, err = json.Marshal(w.Zones); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal zones: %w", err)
		}
	}
	return streamsJSON, bestsJSON, zonesJSON, nil
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var w Workout
		var streamsBytes, bestsBytes, zonesBytes []byte
		if err := rows.Scan(
			&w.ID, &w.AthleteID, &w.Name, &w.Description, &w.Activity,
			&w.Source, &w.SourceID,
			&w.DurationSec, &w.DistanceMeters,
			&w.StartedAt, &w.StoppedAt,
			&w.Planned, &w.Completed,
			&streamsBytes, &bestsBytes, &zonesBytes,
			&w.Effort, &w.HREffort,
		); err != nil {
			return nil, err
		}

		if len(streamsBytes) > 0 {
			w.Streams = &Streams{}
			if err := json.Unmarshal(streamsBytes, w.Streams); err != nil {
				return nil, fmt.Errorf("unmarshal streams for workout %d: %w", w.ID, err)
			}
		}
		if len(bestsBytes) > 0 {
			w.Bests = &streams.Bests{}
			if err := json.Unmarshal(bestsBytes, w.Bests); err != nil {
				return nil, fmt.Errorf("unmarshal bests for workout %d: %w", w.ID, err)
			}
		}
		if len(zonesBytes) > 0 {
			w.Zones = &zones.Distribution{}
			if err := json.Unmarshal(zonesBytes, w.Zones); err != nil {
				return nil, fmt.Errorf("unmarshal zones for workout %d: %w", w.ID, err)
			}
		}

		workouts = append(workouts, w)
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}

	return workouts, nil
}
