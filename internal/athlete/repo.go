package athlete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/velomont/trainlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrAthleteNotFound = errors.New("athlete not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Create inserts a new athlete profile, the registration path. The profile's
// ID is set from the database.
func (r *Repo) Create(ctx context.Context, p *Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athlete.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	hrZonesJSON, powerZonesJSON, bestsJSON, err := marshalProfileJSONFields(p)
	if err != nil {
		return err
	}

	rows, err := r.db.Query(
		ctx,
		`
			INSERT INTO athlete
				(display_name, gender,
				resting_hr, max_hr, threshold_hr, threshold_power, running_threshold_pace,
				hr_zones, power_zones, bests)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id;`,
		p.DisplayName, p.Gender,
		p.RestingHR, p.MaxHR, p.ThresholdHR, p.ThresholdPower, p.RunningThresholdPace,
		hrZonesJSON, powerZonesJSON, bestsJSON,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return err
	}

	if !rows.Next() {
		return errors.New("unexpected error [no rows next]")
	}

	if err := rows.Scan(&p.ID); err != nil {
		return fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("id", p.ID))
	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athlete.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, display_name, gender,
				resting_hr, max_hr, threshold_hr, threshold_power, running_threshold_pace,
				hr_zones, power_zones, bests
			FROM athlete
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrAthleteNotFound
	}

	var p Profile
	var hrZonesBytes, powerZonesBytes, bestsBytes []byte
	if err := rows.Scan(
		&p.ID, &p.DisplayName, &p.Gender,
		&p.RestingHR, &p.MaxHR, &p.ThresholdHR, &p.ThresholdPower, &p.RunningThresholdPace,
		&hrZonesBytes, &powerZonesBytes, &bestsBytes,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	if len(hrZonesBytes) > 0 {
		if err := json.Unmarshal(hrZonesBytes, &p.HRZones); err != nil {
			return nil, fmt.Errorf("unmarshal hr zones for athlete %d: %w", id, err)
		}
	}
	if len(powerZonesBytes) > 0 {
		if err := json.Unmarshal(powerZonesBytes, &p.PowerZones); err != nil {
			return nil, fmt.Errorf("unmarshal power zones for athlete %d: %w", id, err)
		}
	}
	if len(bestsBytes) > 0 {
		if err := json.Unmarshal(bestsBytes, &p.Bests); err != nil {
			return nil, fmt.Errorf("unmarshal bests for athlete %d: %w", id, err)
		}
	}

	return &p, nil
}

func (r *Repo) Save(ctx context.Context, p *Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athlete.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", p.ID))

	hrZonesJSON, powerZonesJSON, bestsJSON, err := marshalProfileJSONFields(p)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`
			UPDATE athlete SET
				display_name = $1, gender = $2,
				resting_hr = $3, max_hr = $4, threshold_hr = $5,
				threshold_power = $6, running_threshold_pace = $7,
				hr_zones = $8, power_zones = $9, bests = $10
			WHERE id = $11;`,
		p.DisplayName, p.Gender,
		p.RestingHR, p.MaxHR, p.ThresholdHR,
		p.ThresholdPower, p.RunningThresholdPace,
		hrZonesJSON, powerZonesJSON, bestsJSON,
		p.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrAthleteNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athlete.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM athlete WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAthleteNotFound
	}
	return nil
}

func marshalProfileJSONFields(p *Profile) (hrZonesJSON, powerZonesJSON, bestsJSON []byte, err error) {
	if hrZonesJSON, err = json.Marshal(p.HRZones); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal hr zones: %w", err)
	}
	if powerZonesJSON, err = json.Marshal(p.PowerZones); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal power zones: %w", err)
	}
	if bestsJSON, err = json.Marshal(p.Bests); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal bests: %w", err)
	}
	return hrZonesJSON, powerZonesJSON, bestsJSON, nil
}
