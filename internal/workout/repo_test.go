//go:build integration_test || all_tests

package workout

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velomont/trainlog/internal/db"
	"github.com/velomont/trainlog/internal/streams"
	"github.com/velomont/trainlog/internal/zones"
)

func testRepoSetup(t *testing.T) (*Repo, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postres host: %s", host)

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         "5432",
		DBName:         "trainlog",
		TracingEnabled: false,
	})
	require.NoError(t, err)

	return NewRepo(dbPool), func() {
		dbPool.Close()
	}
}

func testWorkout(athleteID int, startedAt time.Time) Workout {
	effort := 85
	bests := streams.NewBests()
	bests.HasWatts = true
	bests.Watts["20min"] = 240
	dist := zones.NewDistribution()
	dist.HasWatts = true

	return Workout{
		AthleteID:      athleteID,
		Name:           gofakeit.Name(),
		Description:    gofakeit.Sentence(6),
		Activity:       ActivityRide,
		Source:         "strava",
		SourceID:       gofakeit.UUID(),
		DurationSec:    3600,
		DistanceMeters: 30000,
		StartedAt:      startedAt,
		StoppedAt:      startedAt.Add(time.Hour),
		Completed:      true,
		Streams: &Streams{
			Watts: []float64{200, 210, 220},
		},
		Bests:  &bests,
		Zones:  &dist,
		Effort: &effort,
	}
}

func TestRepo_AddGetDelete(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	startedAt := time.Now().UTC().Truncate(time.Second)
	added, err := repo.Add(ctx, testWorkout(1, startedAt))
	require.NoError(t, err)
	require.NotZero(t, added.ID)

	got, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.Name, got.Name)
	assert.Equal(t, added.SourceID, got.SourceID)

	// JSONB fields round-trip
	require.NotNil(t, got.Bests)
	assert.Equal(t, 240, got.Bests.Watts["20min"])
	require.NotNil(t, got.Streams)
	assert.Equal(t, []float64{200, 210, 220}, got.Streams.Watts)
	require.NotNil(t, got.Effort)
	assert.Equal(t, 85, *got.Effort)

	bySource, err := repo.GetBySourceID(ctx, 1, added.SourceID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, bySource.ID)

	require.NoError(t, repo.Delete(ctx, added.ID))
	_, err = repo.Get(ctx, added.ID)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, added.ID), ErrWorkoutNotFound)
}

func TestRepo_List(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	athleteID := int(gofakeit.Int32())
	base := time.Now().UTC().Truncate(time.Second).AddDate(0, 0, -10)

	var ids []int
	for i := 0; i < 3; i++ {
		added, err := repo.Add(ctx, testWorkout(athleteID, base.AddDate(0, 0, i)))
		require.NoError(t, err)
		ids = append(ids, added.ID)
	}
	defer func() {
		for _, id := range ids {
			require.NoError(t, repo.Delete(ctx, id))
		}
	}()

	all, err := repo.List(ctx, ListParams{AthleteID: athleteID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.True(t, all[0].StartedAt.After(all[1].StartedAt))

	from := base.AddDate(0, 0, 1)
	ranged, err := repo.List(ctx, ListParams{AthleteID: athleteID, From: &from})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	rides, err := repo.List(ctx, ListParams{AthleteID: athleteID, Activities: []string{ActivityRide}})
	require.NoError(t, err)
	assert.Len(t, rides, 3)

	runs, err := repo.List(ctx, ListParams{AthleteID: athleteID, Activities: []string{ActivityRun}})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRepo_FindPlannedAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	athleteID := int(gofakeit.Int32())
	day := time.Now().UTC().Truncate(24 * time.Hour)

	planned := testWorkout(athleteID, day.Add(8*time.Hour))
	planned.Planned = true
	planned.Completed = false
	added, err := repo.Add(ctx, planned)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, repo.Delete(ctx, added.ID))
	}()

	found, err := repo.FindPlanned(ctx, athleteID, ActivityRide, day)
	require.NoError(t, err)
	assert.Equal(t, added.ID, found.ID)

	_, err = repo.FindPlanned(ctx, athleteID, ActivityRun, day)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)

	found.Completed = true
	require.NoError(t, repo.Update(ctx, found))

	_, err = repo.FindPlanned(ctx, athleteID, ActivityRide, day)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)

	updated, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
}
