//go:build integration_test || all_tests

package athlete

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velomont/trainlog/internal/db"
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

func TestRepo_CreateGetSave(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	p := NewProfile(gofakeit.Name(), GenderFemale)
	restingHR := 52
	p.RestingHR = &restingHR
	p.SetThresholdHR(168)
	p.SetThresholdPower(245)

	require.NoError(t, repo.Create(ctx, &p))
	require.NotZero(t, p.ID)
	defer func() {
		require.NoError(t, repo.Delete(ctx, p.ID))
	}()

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.DisplayName, got.DisplayName)
	require.NotNil(t, got.ThresholdHR)
	assert.Equal(t, 168, *got.ThresholdHR)
	assert.Equal(t, p.HRZones, got.HRZones)
	assert.Equal(t, p.PowerZones, got.PowerZones)
	assert.Equal(t, p.Bests, got.Bests)

	// raise the FTP and save
	got.SetThresholdPower(260)
	got.Bests.HasWatts = true
	got.Bests.Watts["20min"] = 270
	require.NoError(t, repo.Save(ctx, got))

	saved, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.ThresholdPower)
	assert.Equal(t, 260, *saved.ThresholdPower)
	assert.Equal(t, 270, saved.Bests.Watts["20min"])

	_, err = repo.Get(ctx, -1)
	assert.ErrorIs(t, err, ErrAthleteNotFound)
	assert.ErrorIs(t, repo.Save(ctx, &Profile{ID: -1}), ErrAthleteNotFound)
}
