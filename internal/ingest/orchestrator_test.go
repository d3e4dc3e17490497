package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/velomont/trainlog/internal/athlete"
	"github.com/velomont/trainlog/internal/ingest"
	"github.com/velomont/trainlog/internal/records"
	"github.com/velomont/trainlog/internal/telemetry/metrics"
	"github.com/velomont/trainlog/internal/workout"
	"github.com/velomont/trainlog/internal/zones"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testAthleteRepo() *athlete.RepoMock {
	p := athlete.NewProfile("Mont Velo", athlete.GenderMale)
	p.ID = 1
	restingHR, maxHR := 50, 190
	p.RestingHR = &restingHR
	p.MaxHR = &maxHR
	p.SetThresholdHR(170)
	p.SetThresholdPower(250)

	repo := athlete.NewRepoMock()
	repo.Profiles[1] = &p
	return repo
}

func rideActivity() ingest.RawActivity {
	raw := ingest.RawActivity{
		Name:         "Morning Ride",
		ActivityType: "Ride",
		Source:       "strava",
		SourceID:     "str-100",
		DurationSec:  3600,
		DistanceM:    30000,
		StartedAt:    time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	watts := make([]float64, 3600)
	heartRate := make([]float64, 3600)
	for i := range watts {
		watts[i] = 250
		heartRate[i] = 170
	}
	raw.Streams.Watts = watts
	raw.Streams.HeartRate = heartRate
	return raw
}

func TestNormalizeActivity(t *testing.T) {
	for input, want := range map[string]string{
		"Ride":           workout.ActivityRide,
		"VirtualRide":    workout.ActivityRide,
		"EBikeRide":      workout.ActivityRide,
		"Run":            workout.ActivityRun,
		"TrailRun":       workout.ActivityRun,
		"Swim":           workout.ActivitySwim,
		"WeightTraining": workout.ActivityWorkout,
		"workout":        workout.ActivityWorkout,
	} {
		got, err := ingest.NormalizeActivity(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ingest.NormalizeActivity("Yoga")
	assert.ErrorIs(t, err, ingest.ErrUnsupportedActivity)
}

func TestIngest_Ride(t *testing.T) {
	athleteRepo := testAthleteRepo()
	workoutsRepo := workout.NewRepoMock()
	orchestrator := ingest.NewOrchestrator(athleteRepo, workoutsRepo, metrics.NewTestManager())

	result, err := orchestrator.Ingest(context.Background(), 1, rideActivity())
	require.NoError(t, err)
	require.NotNil(t, result.Workout)

	w := result.Workout
	assert.NotZero(t, w.ID)
	assert.Equal(t, workout.ActivityRide, w.Activity)
	assert.True(t, w.Completed)
	assert.Equal(t, w.StartedAt.Add(time.Hour), w.StoppedAt)

	// constant 250W at FTP 250 for an hour: TSS 100
	require.NotNil(t, w.Effort)
	assert.Equal(t, 100, *w.Effort)
	// constant 170bpm at threshold 170 for an hour: HRTSS 100
	require.NotNil(t, w.HREffort)
	assert.Equal(t, 100, *w.HREffort)

	require.NotNil(t, w.Bests)
	assert.Equal(t, 250, w.Bests.Watts["20min"])
	assert.Equal(t, 170, w.Bests.HeartRate["1hr"])

	require.NotNil(t, w.Zones)
	// 250W sits exactly at FTP: Threshold zone, the whole hour
	assert.Equal(t, 3600, w.Zones.Zones[zones.ZoneThreshold].WattSeconds)

	// the hour at threshold implies new FTP and threshold HR estimates
	require.NotEmpty(t, result.Records)
	savedProfile, err := athleteRepo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 250, savedProfile.Bests.Watts["1hr"])
}

func TestIngest_DuplicateSourceID(t *testing.T) {
	athleteRepo := testAthleteRepo()
	workoutsRepo := workout.NewRepoMock()
	orchestrator := ingest.NewOrchestrator(athleteRepo, workoutsRepo, metrics.NewTestManager())

	_, err := orchestrator.Ingest(context.Background(), 1, rideActivity())
	require.NoError(t, err)

	profileBefore, err := athleteRepo.Get(context.Background(), 1)
	require.NoError(t, err)
	workoutsBefore := len(workoutsRepo.Workouts)

	// same source id again: rejected, nothing mutated
	_, err = orchestrator.Ingest(context.Background(), 1, rideActivity())
	assert.ErrorIs(t, err, ingest.ErrDuplicateWorkout)

	profileAfter, err := athleteRepo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, profileBefore, profileAfter)
	assert.Len(t, workoutsRepo.Workouts, workoutsBefore)
}

func TestIngest_StrengthTrainingKeepsMetadataOnly(t *testing.T) {
	athleteRepo := testAthleteRepo()
	workoutsRepo := workout.NewRepoMock()
	orchestrator := ingest.NewOrchestrator(athleteRepo, workoutsRepo, metrics.NewTestManager())

	raw := rideActivity()
	raw.ActivityType = "WeightTraining"
	raw.SourceID = "str-200"

	result, err := orchestrator.Ingest(context.Background(), 1, raw)
	require.NoError(t, err)

	w := result.Workout
	assert.Equal(t, workout.ActivityWorkout, w.Activity)
	assert.Equal(t, "Morning Ride", w.Name)
	assert.Equal(t, 3600, w.DurationSec)

	// suppressed, not zero-filled
	assert.Nil(t, w.Streams)
	assert.Nil(t, w.Zones)
	assert.Nil(t, w.Bests)
	assert.Nil(t, w.Effort)
	assert.Nil(t, w.HREffort)
	assert.Empty(t, result.Records)
}

func TestIngest_MergesIntoPlannedWorkout(t *testing.T) {
	athleteRepo := testAthleteRepo()
	workoutsRepo := workout.NewRepoMock()
	orchestrator := ingest.NewOrchestrator(athleteRepo, workoutsRepo, metrics.NewTestManager())

	planned, err := workoutsRepo.Add(context.Background(), workout.Workout{
		AthleteID: 1,
		Name:      "Planned Intervals",
		Activity:  workout.ActivityRide,
		StartedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Planned:   true,
		Completed: false,
	})
	require.NoError(t, err)

	result, err := orchestrator.Ingest(context.Background(), 1, rideActivity())
	require.NoError(t, err)

	// merged into the planned row, not inserted next to it
	assert.Equal(t, planned.ID, result.Workout.ID)
	assert.True(t, result.Workout.Completed)
	assert.True(t, result.Workout.Planned)
	assert.Len(t, workoutsRepo.Workouts, 1)
}

func TestIngest_PlannedWorkoutOfOtherActivityNotMerged(t *testing.T) {
	athleteRepo := testAthleteRepo()
	workoutsRepo := workout.NewRepoMock()
	orchestrator := ingest.NewOrchestrator(athleteRepo, workoutsRepo, metrics.NewTestManager())

	_, err := workoutsRepo.Add(context.Background(), workout.Workout{
		AthleteID: 1,
		Activity:  workout.ActivityRun,
		StartedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Planned:   true,
		Completed: false,
	})
	require.NoError(t, err)

	_, err = orchestrator.Ingest(context.Background(), 1, rideActivity())
	require.NoError(t, err)
	assert.Len(t, workoutsRepo.Workouts, 2)
}

func TestIngest_RunUsesMaxHRZones(t *testing.T) {
	athleteRepo := testAthleteRepo()
	workoutsRepo := workout.NewRepoMock()
	orchestrator := ingest.NewOrchestrator(athleteRepo, workoutsRepo, metrics.NewTestManager())

	raw := ingest.RawActivity{
		Name:         "Tempo Run",
		ActivityType: "Run",
		Source:       "strava",
		SourceID:     "str-300",
		DurationSec:  1800,
		DistanceM:    8000,
		StartedAt:    time.Date(2024, 1, 6, 7, 0, 0, 0, time.UTC),
	}
	heartRate := make([]float64, 1800)
	for i := range heartRate {
		heartRate[i] = 160
	}
	raw.Streams.HeartRate = heartRate

	result, err := orchestrator.Ingest(context.Background(), 1, raw)
	require.NoError(t, err)

	w := result.Workout
	require.NotNil(t, w.Zones)
	// 160bpm against max-HR 190 running zones (87% cut at 165): Tempo
	assert.Equal(t, 1800, w.Zones.Zones[zones.ZoneTempo].HRSeconds)
	// no running threshold pace on the profile: no pace TSS
	assert.Nil(t, w.Effort)
	require.NotNil(t, w.HREffort)
}

func TestIngest_RecordsUpdateThresholds(t *testing.T) {
	athleteRepo := testAthleteRepo()
	workoutsRepo := workout.NewRepoMock()
	orchestrator := ingest.NewOrchestrator(athleteRepo, workoutsRepo, metrics.NewTestManager())

	raw := rideActivity()
	for i := range raw.Streams.Watts {
		raw.Streams.Watts[i] = 300
	}

	result, err := orchestrator.Ingest(context.Background(), 1, raw)
	require.NoError(t, err)

	// 300W for 20min * 0.95 = 285, above the stored FTP of 250
	var ftpRecord *records.Record
	for i := range result.Records {
		if result.Records[i].Metric == records.MetricFTP {
			ftpRecord = &result.Records[i]
		}
	}
	require.NotNil(t, ftpRecord)
	assert.Equal(t, 285, ftpRecord.Value)

	savedProfile, err := athleteRepo.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, savedProfile.ThresholdPower)
	assert.Equal(t, 285, *savedProfile.ThresholdPower)
	assert.Equal(t, zones.PowerZones(285), savedProfile.PowerZones)
}

func TestIngest_UnknownAthlete(t *testing.T) {
	orchestrator := ingest.NewOrchestrator(
		athlete.NewRepoMock(), workout.NewRepoMock(), metrics.NewTestManager())

	_, err := orchestrator.Ingest(context.Background(), 42, rideActivity())
	require.Error(t, err)
	assert.ErrorIs(t, err, athlete.ErrAthleteNotFound)
}
