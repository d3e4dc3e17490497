package athlete_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velomont/trainlog/internal/athlete"
	"github.com/velomont/trainlog/internal/streams"
	"github.com/velomont/trainlog/internal/zones"
)

func TestNewProfile(t *testing.T) {
	p := athlete.NewProfile("Mont Velo", athlete.GenderFemale)

	assert.Equal(t, "Mont Velo", p.DisplayName)
	assert.Equal(t, athlete.GenderFemale, p.Gender)

	// bests come seeded with every canonical bucket at zero
	for _, label := range streams.WattsLabels {
		v, ok := p.Bests.Watts[label]
		require.True(t, ok)
		assert.Equal(t, 0, v)
	}
	for _, label := range streams.HeartRateLabels {
		v, ok := p.Bests.HeartRate[label]
		require.True(t, ok)
		assert.Equal(t, 0, v)
	}
	assert.False(t, p.Bests.HasWatts)
	assert.False(t, p.Bests.HasHeartRate)
}

func TestProfile_SetThresholds(t *testing.T) {
	p := athlete.NewProfile("Mont Velo", athlete.GenderMale)

	p.SetThresholdHR(170)
	require.NotNil(t, p.ThresholdHR)
	assert.Equal(t, 170, *p.ThresholdHR)
	assert.Equal(t, zones.HeartRateZonesFromThreshold(170), p.HRZones)

	p.SetThresholdPower(255)
	require.NotNil(t, p.ThresholdPower)
	assert.Equal(t, zones.PowerZones(255), p.PowerZones)
}

func TestProfile_Copy(t *testing.T) {
	p := athlete.NewProfile("Mont Velo", athlete.GenderMale)
	restingHR := 50
	p.RestingHR = &restingHR
	p.SetThresholdHR(170)
	p.Bests.Watts["5min"] = 330

	c := p.Copy()
	*c.RestingHR = 55
	c.SetThresholdHR(180)
	c.Bests.Watts["5min"] = 350

	assert.Equal(t, 50, *p.RestingHR)
	assert.Equal(t, 170, *p.ThresholdHR)
	assert.Equal(t, zones.HeartRateZonesFromThreshold(170), p.HRZones)
	assert.Equal(t, 330, p.Bests.Watts["5min"])
}
