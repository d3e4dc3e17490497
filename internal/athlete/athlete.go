package athlete

import (
	"github.com/velomont/trainlog/internal/streams"
	"github.com/velomont/trainlog/internal/zones"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Profile holds an athlete's physiological thresholds, derived zone tables
// and all-time bests. Zone tables and bests are persisted as JSONB with the
// exact key names the calendar and stats readers use.
type Profile struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
	Gender      string `json:"gender"`

	RestingHR      *int `json:"resting_hr"`
	MaxHR          *int `json:"max_hr"`
	ThresholdHR    *int `json:"threshold_hr"`
	ThresholdPower *int `json:"threshold_power"`
	// RunningThresholdPace is in seconds per mile.
	RunningThresholdPace *float64 `json:"running_threshold_pace"`

	HRZones    zones.Table   `json:"hr_zones"`
	PowerZones zones.Table   `json:"power_zones"`
	Bests      streams.Bests `json:"bests"`
}

// NewProfile seeds a profile the way registration does: a zeroed bests record
// and zone tables derived from whichever thresholds are provided.
func NewProfile(displayName, gender string) Profile {
	return Profile{
		DisplayName: displayName,
		Gender:      gender,
		Bests:       streams.NewBests(),
	}
}

// SetThresholdHR sets the threshold heart rate and rebuilds the heart rate
// zone table from it.
func (p *Profile) SetThresholdHR(thresholdHR int) {
	p.ThresholdHR = &thresholdHR
	p.HRZones = zones.HeartRateZonesFromThreshold(thresholdHR)
}

// SetThresholdPower sets the threshold power (FTP) and rebuilds the power
// zone table from it.
func (p *Profile) SetThresholdPower(thresholdPower int) {
	p.ThresholdPower = &thresholdPower
	p.PowerZones = zones.PowerZones(thresholdPower)
}

// Copy returns a deep copy of the profile, so updaters can stay pure.
func (p Profile) Copy() Profile {
	c := p
	c.Bests = p.Bests.Copy()
	if p.RestingHR != nil {
		v := *p.RestingHR
		c.RestingHR = &v
	}
	if p.MaxHR != nil {
		v := *p.MaxHR
		c.MaxHR = &v
	}
	if p.ThresholdHR != nil {
		v := *p.ThresholdHR
		c.ThresholdHR = &v
	}
	if p.ThresholdPower != nil {
		v := *p.ThresholdPower
		c.ThresholdPower = &v
	}
	if p.RunningThresholdPace != nil {
		v := *p.RunningThresholdPace
		c.RunningThresholdPace = &v
	}
	c.HRZones = append(zones.Table(nil), p.HRZones...)
	c.PowerZones = append(zones.Table(nil), p.PowerZones...)
	return c
}
