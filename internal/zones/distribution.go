package zones

import (
	"encoding/json"
	"math"
)

// ZoneCounts is the per-zone accumulation of seconds-in-zone, independently
// for heart rate and power, plus each metric's share of the stream length.
type ZoneCounts struct {
	HRPercentage   float64 `json:"hr-percentage"`
	WattPercentage float64 `json:"watt-percentage"`
	HRSeconds      int     `json:"hr-seconds"`
	WattSeconds    int     `json:"watt-seconds"`
}

// Distribution is a zone histogram of an activity's streams. It serializes
// to the flat shape the calendar and stats readers expect: zone titles as
// top-level keys next to the hasWatts/hasHeartRate flags.
type Distribution struct {
	HasWatts     bool
	HasHeartRate bool
	Zones        map[string]ZoneCounts
}

func NewDistribution() Distribution {
	zoneMap := make(map[string]ZoneCounts, len(PowerZoneTitles))
	for _, title := range PowerZoneTitles {
		zoneMap[title] = ZoneCounts{}
	}
	return Distribution{Zones: zoneMap}
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(d.Zones)+2)
	flat["hasWatts"] = d.HasWatts
	flat["hasHeartRate"] = d.HasHeartRate
	for title, counts := range d.Zones {
		flat[title] = counts
	}
	return json.Marshal(flat)
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	d.Zones = make(map[string]ZoneCounts)
	for key, raw := range flat {
		switch key {
		case "hasWatts":
			if err := json.Unmarshal(raw, &d.HasWatts); err != nil {
				return err
			}
		case "hasHeartRate":
			if err := json.Unmarshal(raw, &d.HasHeartRate); err != nil {
				return err
			}
		default:
			var counts ZoneCounts
			if err := json.Unmarshal(raw, &counts); err != nil {
				return err
			}
			d.Zones[key] = counts
		}
	}
	return nil
}

// BuildDistribution classifies each per-second sample of the watts and heart
// rate streams into its zone. Either stream may be absent (length 0); it then
// contributes nothing and its has-flag stays false. Percentages are the
// fraction of the total stream length, kept at 2 decimals.
func BuildDistribution(watts, heartRate []float64, hrTable, powerTable Table) Distribution {
	dist := NewDistribution()

	streamLen := len(watts)
	if len(heartRate) > streamLen {
		streamLen = len(heartRate)
	}
	if streamLen == 0 {
		return dist
	}

	dist.HasWatts = len(watts) > 0
	dist.HasHeartRate = len(heartRate) > 0

	total := float64(streamLen)
	for i := 0; i < streamLen; i++ {
		if i < len(watts) && len(powerTable) > 0 {
			if title := powerTable.Classify(watts[i]); title != "" {
				counts := dist.Zones[title]
				counts.WattSeconds++
				counts.WattPercentage = roundTwoDecimals(float64(counts.WattSeconds) / total)
				dist.Zones[title] = counts
			}
		}
		if i < len(heartRate) && len(hrTable) > 0 {
			if title := hrTable.Classify(heartRate[i]); title != "" {
				counts := dist.Zones[title]
				counts.HRSeconds++
				counts.HRPercentage = roundTwoDecimals(float64(counts.HRSeconds) / total)
				dist.Zones[title] = counts
			}
		}
	}

	return dist
}

func roundTwoDecimals(v float64) float64 {
	return math.Round(v*100) / 100
}
