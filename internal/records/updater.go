// Package records compares a finished activity's best-window values against an
// athlete's all-time bests and raises thresholds when the numbers warrant it.
package records

import (
	"math"

	"github.com/velomont/trainlog/internal/athlete"
	"github.com/velomont/trainlog/internal/streams"
)

const (
	MetricHeartRate = "heartrate"
	MetricWatts     = "watts"

	MetricMaxHR       = "Max HR"
	MetricThresholdHR = "Threshold HR"
	MetricFTP         = "FTP"

	// Threshold estimates are taken at 95% of the observed 20min effort,
	// the standard field-test ratio.
	thresholdRatio = 0.95
)

// Record is one broken personal record. Duration is empty for the
// threshold-derived records (Max HR, Threshold HR, FTP).
type Record struct {
	Metric   string `json:"metric"`
	Duration string `json:"duration,omitempty"`
	Value    int    `json:"value"`
}

// UpdateBests merges an activity's bests into the athlete's stored bests and
// returns the updated profile together with the list of broken records.
// Ties count as a record, zero-valued windows never do. When the activity
// implies a higher max HR, threshold HR or FTP, the threshold is raised, the
// matching zone table is rebuilt and a named record is prepended to the list,
// ahead of the per-window entries.
func UpdateBests(p athlete.Profile, activityBests streams.Bests) (athlete.Profile, []Record) {
	updated := p.Copy()

	var windowRecords []Record
	if activityBests.HasHeartRate {
		updated.Bests.HasHeartRate = true
		windowRecords = append(windowRecords,
			mergeMetric(MetricHeartRate, streams.HeartRateLabels, activityBests.HeartRate, updated.Bests.HeartRate)...)
	}
	if activityBests.HasWatts {
		updated.Bests.HasWatts = true
		windowRecords = append(windowRecords,
			mergeMetric(MetricWatts, streams.WattsLabels, activityBests.Watts, updated.Bests.Watts)...)
	}

	records := thresholdRecords(&updated, activityBests)
	return updated, append(records, windowRecords...)
}

func mergeMetric(metric string, labels []string, activity, stored map[string]int) []Record {
	var records []Record
	for _, label := range labels {
		v := activity[label]
		if v == 0 || v < stored[label] {
			continue
		}
		stored[label] = v
		records = append(records, Record{
			Metric:   metric,
			Duration: label,
			Value:    v,
		})
	}
	return records
}

func thresholdRecords(p *athlete.Profile, activityBests streams.Bests) []Record {
	var records []Record

	if activityBests.HasHeartRate {
		if maxHR := activityBests.HeartRate["max"]; maxHR > 0 &&
			(p.MaxHR == nil || maxHR > *p.MaxHR) {
			p.MaxHR = &maxHR
			records = append(records, Record{Metric: MetricMaxHR, Value: maxHR})
		}

		hr20, hr10 := activityBests.HeartRate["20min"], activityBests.HeartRate["10min"]
		if hr20 > 0 && hr10 > 0 {
			estimate := int(math.Round(float64(hr20+hr10) / 2 * thresholdRatio))
			if p.ThresholdHR == nil || estimate > *p.ThresholdHR {
				p.SetThresholdHR(estimate)
				records = append(records, Record{Metric: MetricThresholdHR, Value: estimate})
			}
		}
	}

	if activityBests.HasWatts {
		if w20 := activityBests.Watts["20min"]; w20 > 0 {
			estimate := int(math.Round(float64(w20) * thresholdRatio))
			if p.ThresholdPower == nil || estimate > *p.ThresholdPower {
				p.SetThresholdPower(estimate)
				records = append(records, Record{Metric: MetricFTP, Value: estimate})
			}
		}
	}

	return records
}
