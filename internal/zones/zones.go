package zones

import "math"

// Zone titles, ordered from easiest to hardest. Heart rate tables stop at
// VO2 Max; power tables add the open-ended Anaerobic band on top.
const (
	ZoneRecovery  = "Recovery"
	ZoneEndurance = "Endurance"
	ZoneTempo     = "Tempo"
	ZoneThreshold = "Threshold"
	ZoneVO2Max    = "VO2 Max"
	ZoneAnaerobic = "Anaerobic"
)

var (
	HeartRateZoneTitles = []string{ZoneRecovery, ZoneEndurance, ZoneTempo, ZoneThreshold, ZoneVO2Max}
	PowerZoneTitles     = []string{ZoneRecovery, ZoneEndurance, ZoneTempo, ZoneThreshold, ZoneVO2Max, ZoneAnaerobic}

	// band cut points, in percent of the athlete's reference value
	cyclingHRCutPoints = []float64{68, 83, 94, 105}
	runningHRCutPoints = []float64{72, 80, 87, 93}
	powerCutPoints     = []float64{54, 75, 90, 105, 120}
)

// Band is a single named zone. High is nil for the open-ended top band,
// which matches anything at or above its Low bound.
type Band struct {
	Title string   `json:"title"`
	Low   float64  `json:"low"`
	High  *float64 `json:"high"`
}

// Table is an ordered, contiguous set of bands derived from a single
// threshold value. A sample matches the first band containing it.
type Table []Band

// Classify returns the title of the band containing value, or "" when the
// table is empty or the value falls below the first band.
func (t Table) Classify(value float64) string {
	for _, band := range t {
		if value < band.Low {
			continue
		}
		if band.High == nil || value <= *band.High {
			return band.Title
		}
	}
	return ""
}

func buildTable(titles []string, reference int, cutPoints []float64) Table {
	table := make(Table, 0, len(titles))
	low := 0.0
	for i, title := range titles {
		if i == len(titles)-1 {
			table = append(table, Band{Title: title, Low: low})
			break
		}
		cut := math.Round(cutPoints[i] / 100 * float64(reference))
		high := cut - 1
		table = append(table, Band{Title: title, Low: low, High: &high})
		low = cut
	}
	return table
}

// HeartRateZonesFromThreshold builds the cycling-style heart rate table from
// the athlete's threshold heart rate.
func HeartRateZonesFromThreshold(thresholdHR int) Table {
	return buildTable(HeartRateZoneTitles, thresholdHR, cyclingHRCutPoints)
}

// HeartRateZonesFromMax builds the running-style heart rate table from the
// athlete's max heart rate. The cut points differ from the cycling table and
// the two must not be interchanged.
func HeartRateZonesFromMax(maxHR int) Table {
	return buildTable(HeartRateZoneTitles, maxHR, runningHRCutPoints)
}

// PowerZones builds the power table from the athlete's threshold power (FTP).
func PowerZones(thresholdPower int) Table {
	return buildTable(PowerZoneTitles, thresholdPower, powerCutPoints)
}
