package export

import (
	"sort"
	"strings"

	"github.com/claude/stridesync/internal/intervals"
)

// intervalsExtraKeys are passed through verbatim when present, so downstream
// analysis keeps access to Intervals.icu's richer training-load fields.
var intervalsExtraKeys = []string{
	"id", "name", "calories", "elevation_gain", "avg_cadence", "avg_speed",
	"max_speed", "work", "icu_intensity", "icu_training_load",
	"training_load", "ctl", "atl", "tsb",
}

// FromIntervals maps Intervals.icu activities into the weekly payload.
// Field names vary by the activity's original source, so values are picked
// with fallbacks.
func FromIntervals(activities []intervals.Activity, weekStart, weekEnd string) (*Payload, map[string]int) {
	payload := newPayload(weekStart, weekEnd)
	skipped := map[string]int{}

	for _, activity := range activities {
		date, ok := activityDate(activity)
		if !ok {
			skipped["missing_date"]++
			continue
		}

		activityType := asString(activity["type"])
		switch {
		case activityType == "Run":
			distanceKm := intervalsDistanceKm(activity)
			durationMin := intervalsDurationMin(activity)
			payload.Runs = append(payload.Runs, Run{
				Date:         date,
				Type:         intervalsRunType(activity),
				DistanceKm:   round1(distanceKm),
				DurationMin:  round1(durationMin),
				AvgPace:      avgPace(distanceKm, durationMin),
				AvgHR:        asInt(firstValue(activity, "avg_hr", "average_hr", "average_heartrate")),
				MaxHR:        asInt(firstValue(activity, "max_hr", "max_heartrate")),
				TrainingLoad: asInt(firstValue(activity, "icu_training_load", "training_load")),
				RPE:          asInt(activity["feel"]),
				Notes:        activityNotes(activity),
				Splits:       []any{},
				Extra:        extraFields(activity),
			})
		case isRideType(activityType):
			payload.Rides = append(payload.Rides, Ride{
				Date:         date,
				Type:         intervalsRideType(activity),
				DurationMin:  round1(intervalsDurationMin(activity)),
				AvgPower:     asInt(firstValue(activity, "avg_power", "average_power", "avg_watts")),
				NormPower:    asInt(firstValue(activity, "norm_power", "normalized_power")),
				AvgHR:        asInt(firstValue(activity, "avg_hr", "average_hr", "average_heartrate")),
				TrainingLoad: asInt(firstValue(activity, "icu_training_load", "training_load")),
				RPE:          asInt(activity["feel"]),
				Notes:        activityNotes(activity),
				Extra:        extraFields(activity),
			})
		default:
			if activityType == "" {
				activityType = "unknown"
			}
			skipped[activityType]++
		}
	}

	sort.Slice(payload.Runs, func(i, j int) bool { return payload.Runs[i].Date < payload.Runs[j].Date })
	sort.Slice(payload.Rides, func(i, j int) bool { return payload.Rides[i].Date < payload.Rides[j].Date })
	return payload, skipped
}

// intervalsDistanceKm normalizes distance fields that may be metres or km.
func intervalsDistanceKm(activity map[string]any) float64 {
	v, ok := asFloat(firstValue(activity, "distance", "distance_km", "dist"))
	if !ok || v <= 0 {
		return 0
	}
	if v > 1000 {
		return v / 1000.0
	}
	return v
}

func intervalsDurationMin(activity map[string]any) float64 {
	v, ok := asFloat(firstValue(activity, "moving_time", "duration", "elapsed_time"))
	if !ok || v <= 0 {
		return 0
	}
	return v / 60.0
}

func intervalsRunType(activity map[string]any) string {
	name := strings.ToLower(asString(activity["name"]))
	switch {
	case strings.Contains(name, "race"):
		return "race"
	case strings.Contains(name, "long"):
		return "long"
	case strings.Contains(name, "interval"), strings.Contains(name, "vo2"):
		return "intervals"
	case strings.Contains(name, "tempo"):
		return "tempo"
	case strings.Contains(name, "progression"):
		return "progression"
	case strings.Contains(name, "recovery"):
		return "recovery"
	case strings.Contains(name, "easy"):
		return "easy"
	}
	return "unknown"
}

func intervalsRideType(activity map[string]any) string {
	name := strings.ToLower(asString(activity["name"]))
	if trainer, _ := activity["trainer"].(bool); trainer {
		if strings.Contains(name, "zwift") {
			return "zwift_tempo"
		}
		return "unknown"
	}
	if commute, _ := activity["commute"].(bool); commute {
		return "recovery"
	}
	if strings.Contains(name, "race") {
		return "race"
	}
	return "outdoor_endurance"
}

func isRideType(activityType string) bool {
	switch activityType {
	case "Ride", "Virtual Ride", "VirtualRide", "E-Bike Ride", "Mountain Bike Ride", "Gravel Ride":
		return true
	}
	return false
}

func activityNotes(activity map[string]any) string {
	if notes := asString(firstValue(activity, "notes", "description")); notes != "" {
		return notes
	}
	return ""
}

func extraFields(activity map[string]any) map[string]any {
	extra := map[string]any{}
	for _, key := range intervalsExtraKeys {
		if v, ok := activity[key]; ok && v != nil {
			extra[key] = v
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
