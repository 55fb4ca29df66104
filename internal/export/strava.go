package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/claude/stridesync/internal/strava"
)

// StravaOptions controls which activities the Strava export keeps.
type StravaOptions struct {
	IncludePrivate bool
	IncludeCommute bool
}

// FromStrava maps Strava activities into the weekly payload. Run and ride
// details (descriptions) and gear names are fetched per activity; everything
// else comes from the listing.
func FromStrava(ctx context.Context, activities []map[string]any, client *strava.Client, gear strava.GearNamer, weekStart, weekEnd string, opts StravaOptions) (*Payload, map[string]int, error) {
	payload := newPayload(weekStart, weekEnd)
	skipped := map[string]int{}

	for _, activity := range activities {
		if !opts.IncludePrivate {
			if private, _ := activity["private"].(bool); private {
				skipped["private"]++
				continue
			}
		}
		if !opts.IncludeCommute {
			if commute, _ := activity["commute"].(bool); commute {
				skipped["commute"]++
				continue
			}
		}

		activityType := asString(activity["type"])
		switch activityType {
		case "Run", "VirtualRun":
			run, err := mapStravaRun(ctx, activity, client, gear)
			if err != nil {
				return nil, nil, err
			}
			payload.Runs = append(payload.Runs, run)
		case "Ride", "VirtualRide":
			ride, err := mapStravaRide(ctx, activity, client)
			if err != nil {
				return nil, nil, err
			}
			payload.Rides = append(payload.Rides, ride)
		default:
			if activityType == "" {
				activityType = "unknown"
			}
			skipped[activityType]++
		}
	}

	sort.Slice(payload.Runs, func(i, j int) bool { return payload.Runs[i].Date < payload.Runs[j].Date })
	sort.Slice(payload.Rides, func(i, j int) bool { return payload.Rides[i].Date < payload.Rides[j].Date })
	return payload, skipped, nil
}

func mapStravaRun(ctx context.Context, activity map[string]any, client *strava.Client, gear strava.GearNamer) (Run, error) {
	distanceM, _ := asFloat(activity["distance"])
	movingTime, _ := asFloat(activity["moving_time"])
	distanceKm := distanceM / 1000.0
	durationMin := movingTime / 60.0

	date, ok := activityDate(activity)
	if !ok {
		return Run{}, fmt.Errorf("run activity missing start date: %v", activity["id"])
	}

	run := Run{
		Date:         date,
		Type:         stravaRunType(activity),
		DistanceKm:   round1(distanceKm),
		DurationMin:  round1(durationMin),
		AvgPace:      avgPace(distanceKm, durationMin),
		AvgHR:        asInt(activity["average_heartrate"]),
		MaxHR:        asInt(activity["max_heartrate"]),
		TrainingLoad: asInt(activity["suffer_score"]),
		Splits:       []any{},
	}

	if gearID := asString(activity["gear_id"]); gearID != "" && gear != nil {
		name, err := gear.GearName(ctx, gearID)
		if err != nil {
			return Run{}, fmt.Errorf("resolving gear %s: %w", gearID, err)
		}
		if name != "" {
			run.Shoes = &name
		}
	}

	notes, err := fetchDescription(ctx, activity, client)
	if err != nil {
		return Run{}, err
	}
	run.Notes = notes
	return run, nil
}

func mapStravaRide(ctx context.Context, activity map[string]any, client *strava.Client) (Ride, error) {
	movingTime, _ := asFloat(activity["moving_time"])

	date, ok := activityDate(activity)
	if !ok {
		return Ride{}, fmt.Errorf("ride activity missing start date: %v", activity["id"])
	}

	ride := Ride{
		Date:         date,
		Type:         stravaRideType(activity),
		DurationMin:  round1(movingTime / 60.0),
		AvgPower:     asInt(activity["average_watts"]),
		NormPower:    asInt(activity["weighted_average_watts"]),
		AvgHR:        asInt(activity["average_heartrate"]),
		TrainingLoad: asInt(activity["suffer_score"]),
	}

	notes, err := fetchDescription(ctx, activity, client)
	if err != nil {
		return Ride{}, err
	}
	ride.Notes = notes
	return ride, nil
}

// fetchDescription pulls the activity description from the detail endpoint.
func fetchDescription(ctx context.Context, activity map[string]any, client *strava.Client) (string, error) {
	if client == nil {
		return "", nil
	}
	idFloat, ok := asFloat(activity["id"])
	if !ok {
		return "", nil
	}
	detail, err := client.GetActivityDetail(ctx, int64(idFloat))
	if err != nil {
		return "", fmt.Errorf("fetching activity detail: %w", err)
	}
	return asString(detail["description"]), nil
}

// stravaRunType classifies a run from the workout_type field, falling back
// to name keywords and finally distance.
func stravaRunType(activity map[string]any) string {
	if wt := asInt(activity["workout_type"]); wt != nil {
		switch *wt {
		case 1:
			return "race"
		case 2:
			return "long"
		case 3:
			return "intervals"
		}
	}
	name := strings.ToLower(asString(activity["name"]))
	switch {
	case strings.Contains(name, "tempo"):
		return "tempo"
	case strings.Contains(name, "interval"), strings.Contains(name, "vo2"):
		return "intervals"
	case strings.Contains(name, "progression"):
		return "progression"
	case strings.Contains(name, "recovery"):
		return "recovery"
	case strings.Contains(name, "easy"):
		return "easy"
	case strings.Contains(name, "race"):
		return "race"
	}
	if distanceM, _ := asFloat(activity["distance"]); distanceM/1000.0 >= 20 {
		return "long"
	}
	return "unknown"
}

func stravaRideType(activity map[string]any) string {
	name := strings.ToLower(asString(activity["name"]))
	if trainer, _ := activity["trainer"].(bool); trainer {
		if strings.Contains(name, "zwift") {
			return "zwift_tempo"
		}
		return "unknown"
	}
	if commute, _ := activity["commute"].(bool); commute {
		if strings.Contains(name, "interval") || strings.Contains(name, "vo2") {
			return "zwift_intervals"
		}
		return "recovery"
	}
	if strings.Contains(name, "race") {
		return "race"
	}
	return "outdoor_endurance"
}
