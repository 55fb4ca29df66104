// Package export maps completed activities from Strava or Intervals.icu into
// the normalized weekly JSON document.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Payload is the weekly export document.
type Payload struct {
	WeekStart  string   `json:"week_start"`
	WeekEnd    string   `json:"week_end"`
	BodyWeight *float64 `json:"body_weight"`
	Notes      string   `json:"notes"`
	Runs       []Run    `json:"runs"`
	Rides      []Ride   `json:"rides"`
	Strength   []any    `json:"strength"`
	Yoga       []any    `json:"yoga"`
	Other      []any    `json:"other"`
}

// Run is one completed run.
type Run struct {
	Date         string         `json:"date"`
	Type         string         `json:"type"`
	DistanceKm   float64        `json:"distance_km"`
	DurationMin  float64        `json:"duration_min"`
	AvgPace      *string        `json:"avg_pace"`
	AvgHR        *int           `json:"avg_hr"`
	MaxHR        *int           `json:"max_hr"`
	TrainingLoad *int           `json:"training_load"`
	Shoes        *string        `json:"shoes"`
	RPE          *int           `json:"rpe"`
	Notes        string         `json:"notes"`
	Splits       []any          `json:"splits"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Ride is one completed ride.
type Ride struct {
	Date         string         `json:"date"`
	Type         string         `json:"type"`
	DurationMin  float64        `json:"duration_min"`
	AvgPower     *int           `json:"avg_power"`
	NormPower    *int           `json:"norm_power"`
	AvgHR        *int           `json:"avg_hr"`
	TrainingLoad *int           `json:"training_load"`
	RPE          *int           `json:"rpe"`
	Notes        string         `json:"notes"`
	Extra        map[string]any `json:"extra,omitempty"`
}

func newPayload(weekStart, weekEnd string) *Payload {
	return &Payload{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Runs:      []Run{},
		Rides:     []Ride{},
		Strength:  []any{},
		Yoga:      []any{},
		Other:     []any{},
	}
}

// WritePayload writes the weekly document as weekly_<week_start>.json.
func WritePayload(p *Payload, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("weekly_%s.json", p.WeekStart))
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing weekly export: %w", err)
	}
	return outPath, nil
}

// Summary is a one-line human summary of the export.
func (p *Payload) Summary(skipped map[string]int) string {
	var runKm, rideMin float64
	for _, r := range p.Runs {
		runKm += r.DistanceKm
	}
	for _, r := range p.Rides {
		rideMin += r.DurationMin
	}
	skippedStr := "none"
	if len(skipped) > 0 {
		skippedStr = ""
		for _, k := range sortedKeys(skipped) {
			if skippedStr != "" {
				skippedStr += ", "
			}
			skippedStr += fmt.Sprintf("%s=%d", k, skipped[k])
		}
	}
	return fmt.Sprintf("Runs: %d, Rides: %d, Run km: %.1f, Ride min: %.1f, Skipped: %s",
		len(p.Runs), len(p.Rides), runKm, rideMin, skippedStr)
}

func round1(v float64) float64 {
	return math.Round((v+1e-9)*10) / 10
}

// formatPace renders minutes-per-km as m:ss.
func formatPace(minutesPerKm float64) string {
	totalSeconds := int(math.Round(minutesPerKm * 60))
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}

func avgPace(distanceKm, durationMin float64) *string {
	if distanceKm <= 0 || durationMin <= 0 {
		return nil
	}
	pace := formatPace(durationMin / distanceKm)
	return &pace
}

// asInt rounds any numeric JSON value to *int, nil for missing or non-numeric.
func asInt(v any) *int {
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// firstValue returns the first non-nil value among the given keys.
func firstValue(activity map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := activity[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// activityDate extracts the local calendar date of an activity.
func activityDate(activity map[string]any) (string, bool) {
	raw := asString(firstValue(activity, "start_date_local", "start_date"))
	if raw == "" {
		return "", false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
