package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// UploadSport is the only sport forwarded to the calendar service. Other
// sports stay in the compiled and archived sets for record-keeping but are
// never uploaded.
const UploadSport = "Run"

// allDayTime is the canonical instant for all-day workouts.
const allDayTime = "12:00:00"

// CompiledWorkout is the upload-ready form of one workout.
type CompiledWorkout struct {
	Date           string    `json:"date"`
	Name           string    `json:"name"`
	Sport          string    `json:"sport"`
	ExternalID     string    `json:"external_id"`
	StartDateLocal string    `json:"start_date_local"`
	Description    string    `json:"description"`
	Sections       []Section `json:"sections"`
	Steps          []Step    `json:"steps"`
	UploadEligible bool      `json:"upload_eligible"`
}

// Compile normalizes, validates and compiles a planned-workout document in
// one pass. The returned error joins every validation problem found across
// the whole document.
func Compile(data []byte) ([]CompiledWorkout, error) {
	workouts, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	compiled := make([]CompiledWorkout, 0, len(workouts))
	for _, w := range workouts {
		compiled = append(compiled, compileWorkout(w))
	}
	return compiled, nil
}

func compileWorkout(w Workout) CompiledWorkout {
	start := w.Time
	if w.AllDay {
		start = allDayTime
	}
	return CompiledWorkout{
		Date:           w.Date,
		Name:           w.Name,
		Sport:          w.Sport,
		ExternalID:     ExternalID(w.Date, w.Name),
		StartDateLocal: fmt.Sprintf("%sT%s", w.Date, start),
		Description:    Description(w),
		Sections:       w.Sections,
		Steps:          FlattenWorkout(w),
		UploadEligible: w.Sport == UploadSport,
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(value string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "workout"
	}
	return slug
}

// ExternalID derives the stable calendar-service identifier for a workout
// from its date and name only. Editing step content keeps the id; renaming
// creates a logically new calendar entry. The slug keeps the id readable in
// the calendar UI; the hash suffix separates names that slug identically.
func ExternalID(date, name string) string {
	slug := slugify(name)
	sum := sha256.Sum256([]byte(date + "|" + slug))
	return fmt.Sprintf("planned-run-%s-%s-%s", date, slug, hex.EncodeToString(sum[:4]))
}
