package plan

import (
	"errors"
	"strings"
	"testing"
)

const validWorkoutJSON = `{
	"date": "2026-01-21",
	"time": "06:30",
	"sport": "Run",
	"name": "Easy",
	"trainings": [{"duration": "10m", "pace": 80, "description": ""}]
}`

// TestNormalizeTopLevelShapes verifies that a single object, a list and a
// {"workouts": [...]} wrapper all normalize to the same workout.
func TestNormalizeTopLevelShapes(t *testing.T) {
	docs := map[string]string{
		"object":  validWorkoutJSON,
		"list":    `[` + validWorkoutJSON + `]`,
		"wrapper": `{"workouts": [` + validWorkoutJSON + `]}`,
	}
	for shape, doc := range docs {
		workouts, err := Normalize([]byte(doc))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", shape, err)
			continue
		}
		if len(workouts) != 1 {
			t.Errorf("%s: got %d workouts, want 1", shape, len(workouts))
			continue
		}
		w := workouts[0]
		if w.Date != "2026-01-21" || w.Name != "Easy" || w.Sport != "Run" {
			t.Errorf("%s: workout = %+v", shape, w)
		}
		if w.Time != "06:30:00" {
			t.Errorf("%s: time = %q, want 06:30:00", shape, w.Time)
		}
		if len(w.Sections) != 1 || len(w.Sections[0].Trainings) != 1 {
			t.Fatalf("%s: sections = %+v", shape, w.Sections)
		}
		step := w.Sections[0].Trainings[0].Step
		if step == nil {
			t.Fatalf("%s: training is not a step", shape)
		}
		if step.Duration.Seconds != 600 || step.Pace != 80 {
			t.Errorf("%s: step = %+v, want 600s at pace 80", shape, step)
		}
	}
}

// TestNormalizeRejectsTopLevel verifies that unusable top-level shapes fail
// with a SchemaError.
func TestNormalizeRejectsTopLevel(t *testing.T) {
	for _, doc := range []string{``, `42`, `"workouts"`, `[]`, `{"workouts": []}`} {
		_, err := Normalize([]byte(doc))
		var serr *SchemaError
		if !errors.As(err, &serr) {
			t.Errorf("Normalize(%q): error = %v, want *SchemaError", doc, err)
		}
	}
}

// TestNormalizeSections verifies that named sections survive normalization
// in order.
func TestNormalizeSections(t *testing.T) {
	doc := `{
		"date": "2026-01-21", "all_day": true, "sport": "Run", "name": "Quality",
		"sections": [
			{"name": "Warmup", "trainings": [{"duration": "10m", "pace": 70, "description": "easy jog"}]},
			{"name": "Main set", "trainings": [{"duration": "5km", "pace": 100, "description": ""}]}
		]
	}`
	workouts, err := Normalize([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	w := workouts[0]
	if !w.AllDay {
		t.Error("AllDay = false, want true")
	}
	if len(w.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(w.Sections))
	}
	if w.Sections[0].Name != "Warmup" || w.Sections[1].Name != "Main set" {
		t.Errorf("section names = %q, %q", w.Sections[0].Name, w.Sections[1].Name)
	}
	if d := w.Sections[1].Trainings[0].Step.Duration; d.Kind != DurationDistance || d.Kilometres != 5 {
		t.Errorf("main set duration = %+v, want 5km distance", d)
	}
}

// TestNormalizeShorthandSections verifies the warmup/main_set/cooldown keys
// build titled sections in their fixed order, skipping absent keys.
func TestNormalizeShorthandSections(t *testing.T) {
	doc := `{
		"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Quality",
		"warmup": [{"duration": "10m", "pace": 70, "description": "easy jog"}],
		"main_set": [{"repeat": {"count": 4, "trainings": [{"duration": "3m", "pace": 100}]}}],
		"cooldown": [{"duration": "5m", "pace": 65}]
	}`
	workouts, err := Normalize([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	w := workouts[0]
	if len(w.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(w.Sections))
	}
	wantNames := []string{"Warmup", "Main set", "Cooldown"}
	for i, sec := range w.Sections {
		if sec.Name != wantNames[i] {
			t.Errorf("section %d = %q, want %q", i, sec.Name, wantNames[i])
		}
	}
	if rep := w.Sections[1].Trainings[0].Repeat; rep == nil || rep.Count != 4 {
		t.Errorf("main set = %+v, want a 4x repeat", w.Sections[1].Trainings[0])
	}

	partial := `{
		"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Easy",
		"main_set": [{"duration": "30m", "pace": 75}]
	}`
	workouts, err = Normalize([]byte(partial))
	if err != nil {
		t.Fatal(err)
	}
	if secs := workouts[0].Sections; len(secs) != 1 || secs[0].Name != "Main set" {
		t.Errorf("sections = %+v, want only Main set", secs)
	}
}

// TestNormalizeShorthandConflicts verifies shorthand keys cannot be combined
// with a bare trainings list, and that error paths name the shorthand key.
func TestNormalizeShorthandConflicts(t *testing.T) {
	both := `{
		"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Easy",
		"trainings": [{"duration": "30m", "pace": 75}],
		"warmup": [{"duration": "10m", "pace": 70}]
	}`
	_, err := Normalize([]byte(both))
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	if serr.Field != "trainings" {
		t.Errorf("field = %q, want trainings", serr.Field)
	}

	badStep := `{
		"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Easy",
		"cooldown": [{"duration": "10h", "pace": 70}]
	}`
	_, err = Normalize([]byte(badStep))
	var derr *DurationParseError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DurationParseError", err)
	}
	if want := "cooldown[0].duration"; derr.Path != want {
		t.Errorf("path = %q, want %q", derr.Path, want)
	}
}

// TestNormalizeFieldErrors verifies each required-field rule produces a
// SchemaError naming the field.
func TestNormalizeFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			"missing date",
			`{"time": "06:30", "sport": "Run", "name": "Easy", "trainings": [{"duration": 60, "pace": 80}]}`,
			"date",
		},
		{
			"bad date",
			`{"date": "21/01/2026", "time": "06:30", "sport": "Run", "name": "Easy", "trainings": [{"duration": 60, "pace": 80}]}`,
			"date",
		},
		{
			"missing name",
			`{"date": "2026-01-21", "time": "06:30", "sport": "Run", "trainings": [{"duration": 60, "pace": 80}]}`,
			"name",
		},
		{
			"missing sport",
			`{"date": "2026-01-21", "time": "06:30", "name": "Easy", "trainings": [{"duration": 60, "pace": 80}]}`,
			"sport",
		},
		{
			"time and all_day",
			`{"date": "2026-01-21", "time": "06:30", "all_day": true, "sport": "Run", "name": "Easy", "trainings": [{"duration": 60, "pace": 80}]}`,
			"time",
		},
		{
			"neither time nor all_day",
			`{"date": "2026-01-21", "sport": "Run", "name": "Easy", "trainings": [{"duration": 60, "pace": 80}]}`,
			"time",
		},
		{
			"bad time",
			`{"date": "2026-01-21", "time": "25:00", "sport": "Run", "name": "Easy", "trainings": [{"duration": 60, "pace": 80}]}`,
			"time",
		},
		{
			"trainings and sections",
			`{"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Easy",
			  "trainings": [{"duration": 60, "pace": 80}],
			  "sections": [{"name": "A", "trainings": [{"duration": 60, "pace": 80}]}]}`,
			"sections",
		},
		{
			"neither trainings nor sections",
			`{"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Easy"}`,
			"trainings",
		},
		{
			"empty section trainings",
			`{"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Easy",
			  "sections": [{"name": "A", "trainings": []}]}`,
			"sections[0].trainings",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.doc))
			var serr *SchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("error = %v, want *SchemaError", err)
			}
			if serr.Field != tt.field {
				t.Errorf("field = %q, want %q (err: %v)", serr.Field, tt.field, serr)
			}
		})
	}
}

// TestNormalizeCollectsAllErrors verifies that every workout's problems are
// reported in one pass, so a whole document can be fixed in one edit cycle.
func TestNormalizeCollectsAllErrors(t *testing.T) {
	doc := `[
		{"date": "2026-01-21", "time": "06:30", "all_day": true, "sport": "Run", "name": "Both",
		 "trainings": [{"duration": 60, "pace": 80}]},
		{"date": "2026-01-22", "time": "06:30", "sport": "Run", "name": "Bad step",
		 "trainings": [{"duration": "10h", "pace": 200}]},
		{"date": "2026-01-23", "time": "06:30", "sport": "Ride", "name": "Fine",
		 "trainings": [{"duration": "30m", "pace": 70}]}
	]`
	_, err := Normalize([]byte(doc))
	if err == nil {
		t.Fatal("expected errors")
	}

	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Error("missing SchemaError for workout 0")
	}
	var derr *DurationParseError
	if !errors.As(err, &derr) {
		t.Error("missing DurationParseError for workout 1")
	}
	var perr *PaceRangeError
	if !errors.As(err, &perr) {
		t.Error("missing PaceRangeError for workout 1")
	}

	msg := err.Error()
	if !strings.Contains(msg, "workout[0]") || !strings.Contains(msg, "workout[1]") {
		t.Errorf("error message should name both bad workouts:\n%s", msg)
	}
	if strings.Contains(msg, "workout[2]") {
		t.Errorf("valid workout reported as an error:\n%s", msg)
	}
}

// TestNormalizeErrorContext verifies errors carry index, date, name and a
// field path deep enough to locate the problem.
func TestNormalizeErrorContext(t *testing.T) {
	doc := `[{"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Reps",
		"trainings": [{"repeat": {"count": 3, "trainings": [{"duration": "2x", "pace": 90}]}}]}]`
	_, err := Normalize([]byte(doc))
	var derr *DurationParseError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DurationParseError", err)
	}
	if derr.Ctx.Index != 0 || derr.Ctx.Date != "2026-01-21" || derr.Ctx.Name != "Reps" {
		t.Errorf("ctx = %+v", derr.Ctx)
	}
	if want := "trainings[0].repeat.trainings[0].duration"; derr.Path != want {
		t.Errorf("path = %q, want %q", derr.Path, want)
	}
}

// TestNormalizeMalformedNode verifies that a node with neither duration nor
// repeat fails with StructureError instead of being silently skipped.
func TestNormalizeMalformedNode(t *testing.T) {
	doc := `{"date": "2026-01-21", "time": "06:30", "sport": "Run", "name": "Easy",
		"trainings": [{"description": "just vibes"}]}`
	_, err := Normalize([]byte(doc))
	var serr *StructureError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *StructureError", err)
	}
	if serr.Path != "trainings[0]" {
		t.Errorf("path = %q, want trainings[0]", serr.Path)
	}
}
