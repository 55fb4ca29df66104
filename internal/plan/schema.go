package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw decode shapes. Duration, pace and repeat counts stay as raw JSON so
// the parser can report the offending literal instead of a decode error.
type rawWorkout struct {
	Date      string        `json:"date"`
	Name      string        `json:"name"`
	Sport     string        `json:"sport"`
	Time      *string       `json:"time"`
	AllDay    bool          `json:"all_day"`
	Trainings []rawTraining `json:"trainings"`
	Sections  []rawSection  `json:"sections"`
	// Shorthand section keys, an alternative to the sections list.
	Warmup   []rawTraining `json:"warmup"`
	MainSet  []rawTraining `json:"main_set"`
	Cooldown []rawTraining `json:"cooldown"`
}

type rawSection struct {
	Name      string        `json:"name"`
	Title     string        `json:"title"`
	Trainings []rawTraining `json:"trainings"`
}

type rawTraining struct {
	Duration    json.RawMessage `json:"duration"`
	Pace        json.RawMessage `json:"pace"`
	Description string          `json:"description"`
	Repeat      *rawRepeat      `json:"repeat"`
}

type rawRepeat struct {
	Count     json.RawMessage `json:"count"`
	Trainings []rawTraining   `json:"trainings"`
}

// Normalize parses the planned-workout document and coerces the three
// accepted top-level shapes (single object, list, {"workouts": [...]}) into
// an ordered workout list. Every workout is checked even after the first
// failure, so one edit cycle can fix the whole document; the returned error
// joins everything found.
func Normalize(data []byte) ([]Workout, error) {
	rawWorkouts, err := splitDocument(data)
	if err != nil {
		return nil, err
	}

	var workouts []Workout
	var errs []error
	for i, raw := range rawWorkouts {
		w, werrs := normalizeWorkout(i, raw)
		if len(werrs) > 0 {
			errs = append(errs, werrs...)
			continue
		}
		workouts = append(workouts, w)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return workouts, nil
}

// splitDocument resolves the top-level shape into per-workout raw objects,
// preserving input order.
func splitDocument(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, &SchemaError{Msg: "document is empty"}
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("invalid JSON list: %v", err)}
		}
		if len(list) == 0 {
			return nil, &SchemaError{Msg: "document contains no workouts"}
		}
		return list, nil
	case '{':
		var wrapper struct {
			Workouts []json.RawMessage `json:"workouts"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("invalid JSON object: %v", err)}
		}
		if wrapper.Workouts != nil {
			if len(wrapper.Workouts) == 0 {
				return nil, &SchemaError{Msg: "\"workouts\" list is empty"}
			}
			return wrapper.Workouts, nil
		}
		// No workouts key: the object is a single workout.
		return []json.RawMessage{json.RawMessage(data)}, nil
	default:
		return nil, &SchemaError{Msg: "document must be a workout object, a list of workouts, or {\"workouts\": [...]}"}
	}
}

func normalizeWorkout(index int, data json.RawMessage) (Workout, []error) {
	var raw rawWorkout
	if err := json.Unmarshal(data, &raw); err != nil {
		return Workout{}, []error{&SchemaError{
			Ctx: Context{Index: index},
			Msg: fmt.Sprintf("not a valid workout object: %v", err),
		}}
	}

	ctx := Context{Index: index, Date: raw.Date, Name: strings.TrimSpace(raw.Name)}
	var errs []error
	schemaErr := func(field, msg string) {
		errs = append(errs, &SchemaError{Ctx: ctx, Field: field, Msg: msg})
	}

	if raw.Date == "" {
		schemaErr("date", "missing required field (YYYY-MM-DD)")
	} else if _, err := time.Parse("2006-01-02", raw.Date); err != nil {
		schemaErr("date", fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", raw.Date))
	}
	if strings.TrimSpace(raw.Name) == "" {
		schemaErr("name", "missing or empty (non-empty string required)")
	}
	if strings.TrimSpace(raw.Sport) == "" {
		schemaErr("sport", "missing or empty (non-empty string required)")
	}

	var startTime string
	switch {
	case raw.Time != nil && raw.AllDay:
		schemaErr("time", "workout has both time and all_day: true; use exactly one")
	case raw.Time == nil && !raw.AllDay:
		schemaErr("time", "workout needs time (HH:MM or HH:MM:SS) or all_day: true")
	case raw.Time != nil:
		normalized, err := normalizeTime(*raw.Time)
		if err != nil {
			schemaErr("time", err.Error())
		}
		startTime = normalized
	}

	meta := metadataSections(raw)

	var sections []Section
	switch {
	case len(raw.Sections) > 0 && len(raw.Trainings) > 0:
		schemaErr("sections", "workout has both trainings and sections; use exactly one")
	case len(raw.Sections) > 0:
		for i, sec := range raw.Sections {
			secPath := fmt.Sprintf("sections[%d]", i)
			if len(sec.Trainings) == 0 {
				schemaErr(secPath+".trainings", "must be a non-empty list")
				continue
			}
			name := sec.Name
			if name == "" {
				name = sec.Title
			}
			trainings := resolveTrainings(ctx, secPath+".trainings", sec.Trainings, &errs)
			sections = append(sections, Section{Name: strings.TrimSpace(name), Trainings: trainings})
		}
	case len(meta) > 0 && len(raw.Trainings) > 0:
		schemaErr("trainings", "workout has both trainings and warmup/main_set/cooldown; use exactly one")
	case len(meta) > 0:
		for _, m := range meta {
			trainings := resolveTrainings(ctx, m.key, m.trainings, &errs)
			sections = append(sections, Section{Name: m.title, Trainings: trainings})
		}
	case len(raw.Trainings) > 0:
		trainings := resolveTrainings(ctx, "trainings", raw.Trainings, &errs)
		sections = append(sections, Section{Trainings: trainings})
	default:
		schemaErr("trainings", "workout needs a non-empty trainings list or non-empty sections")
	}

	if len(errs) > 0 {
		return Workout{}, errs
	}
	return Workout{
		Date:     raw.Date,
		Name:     strings.TrimSpace(raw.Name),
		Sport:    strings.TrimSpace(raw.Sport),
		Time:     startTime,
		AllDay:   raw.AllDay,
		Sections: sections,
	}, nil
}

type metaSection struct {
	key       string
	title     string
	trainings []rawTraining
}

// metadataSections collects the shorthand warmup/main_set/cooldown keys into
// titled sections, in that fixed order. Empty lists are skipped.
func metadataSections(raw rawWorkout) []metaSection {
	var out []metaSection
	for _, m := range []metaSection{
		{key: "warmup", title: "Warmup", trainings: raw.Warmup},
		{key: "main_set", title: "Main set", trainings: raw.MainSet},
		{key: "cooldown", title: "Cooldown", trainings: raw.Cooldown},
	} {
		if len(m.trainings) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// resolveTrainings validates a training list and parses its fields,
// producing the tagged-variant tree. Errors are collected, not short-circuited.
func resolveTrainings(ctx Context, path string, raw []rawTraining, errs *[]error) []Training {
	trainings := make([]Training, 0, len(raw))
	for i, rt := range raw {
		nodePath := fmt.Sprintf("%s[%d]", path, i)
		if rt.Repeat != nil {
			trainings = append(trainings, resolveRepeat(ctx, nodePath+".repeat", rt.Repeat, errs))
			continue
		}
		if rt.Duration == nil && rt.Pace == nil {
			*errs = append(*errs, &StructureError{
				Ctx:  ctx,
				Path: nodePath,
				Msg:  "node is neither a step (duration + pace) nor a repeat",
			})
			continue
		}

		step := Step{Description: strings.TrimSpace(rt.Description)}
		duration, err := ParseDuration(rt.Duration)
		if err != nil {
			var perr *DurationParseError
			if errors.As(err, &perr) {
				perr.Ctx = ctx
				perr.Path = nodePath + ".duration"
			}
			*errs = append(*errs, err)
		}
		step.Duration = duration

		pace, err := ParsePace(rt.Pace)
		if err != nil {
			var perr *PaceRangeError
			if errors.As(err, &perr) {
				perr.Ctx = ctx
				perr.Path = nodePath + ".pace"
			}
			*errs = append(*errs, err)
		}
		step.Pace = pace

		trainings = append(trainings, Training{Step: &step})
	}
	return trainings
}

func resolveRepeat(ctx Context, path string, raw *rawRepeat, errs *[]error) Training {
	var count int
	if err := json.Unmarshal(raw.Count, &count); err != nil || count < 1 {
		*errs = append(*errs, &StructureError{
			Ctx:  ctx,
			Path: path + ".count",
			Msg:  fmt.Sprintf("must be a positive integer, got %s", string(raw.Count)),
		})
	}
	if len(raw.Trainings) == 0 {
		*errs = append(*errs, &StructureError{
			Ctx:  ctx,
			Path: path + ".trainings",
			Msg:  "must be a non-empty list",
		})
		return Training{Repeat: &Repeat{Count: count}}
	}
	nested := resolveTrainings(ctx, path+".trainings", raw.Trainings, errs)
	return Training{Repeat: &Repeat{Count: count, Trainings: nested}}
}

// normalizeTime validates HH:MM or HH:MM:SS and pads to HH:MM:SS.
func normalizeTime(value string) (string, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return "", fmt.Errorf("invalid time %q (want HH:MM or HH:MM:SS)", value)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("invalid time %q (want HH:MM or HH:MM:SS)", value)
		}
		nums[i] = n
	}
	hh, mm, ss := nums[0], nums[1], nums[2]
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return "", fmt.Errorf("time %q out of range", value)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss), nil
}
