package plan

import "encoding/json"

// Workout is one calendar entry after normalization. Records are immutable
// from here on: expansion and compilation build new structures rather than
// mutating these.
type Workout struct {
	Date     string // YYYY-MM-DD
	Name     string
	Sport    string
	Time     string // HH:MM:SS, empty when AllDay
	AllDay   bool
	Sections []Section
}

// Section is a named, purely organizational grouping of trainings. A workout
// authored with a bare trainings list is normalized into one unnamed section.
type Section struct {
	Name      string
	Trainings []Training
}

// Training is a tagged variant: exactly one of Step or Repeat is non-nil.
type Training struct {
	Step   *Step
	Repeat *Repeat
}

// Step is a leaf training unit.
type Step struct {
	Duration    Duration `json:"duration"`
	Pace        int      `json:"pace"`
	Description string   `json:"description"`
}

// Repeat replays its nested sequence Count times.
type Repeat struct {
	Count     int
	Trainings []Training
}

// MarshalJSON emits the source-document shape for the active variant.
func (t Training) MarshalJSON() ([]byte, error) {
	if t.Repeat != nil {
		return json.Marshal(map[string]any{
			"repeat": map[string]any{
				"count":     t.Repeat.Count,
				"trainings": t.Repeat.Trainings,
			},
		})
	}
	return json.Marshal(t.Step)
}

// MarshalJSON keeps sections in the source-document shape.
func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"name":      s.Name,
		"trainings": s.Trainings,
	})
}
