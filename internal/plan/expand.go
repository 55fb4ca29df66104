package plan

// Flatten expands a validated training sequence into a flat step list with
// no repeat nodes left. A repeat's nested sequence is expanded once, then the
// result is concatenated count times in order. Repetition number is not
// recorded: the calendar service has no concept of a rep index, so anything
// that wants per-rep labels must derive them from position.
func Flatten(trainings []Training) []Step {
	var steps []Step
	for _, t := range trainings {
		switch {
		case t.Step != nil:
			steps = append(steps, *t.Step)
		case t.Repeat != nil:
			inner := Flatten(t.Repeat.Trainings)
			for range t.Repeat.Count {
				steps = append(steps, inner...)
			}
		}
	}
	return steps
}

// FlattenWorkout concatenates the flattened steps of every section, in
// section order. Sections are organizational only and leave no trace in the
// flat sequence.
func FlattenWorkout(w Workout) []Step {
	var steps []Step
	for _, sec := range w.Sections {
		steps = append(steps, Flatten(sec.Trainings)...)
	}
	return steps
}
