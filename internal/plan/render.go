package plan

import (
	"fmt"
	"io"
	"strings"
)

// Description renders the workout body in the calendar-service text format:
// section titles on their own line, repeats as an "Nx" header followed by
// their steps, and steps as "- <duration> <pace>% Pace <description>".
func Description(w Workout) string {
	var lines []string
	for i, sec := range w.Sections {
		if i > 0 {
			lines = append(lines, "")
		}
		if sec.Name != "" {
			lines = append(lines, sec.Name)
		}
		lines = renderTrainings(lines, sec.Trainings)
	}
	return strings.Join(lines, "\n")
}

func renderTrainings(lines []string, trainings []Training) []string {
	for _, t := range trainings {
		switch {
		case t.Repeat != nil:
			lines = append(lines, fmt.Sprintf("%dx", t.Repeat.Count))
			lines = renderTrainings(lines, t.Repeat.Trainings)
		case t.Step != nil:
			lines = append(lines, renderStep(*t.Step))
		}
	}
	return lines
}

func renderStep(s Step) string {
	if s.Description != "" {
		return fmt.Sprintf("- %s %d%% Pace %s", s.Duration, s.Pace, s.Description)
	}
	return fmt.Sprintf("- %s %d%% Pace", s.Duration, s.Pace)
}

// WriteReport renders the compiled set as a human-readable console report.
func WriteReport(w io.Writer, compiled []CompiledWorkout) {
	eligible := 0
	for _, cw := range compiled {
		header := fmt.Sprintf("%s %s [%s]", cw.StartDateLocal, cw.Name, cw.Sport)
		if cw.UploadEligible {
			eligible++
		} else {
			header += " (not uploaded)"
		}
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, cw.Description)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Workouts: %d, upload-eligible: %d\n", len(compiled), eligible)
}
