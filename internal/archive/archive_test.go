package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/stridesync/internal/plan"
)

// TestWeekStart verifies the Monday derivation from the earliest workout
// date, including workouts listed out of order and a Sunday edge.
func TestWeekStart(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  string
	}{
		{"monday itself", []string{"2026-01-19"}, "2026-01-19"},
		{"midweek", []string{"2026-01-21"}, "2026-01-19"},
		{"sunday", []string{"2026-01-25"}, "2026-01-19"},
		{"out of order", []string{"2026-01-24", "2026-01-21", "2026-01-23"}, "2026-01-19"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workouts := make([]plan.CompiledWorkout, 0, len(tt.dates))
			for _, d := range tt.dates {
				workouts = append(workouts, plan.CompiledWorkout{Date: d})
			}
			got, err := WeekStart(workouts)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("WeekStart(%v) = %q, want %q", tt.dates, got, tt.want)
			}
		})
	}
}

// TestWeekStartEmpty verifies an empty set is an error, not a zero date.
func TestWeekStartEmpty(t *testing.T) {
	if _, err := WeekStart(nil); err == nil {
		t.Error("WeekStart(nil): expected error")
	}
}

// TestArchivePlan verifies the on-disk unit: path, metadata and the full
// workout set including non-eligible entries.
func TestArchivePlan(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "out"))
	store.now = func() time.Time {
		return time.Date(2026, 1, 20, 8, 15, 0, 0, time.UTC)
	}

	workouts := []plan.CompiledWorkout{
		{Date: "2026-01-21", Name: "Easy", Sport: "Run", UploadEligible: true},
		{Date: "2026-01-22", Name: "Spin", Sport: "Ride", UploadEligible: false},
	}
	path, err := store.ArchivePlan(workouts, "week.json")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "out", "plan_2026-01-19.json"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		ArchiveID   string                 `json:"archive_id"`
		WeekStart   string                 `json:"week_start"`
		GeneratedAt string                 `json:"generated_at"`
		SourceFile  string                 `json:"source_file"`
		Workouts    []plan.CompiledWorkout `json:"workouts"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ArchiveID == "" {
		t.Error("archive_id is empty")
	}
	if got.WeekStart != "2026-01-19" {
		t.Errorf("week_start = %q, want 2026-01-19", got.WeekStart)
	}
	if got.GeneratedAt != "2026-01-20T08:15:00" {
		t.Errorf("generated_at = %q", got.GeneratedAt)
	}
	if got.SourceFile != "week.json" {
		t.Errorf("source_file = %q, want week.json", got.SourceFile)
	}
	if len(got.Workouts) != 2 {
		t.Fatalf("archived %d workouts, want 2", len(got.Workouts))
	}
	if got.Workouts[1].Sport != "Ride" {
		t.Error("non-eligible workout missing from archive")
	}
}

// TestArchivePlanOverwrites verifies re-archiving the same week replaces the
// unit instead of accumulating files.
func TestArchivePlanOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())

	first := []plan.CompiledWorkout{{Date: "2026-01-21", Name: "Easy"}}
	if _, err := store.ArchivePlan(first, "v1.json"); err != nil {
		t.Fatal(err)
	}
	second := []plan.CompiledWorkout{
		{Date: "2026-01-21", Name: "Easy"},
		{Date: "2026-01-23", Name: "Tempo"},
	}
	path, err := store.ArchivePlan(second, "v2.json")
	if err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(store.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files, want 1", len(entries))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		SourceFile string                 `json:"source_file"`
		Workouts   []plan.CompiledWorkout `json:"workouts"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.SourceFile != "v2.json" || len(got.Workouts) != 2 {
		t.Errorf("archive not replaced: source=%q workouts=%d", got.SourceFile, len(got.Workouts))
	}
}
