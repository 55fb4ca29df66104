// Package archive persists compiled weekly plans to disk, one JSON file per
// week keyed by the Monday of the plan's earliest workout date.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/claude/stridesync/internal/plan"
)

// Error wraps an archive I/O failure with the path involved.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plan archive %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store writes plan archives under a single directory.
type Store struct {
	Dir string
	// now is swapped in tests.
	now func() time.Time
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

type archiveFile struct {
	ArchiveID   string                 `json:"archive_id"`
	WeekStart   string                 `json:"week_start"`
	GeneratedAt string                 `json:"generated_at"`
	SourceFile  string                 `json:"source_file"`
	Workouts    []plan.CompiledWorkout `json:"workouts"`
}

// WeekStart returns the Monday of the earliest workout date, the archive key.
func WeekStart(workouts []plan.CompiledWorkout) (string, error) {
	if len(workouts) == 0 {
		return "", fmt.Errorf("no workouts to archive")
	}
	earliest := workouts[0].Date
	for _, w := range workouts[1:] {
		if w.Date < earliest {
			earliest = w.Date
		}
	}
	day, err := time.Parse("2006-01-02", earliest)
	if err != nil {
		return "", fmt.Errorf("bad workout date %q: %w", earliest, err)
	}
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset).Format("2006-01-02"), nil
}

// ArchivePlan writes (and overwrites) the archive unit for the plan's week
// and returns its path. The full compiled set is written, including workouts
// that are not upload-eligible, for record-keeping.
func (s *Store) ArchivePlan(workouts []plan.CompiledWorkout, sourceFile string) (string, error) {
	weekStart, err := WeekStart(workouts)
	if err != nil {
		return "", &Error{Path: s.Dir, Err: err}
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &Error{Path: s.Dir, Err: err}
	}

	payload := archiveFile{
		ArchiveID:   uuid.NewString(),
		WeekStart:   weekStart,
		GeneratedAt: s.now().Truncate(time.Second).Format("2006-01-02T15:04:05"),
		SourceFile:  sourceFile,
		Workouts:    workouts,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", &Error{Path: s.Dir, Err: err}
	}

	outPath := filepath.Join(s.Dir, fmt.Sprintf("plan_%s.json", weekStart))
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return "", &Error{Path: outPath, Err: err}
	}
	return outPath, nil
}
