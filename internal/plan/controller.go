package plan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Mode selects what happens to the compiled set. Every mode runs the full
// compile pipeline first; they differ only in the final fan-out.
type Mode int

const (
	// ModeValidate renders the compiled set to the console. No disk, no network.
	ModeValidate Mode = iota
	// ModeArchive writes the full compiled set to the plan archive. No network.
	ModeArchive
	// ModeUpload archives, then uploads each eligible workout sequentially.
	ModeUpload
	// ModeUploadAdhoc uploads without archiving, for partial or single-workout
	// pushes that must not overwrite the full-week archive.
	ModeUploadAdhoc
)

func (m Mode) String() string {
	switch m {
	case ModeValidate:
		return "validate"
	case ModeArchive:
		return "archive"
	case ModeUpload:
		return "upload"
	case ModeUploadAdhoc:
		return "upload-adhoc"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// actions is the fixed side-effect set for a mode. The ad-hoc action set
// simply has no archive action, so "ad-hoc never archives" holds by
// construction rather than by a flag check in the upload path.
type actions struct {
	render  bool
	archive bool
	upload  bool
}

func modeActions(m Mode) actions {
	switch m {
	case ModeValidate:
		return actions{render: true}
	case ModeArchive:
		return actions{archive: true}
	case ModeUpload:
		return actions{archive: true, upload: true}
	case ModeUploadAdhoc:
		return actions{upload: true}
	default:
		return actions{}
	}
}

// Uploader pushes one compiled workout to the calendar service. The call is
// expected to retry transient failures internally and return a typed error
// once retries are exhausted.
type Uploader interface {
	UploadWorkout(ctx context.Context, w CompiledWorkout) error
}

// Archiver persists the full compiled set under a date-derived key and
// returns the archive location.
type Archiver interface {
	ArchivePlan(workouts []CompiledWorkout, sourceFile string) (string, error)
}

// Options carries per-invocation settings that are not part of the mode.
type Options struct {
	// From and To (YYYY-MM-DD, inclusive) drop workouts outside the range
	// after validation. Empty means unbounded.
	From string
	To   string
	// SourceFile is recorded in the archive for provenance.
	SourceFile string
}

// Outcome is the per-workout result of the fan-out step.
type Outcome struct {
	ExternalID string
	Name       string
	Date       string
	Uploaded   bool
	Skipped    bool // not upload-eligible, or mode does not upload
	Err        error
}

// Result is what the CLI layer renders and exits on.
type Result struct {
	Compiled    []CompiledWorkout
	Outcomes    []Outcome
	ArchivePath string
	// ExitStatus is 0 on full success and 2 when one or more uploads failed.
	ExitStatus int
}

// Controller runs the compile pipeline and fans out per mode.
type Controller struct {
	Uploader Uploader
	Archiver Archiver
	Out      io.Writer
	// Log falls back to slog.Default when nil.
	Log *slog.Logger
}

// Run compiles the document and executes the selected mode's action set.
// Validation and archive failures return an error with nothing uploaded;
// upload failures are recorded per workout and never block later workouts.
func (c *Controller) Run(ctx context.Context, data []byte, mode Mode, opts Options) (*Result, error) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	compiled, err := Compile(data)
	if err != nil {
		return nil, err
	}
	compiled = filterByDate(compiled, opts.From, opts.To)

	res := &Result{Compiled: compiled}
	if len(compiled) == 0 {
		log.Warn("no workouts selected", "mode", mode.String())
	}

	act := modeActions(mode)

	if act.render {
		WriteReport(c.Out, compiled)
	}

	if act.archive && len(compiled) > 0 {
		path, err := c.Archiver.ArchivePlan(compiled, opts.SourceFile)
		if err != nil {
			// Archive before upload: a failed archive aborts with nothing
			// sent, never leaving uploaded-but-unarchived state.
			return nil, fmt.Errorf("archiving plan: %w", err)
		}
		res.ArchivePath = path
		log.Info("archived plan", "path", path, "workouts", len(compiled))
	}

	for _, w := range compiled {
		out := Outcome{ExternalID: w.ExternalID, Name: w.Name, Date: w.Date}
		switch {
		case !act.upload, !w.UploadEligible:
			out.Skipped = true
		default:
			if err := c.Uploader.UploadWorkout(ctx, w); err != nil {
				out.Err = err
				res.ExitStatus = 2
				log.Error("upload failed", "external_id", w.ExternalID, "error", err)
			} else {
				out.Uploaded = true
				log.Info("uploaded workout", "external_id", w.ExternalID, "start", w.StartDateLocal)
			}
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	return res, nil
}

func filterByDate(compiled []CompiledWorkout, from, to string) []CompiledWorkout {
	if from == "" && to == "" {
		return compiled
	}
	kept := make([]CompiledWorkout, 0, len(compiled))
	for _, w := range compiled {
		if from != "" && w.Date < from {
			continue
		}
		if to != "" && w.Date > to {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}
