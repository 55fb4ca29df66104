package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/stridesync/internal/archive"
	"github.com/claude/stridesync/internal/config"
	"github.com/claude/stridesync/internal/export"
	"github.com/claude/stridesync/internal/intervals"
	"github.com/claude/stridesync/internal/plan"
	"github.com/claude/stridesync/internal/strava"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "push":
		os.Exit(runPush(os.Args[2:]))
	case "export":
		os.Exit(runExport(os.Args[2:]))
	case "auth":
		os.Exit(runAuth(os.Args[2:]))
	case "version", "-version", "--version":
		fmt.Println("stridesync", Version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: stridesync <command> [flags]

Commands:
  push     compile a planned-workout JSON file and upload it to Intervals.icu
  export   export a week of completed activities to a weekly JSON document
  auth     run the interactive Strava OAuth flow
  version  print version
`)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func runPush(args []string) int {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	configPath := fs.String("config", "stridesync.yaml", "path to config file")
	planned := fs.String("planned", "", "path to planned workouts JSON (required)")
	from := fs.String("from", "", "YYYY-MM-DD start filter (inclusive)")
	to := fs.String("to", "", "YYYY-MM-DD end filter (inclusive)")
	validateOnly := fs.Bool("validate-only", false, "validate and render without writing or uploading")
	archiveOnly := fs.Bool("archive-only", false, "archive the compiled plan without uploading")
	adhoc := fs.Bool("adhoc", false, "upload without archiving (partial-week pushes)")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Parse(args)

	log := newLogger(*debug)

	if *planned == "" {
		fmt.Fprintln(os.Stderr, "Error: -planned is required")
		fs.PrintDefaults()
		return 1
	}

	mode, err := selectMode(*validateOnly, *archiveOnly, *adhoc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(*planned)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", *planned, err)
		return 1
	}

	ctl := &plan.Controller{
		Archiver: archive.NewStore(cfg.PlansDir),
		Out:      os.Stdout,
		Log:      log,
	}
	if mode == plan.ModeUpload || mode == plan.ModeUploadAdhoc {
		if err := cfg.ValidateForPush(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		client := intervals.NewClient(cfg.Intervals.APIKey, cfg.Intervals.AthleteID)
		ctl.Uploader = &intervals.EventUploader{Client: client}
	}

	res, err := ctl.Run(context.Background(), data, mode, plan.Options{
		From:       *from,
		To:         *to,
		SourceFile: *planned,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printOutcomes(res, mode)
	return res.ExitStatus
}

func selectMode(validateOnly, archiveOnly, adhoc bool) (plan.Mode, error) {
	set := 0
	for _, b := range []bool{validateOnly, archiveOnly, adhoc} {
		if b {
			set++
		}
	}
	if set > 1 {
		return 0, fmt.Errorf("-validate-only, -archive-only and -adhoc are mutually exclusive")
	}
	switch {
	case validateOnly:
		return plan.ModeValidate, nil
	case archiveOnly:
		return plan.ModeArchive, nil
	case adhoc:
		return plan.ModeUploadAdhoc, nil
	default:
		return plan.ModeUpload, nil
	}
}

func printOutcomes(res *plan.Result, mode plan.Mode) {
	var uploaded, skipped, failed int
	for _, o := range res.Outcomes {
		switch {
		case o.Err != nil:
			failed++
			fmt.Fprintf(os.Stderr, "failed: %s %s: %v\n", o.Date, o.Name, o.Err)
		case o.Uploaded:
			uploaded++
		default:
			skipped++
		}
	}
	if res.ArchivePath != "" {
		fmt.Printf("Archived plan to %s\n", res.ArchivePath)
	}
	switch mode {
	case plan.ModeValidate:
		fmt.Printf("Validation complete. Workouts: %d\n", len(res.Compiled))
	case plan.ModeArchive:
		fmt.Printf("Archive complete. Workouts: %d\n", len(res.Compiled))
	default:
		fmt.Printf("Uploaded %d workouts. Skipped: %d, failed: %d\n", uploaded, skipped, failed)
	}
}

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "stridesync.yaml", "path to config file")
	weekStart := fs.String("week-start", "", "YYYY-MM-DD")
	weekEnd := fs.String("week-end", "", "YYYY-MM-DD")
	thisWeek := fs.Bool("this-week", false, "use Monday..Sunday of this week")
	lastWeek := fs.Bool("last-week", false, "use Monday..Sunday of last week")
	fromIntervals := fs.Bool("intervals", false, "export from Intervals.icu instead of Strava")
	includePrivate := fs.Bool("include-private", true, "include private activities")
	includeCommute := fs.Bool("include-commute", true, "include commute activities")
	dryRun := fs.Bool("dry-run", false, "print the first mapped activity instead of writing")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Parse(args)

	log := newLogger(*debug)
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("invalid timezone, using local time", "timezone", cfg.Timezone)
		loc = time.Local
	}

	start, end, err := resolveWeek(*thisWeek, *lastWeek, *weekStart, *weekEnd, time.Now().In(loc))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var payload *export.Payload
	var skipped map[string]int
	if *fromIntervals {
		payload, skipped, err = exportFromIntervals(ctx, cfg, start, end)
	} else {
		payload, skipped, err = exportFromStrava(ctx, cfg, log, start, end, export.StravaOptions{
			IncludePrivate: *includePrivate,
			IncludeCommute: *includeCommute,
		}, loc)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *dryRun {
		printSample(payload)
		fmt.Println(payload.Summary(skipped))
		return 0
	}

	outPath, err := export.WritePayload(payload, cfg.OutDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s\n", outPath)
	fmt.Println(payload.Summary(skipped))
	return 0
}

func exportFromIntervals(ctx context.Context, cfg *config.Config, start, end string) (*export.Payload, map[string]int, error) {
	if err := cfg.ValidateForIntervalsExport(); err != nil {
		return nil, nil, err
	}
	client := intervals.NewClient(cfg.Intervals.APIKey, cfg.Intervals.AthleteID)
	activities, err := client.ListActivities(ctx, start, end)
	if err != nil {
		return nil, nil, err
	}
	payload, skipped := export.FromIntervals(activities, start, end)
	return payload, skipped, nil
}

func exportFromStrava(ctx context.Context, cfg *config.Config, log *slog.Logger, start, end string, opts export.StravaOptions, loc *time.Location) (*export.Payload, map[string]int, error) {
	if err := cfg.ValidateForStravaExport(); err != nil {
		return nil, nil, err
	}

	store, err := strava.OpenStateDB(cfg.StateDir)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	auth := strava.NewAuthenticator(strava.Env{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
	}, store, log)
	tokens, err := auth.EnsureValidTokens(ctx)
	if err != nil {
		return nil, nil, err
	}

	after, before, err := weekBounds(start, end, loc)
	if err != nil {
		return nil, nil, err
	}

	client := strava.NewClient(tokens.AccessToken)
	activities, err := client.ListActivities(ctx, after, before)
	if err != nil {
		return nil, nil, err
	}
	gear := &strava.CachedGear{Client: client, Store: store}
	return export.FromStrava(ctx, activities, client, gear, start, end, opts)
}

func runAuth(args []string) int {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	configPath := fs.String("config", "stridesync.yaml", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Parse(args)

	log := newLogger(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.ValidateForStravaExport(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	store, err := strava.OpenStateDB(cfg.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	auth := strava.NewAuthenticator(strava.Env{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
	}, store, log)
	if _, err := auth.RunInteractive(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println("Auth completed and tokens saved.")
	return 0
}

// resolveWeek picks the export window: an explicit start/end pair, or the
// Monday..Sunday range of this or last week.
func resolveWeek(thisWeek, lastWeek bool, weekStart, weekEnd string, now time.Time) (string, string, error) {
	if thisWeek && lastWeek {
		return "", "", fmt.Errorf("use only one of -this-week or -last-week")
	}
	if thisWeek || lastWeek {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		offset := (int(today.Weekday()) + 6) % 7 // Monday = 0
		start := today.AddDate(0, 0, -offset)
		if lastWeek {
			start = start.AddDate(0, 0, -7)
		}
		end := start.AddDate(0, 0, 6)
		return start.Format("2006-01-02"), end.Format("2006-01-02"), nil
	}
	if weekStart == "" || weekEnd == "" {
		return "", "", fmt.Errorf("provide -week-start and -week-end, or use -this-week/-last-week")
	}
	for _, d := range []string{weekStart, weekEnd} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return "", "", fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
	}
	return weekStart, weekEnd, nil
}

// weekBounds converts a date range into epoch bounds covering the whole
// local days.
func weekBounds(start, end string, loc *time.Location) (int64, int64, error) {
	startDay, err := time.ParseInLocation("2006-01-02", start, loc)
	if err != nil {
		return 0, 0, err
	}
	endDay, err := time.ParseInLocation("2006-01-02", end, loc)
	if err != nil {
		return 0, 0, err
	}
	return startDay.Unix(), endDay.AddDate(0, 0, 1).Unix() - 1, nil
}

func printSample(p *export.Payload) {
	var sample any
	switch {
	case len(p.Runs) > 0:
		sample = p.Runs[0]
	case len(p.Rides) > 0:
		sample = p.Rides[0]
	default:
		fmt.Println("No activities to sample.")
		return
	}
	out, _ := json.MarshalIndent(sample, "", "  ")
	fmt.Println(string(out))
}
