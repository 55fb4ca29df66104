package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadFile verifies a full YAML file parses into the expected fields.
func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
intervals:
  api_key: key-from-file
  athlete_id: 12345
strava:
  client_id: "98765"
  client_secret: shh
timezone: Europe/Berlin
plans_dir: /data/plans
out_dir: /data/out
state_dir: /data/state
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Intervals.APIKey != "key-from-file" || cfg.Intervals.AthleteID != 12345 {
		t.Errorf("intervals = %+v", cfg.Intervals)
	}
	if cfg.Strava.ClientID != "98765" || cfg.Strava.ClientSecret != "shh" {
		t.Errorf("strava = %+v", cfg.Strava)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", cfg.Timezone)
	}
	if cfg.PlansDir != "/data/plans" || cfg.OutDir != "/data/out" || cfg.StateDir != "/data/state" {
		t.Errorf("dirs = %q %q %q", cfg.PlansDir, cfg.OutDir, cfg.StateDir)
	}
}

// TestLoadEnvOverrides verifies environment variables win over file values.
func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
intervals:
  api_key: key-from-file
  athlete_id: 1
timezone: Europe/Berlin
`)
	t.Setenv("STRIDESYNC_INTERVALS_API_KEY", "key-from-env")
	t.Setenv("STRIDESYNC_INTERVALS_ATHLETE_ID", "777")
	t.Setenv("STRIDESYNC_TIMEZONE", "UTC")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Intervals.APIKey != "key-from-env" {
		t.Errorf("api key = %q, want env value", cfg.Intervals.APIKey)
	}
	if cfg.Intervals.AthleteID != 777 {
		t.Errorf("athlete id = %d, want 777", cfg.Intervals.AthleteID)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", cfg.Timezone)
	}
}

// TestLoadMissingFile verifies the tool can run from environment variables
// alone when no config file exists.
func TestLoadMissingFile(t *testing.T) {
	t.Setenv("STRIDESYNC_INTERVALS_API_KEY", "env-only")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Intervals.APIKey != "env-only" {
		t.Errorf("api key = %q, want env-only", cfg.Intervals.APIKey)
	}
}

// TestLoadDefaults verifies the fallback values for an empty configuration.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timezone != "Australia/Melbourne" {
		t.Errorf("timezone = %q", cfg.Timezone)
	}
	if cfg.PlansDir != "./plans" || cfg.OutDir != "./out" {
		t.Errorf("dirs = %q %q", cfg.PlansDir, cfg.OutDir)
	}
	if cfg.StateDir == "" {
		t.Error("state dir should have a default")
	}
}

// TestLoadBadYAML verifies a malformed file is a hard error, not silently
// ignored like a missing one.
func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "intervals: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

// TestValidate verifies each command's required-field checks.
func TestValidate(t *testing.T) {
	empty := &Config{}
	if err := empty.ValidateForPush(); err == nil {
		t.Error("push validation should require an API key")
	}
	if err := empty.ValidateForStravaExport(); err == nil {
		t.Error("strava export validation should require client credentials")
	}
	if err := empty.ValidateForIntervalsExport(); err == nil {
		t.Error("intervals export validation should require an API key")
	}

	full := &Config{
		Intervals: IntervalsConfig{APIKey: "k", AthleteID: 1},
		Strava:    StravaConfig{ClientID: "id", ClientSecret: "secret"},
	}
	if err := full.ValidateForPush(); err != nil {
		t.Errorf("push validation: %v", err)
	}
	if err := full.ValidateForStravaExport(); err != nil {
		t.Errorf("strava export validation: %v", err)
	}
	if err := full.ValidateForIntervalsExport(); err != nil {
		t.Errorf("intervals export validation: %v", err)
	}
}
