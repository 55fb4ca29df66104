package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Intervals IntervalsConfig `yaml:"intervals"`
	Strava    StravaConfig    `yaml:"strava"`
	Timezone  string          `yaml:"timezone"`
	PlansDir  string          `yaml:"plans_dir"`
	OutDir    string          `yaml:"out_dir"`
	StateDir  string          `yaml:"state_dir"`
}

type IntervalsConfig struct {
	APIKey    string `yaml:"api_key"`
	AthleteID int    `yaml:"athlete_id"`
}

type StravaConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error: the tool can run entirely from
// environment variables. Env vars use the prefix STRIDESYNC_:
//
//	STRIDESYNC_INTERVALS_API_KEY, STRIDESYNC_INTERVALS_ATHLETE_ID,
//	STRIDESYNC_STRAVA_CLIENT_ID, STRIDESYNC_STRAVA_CLIENT_SECRET,
//	STRIDESYNC_TIMEZONE, STRIDESYNC_PLANS_DIR, STRIDESYNC_OUT_DIR,
//	STRIDESYNC_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// env-only configuration
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STRIDESYNC_INTERVALS_API_KEY"); v != "" {
		cfg.Intervals.APIKey = v
	}
	if v := os.Getenv("STRIDESYNC_INTERVALS_ATHLETE_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Intervals.AthleteID = id
		}
	}
	if v := os.Getenv("STRIDESYNC_STRAVA_CLIENT_ID"); v != "" {
		cfg.Strava.ClientID = v
	}
	if v := os.Getenv("STRIDESYNC_STRAVA_CLIENT_SECRET"); v != "" {
		cfg.Strava.ClientSecret = v
	}
	if v := os.Getenv("STRIDESYNC_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("STRIDESYNC_PLANS_DIR"); v != "" {
		cfg.PlansDir = v
	}
	if v := os.Getenv("STRIDESYNC_OUT_DIR"); v != "" {
		cfg.OutDir = v
	}
	if v := os.Getenv("STRIDESYNC_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = "Australia/Melbourne"
	}
	if cfg.PlansDir == "" {
		cfg.PlansDir = "./plans"
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "./out"
	}
	if cfg.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.StateDir = filepath.Join(home, ".stridesync")
		} else {
			cfg.StateDir = "./.stridesync"
		}
	}
}

// ValidateForPush checks the fields the push command needs.
func (c *Config) ValidateForPush() error {
	if c.Intervals.APIKey == "" {
		return fmt.Errorf("intervals.api_key is required (or STRIDESYNC_INTERVALS_API_KEY)")
	}
	return nil
}

// ValidateForStravaExport checks the fields a Strava export needs.
func (c *Config) ValidateForStravaExport() error {
	if c.Strava.ClientID == "" {
		return fmt.Errorf("strava.client_id is required (or STRIDESYNC_STRAVA_CLIENT_ID)")
	}
	if c.Strava.ClientSecret == "" {
		return fmt.Errorf("strava.client_secret is required (or STRIDESYNC_STRAVA_CLIENT_SECRET)")
	}
	return nil
}

// ValidateForIntervalsExport checks the fields an Intervals.icu export needs.
func (c *Config) ValidateForIntervalsExport() error {
	if c.Intervals.APIKey == "" {
		return fmt.Errorf("intervals.api_key is required (or STRIDESYNC_INTERVALS_API_KEY)")
	}
	return nil
}
