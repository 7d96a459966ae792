// Package config provides the YAML-based application configuration:
// listen address, analysis window policy, account priority, and the
// patterns that mark events as movable. Feeds, goals, and coverage rules
// live in the database; this file covers everything that rarely changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/weekwise/backend/internal/engine"
)

// HoursConfig is an active-hours window expressed as "HH:MM" strings.
type HoursConfig struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// RangeConfig maps a time-of-day name onto clock hours.
type RangeConfig struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir holds the SQLite database.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Timezone is the IANA timezone analysis windows are built in
	// (e.g. "America/New_York"). Empty means the system local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// HorizonDays is how far ahead each analysis looks. Default 7.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// AnalysisCron schedules the periodic full analysis
	// (e.g. "0 */30 * * * *" with seconds field). Empty disables it.
	AnalysisCron string `yaml:"analysis_cron" json:"analysis_cron"`

	// AccountPriority orders accounts for conflict tie-breaking.
	AccountPriority []string `yaml:"account_priority" json:"account_priority"`

	// ActiveHours keys are lowercase weekday names ("monday"). A weekday
	// with no entry is excluded from gap analysis.
	ActiveHours map[string]HoursConfig `yaml:"active_hours" json:"active_hours"`

	// MinGapMinutes discards free segments shorter than this.
	MinGapMinutes int `yaml:"min_gap_minutes" json:"min_gap_minutes"`

	// TimeOfDayRanges overrides the built-in morning/afternoon/evening
	// hour ranges.
	TimeOfDayRanges map[string]RangeConfig `yaml:"time_of_day_ranges" json:"time_of_day_ranges"`

	// MovablePatterns are regexps over event titles marking events that
	// may be relocated to make room for goals.
	MovablePatterns []string `yaml:"movable_patterns" json:"movable_patterns"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	weekday := HoursConfig{Start: "06:00", End: "22:00"}
	return &Config{
		Listen:        ":8099",
		DataDir:       "./data",
		HorizonDays:   7,
		AnalysisCron:  "0 */30 * * * *",
		MinGapMinutes: 30,
		ActiveHours: map[string]HoursConfig{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
		},
	}
}

// Load reads the config file at path, creating it with defaults when it
// does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML with owner-only permissions.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func (c *Config) validate() error {
	if c.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive")
	}
	for name := range c.ActiveHours {
		if _, ok := weekdayNames[strings.ToLower(name)]; !ok {
			return fmt.Errorf("active_hours: unknown weekday %q", name)
		}
	}
	for name, hours := range c.ActiveHours {
		if _, err := parseDayMinute(hours.Start); err != nil {
			return fmt.Errorf("active_hours.%s.start: %w", name, err)
		}
		if _, err := parseDayMinute(hours.End); err != nil {
			return fmt.Errorf("active_hours.%s.end: %w", name, err)
		}
	}
	return nil
}

// EngineConfig converts the file config into the engine's shape. Goals and
// rules are filled in by the planner from storage.
func (c *Config) EngineConfig() (engine.Config, error) {
	out := engine.Config{
		MinGapMinutes:   c.MinGapMinutes,
		AccountPriority: c.AccountPriority,
		MovablePatterns: c.MovablePatterns,
		ActiveHours:     make(map[time.Weekday]engine.ActiveHours, len(c.ActiveHours)),
	}

	for name, hours := range c.ActiveHours {
		day := weekdayNames[strings.ToLower(name)]
		start, err := parseDayMinute(hours.Start)
		if err != nil {
			return out, fmt.Errorf("active_hours.%s: %w", name, err)
		}
		end, err := parseDayMinute(hours.End)
		if err != nil {
			return out, fmt.Errorf("active_hours.%s: %w", name, err)
		}
		out.ActiveHours[day] = engine.ActiveHours{Start: start, End: end}
	}

	if len(c.TimeOfDayRanges) > 0 {
		out.TimeOfDayRanges = make(map[engine.TimeOfDay]engine.HourRange, len(c.TimeOfDayRanges))
		for name, r := range c.TimeOfDayRanges {
			start, err := parseDayMinute(r.Start)
			if err != nil {
				return out, fmt.Errorf("time_of_day_ranges.%s: %w", name, err)
			}
			end, err := parseDayMinute(r.End)
			if err != nil {
				return out, fmt.Errorf("time_of_day_ranges.%s: %w", name, err)
			}
			out.TimeOfDayRanges[engine.TimeOfDay(name)] = engine.HourRange{Start: start, End: end}
		}
	}

	return out, nil
}

// parseDayMinute parses "HH:MM" into an engine.DayMinute.
func parseDayMinute(v string) (engine.DayMinute, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
		return engine.DayMinute{}, fmt.Errorf("bad time %q (want HH:MM)", v)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return engine.DayMinute{}, fmt.Errorf("time %q out of range", v)
	}
	return engine.DayMinute{Hour: h, Minute: m}, nil
}
