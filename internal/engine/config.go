package engine

import (
	"fmt"
	"regexp"
	"time"
)

// ConfigError reports a malformed goal, rule, or window definition. It is
// raised during validation, before any analysis runs, so a misconfigured
// invocation fails whole rather than silently skipping the bad entry.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Reason)
}

// DayMinute is a clock position within a day.
type DayMinute struct {
	Hour   int `json:"hour" yaml:"hour"`
	Minute int `json:"minute" yaml:"minute"`
}

func (d DayMinute) valid() bool {
	return d.Hour >= 0 && d.Hour <= 24 && d.Minute >= 0 && d.Minute < 60
}

func (d DayMinute) minuteOfDay() int {
	return d.Hour*60 + d.Minute
}

// ActiveHours bounds the analyzed part of one weekday.
type ActiveHours struct {
	Start DayMinute `json:"start" yaml:"start"`
	End   DayMinute `json:"end" yaml:"end"`
}

// TimeOfDay names a preferred part of the day for goal sessions.
type TimeOfDay string

const (
	TimeOfDayNone      TimeOfDay = "none"
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

// HourRange maps a TimeOfDay name onto concrete clock hours.
type HourRange struct {
	Start DayMinute `json:"start" yaml:"start"`
	End   DayMinute `json:"end" yaml:"end"`
}

// Goal is a weekly time target to be packed into free gaps.
type Goal struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TargetMinutes int       `json:"target_minutes"`
	MinMinutes    int       `json:"min_minutes,omitempty"` // 0 = no lower bound
	MaxMinutes    int       `json:"max_minutes,omitempty"` // 0 = no upper bound
	Preferred     TimeOfDay `json:"preferred"`
	Priority      int       `json:"priority"` // lower = more important
	Category      string    `json:"category"` // matches Event.Category
}

// CoverageRule maps a trigger event to a required, separately scheduled
// coverage window (e.g. a babysitter for a date night).
type CoverageRule struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	SourceCalendars    []string `json:"source_calendars"`
	Pattern            string   `json:"pattern"` // regexp over title and description
	BeforeMinutes      int      `json:"before_minutes"`
	AfterMinutes       int      `json:"after_minutes"`
	CoverageCalendars  []string `json:"coverage_calendars"`
	MinOverlapFraction float64  `json:"min_overlap_fraction"`
	CreateAccountID    string   `json:"create_account_id"`
	CreateCalendarID   string   `json:"create_calendar_id"`
	OptOutMarkers      []string `json:"opt_out_markers,omitempty"`
}

// Config carries everything one Analyze call needs besides the events.
// All values are plain data; the engine never reads process-wide state.
type Config struct {
	// ActiveHours keys are time.Weekday values. A weekday with no entry is
	// excluded from gap analysis entirely.
	ActiveHours map[time.Weekday]ActiveHours `json:"active_hours"`

	// MinGapMinutes discards complement segments shorter than this. Zero
	// means the default of 30.
	MinGapMinutes int `json:"min_gap_minutes"`

	// TimeOfDayRanges resolves goal preferences to clock hours. Missing
	// entries fall back to built-in defaults.
	TimeOfDayRanges map[TimeOfDay]HourRange `json:"time_of_day_ranges,omitempty"`

	// AccountPriority orders accounts for conflict tie-breaking; earlier
	// entries win. Accounts not listed rank after all listed ones.
	AccountPriority []string `json:"account_priority,omitempty"`

	// MovablePatterns are regexps over event titles; matching events may be
	// relocated to make room for goals when the caller asks for it.
	MovablePatterns []string `json:"movable_patterns,omitempty"`

	Goals []Goal         `json:"goals,omitempty"`
	Rules []CoverageRule `json:"rules,omitempty"`
}

// DefaultMinGapMinutes is used when Config.MinGapMinutes is zero.
const DefaultMinGapMinutes = 30

var defaultTimeOfDayRanges = map[TimeOfDay]HourRange{
	TimeOfDayMorning:   {Start: DayMinute{Hour: 6}, End: DayMinute{Hour: 12}},
	TimeOfDayAfternoon: {Start: DayMinute{Hour: 12}, End: DayMinute{Hour: 18}},
	TimeOfDayEvening:   {Start: DayMinute{Hour: 18}, End: DayMinute{Hour: 22}},
}

// hourRangeFor resolves a goal preference to clock hours, consulting the
// caller's mapping first and the defaults second.
func (c *Config) hourRangeFor(tod TimeOfDay) (HourRange, bool) {
	if tod == TimeOfDayNone || tod == "" {
		return HourRange{}, false
	}
	if r, ok := c.TimeOfDayRanges[tod]; ok {
		return r, true
	}
	r, ok := defaultTimeOfDayRanges[tod]
	return r, ok
}

// accountRank returns the tie-break rank for an account; listed accounts
// rank by position, unlisted ones after all listed.
func (c *Config) accountRank(accountID string) int {
	for i, id := range c.AccountPriority {
		if id == accountID {
			return i
		}
	}
	return len(c.AccountPriority)
}

// minGapMinutes applies the default.
func (c *Config) minGapMinutes() int {
	if c.MinGapMinutes <= 0 {
		return DefaultMinGapMinutes
	}
	return c.MinGapMinutes
}

// Validate checks the whole configuration. It is called at the top of
// Analyze and may be called directly by API handlers before persisting.
func (c *Config) Validate() error {
	for day, hours := range c.ActiveHours {
		if !hours.Start.valid() || !hours.End.valid() {
			return &ConfigError{Field: "active_hours", Reason: fmt.Sprintf("%s: hours out of range", day)}
		}
		if hours.Start.minuteOfDay() >= hours.End.minuteOfDay() {
			return &ConfigError{Field: "active_hours", Reason: fmt.Sprintf("%s: start must precede end", day)}
		}
	}
	if c.MinGapMinutes < 0 {
		return &ConfigError{Field: "min_gap_minutes", Reason: "must not be negative"}
	}
	for _, p := range c.MovablePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return &ConfigError{Field: "movable_patterns", Reason: fmt.Sprintf("bad pattern %q: %v", p, err)}
		}
	}
	for i := range c.Goals {
		if err := c.Goals[i].Validate(); err != nil {
			return err
		}
	}
	for i := range c.Rules {
		if err := c.Rules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one goal definition.
func (g *Goal) Validate() error {
	field := "goal " + g.ID
	if g.TargetMinutes <= 0 {
		return &ConfigError{Field: field, Reason: "target_minutes must be positive"}
	}
	if g.MinMinutes < 0 || g.MaxMinutes < 0 {
		return &ConfigError{Field: field, Reason: "session bounds must not be negative"}
	}
	if g.MaxMinutes > 0 && g.MinMinutes > g.MaxMinutes {
		return &ConfigError{Field: field, Reason: "min_minutes exceeds max_minutes"}
	}
	if g.Priority < 0 {
		return &ConfigError{Field: field, Reason: "priority must not be negative"}
	}
	switch g.Preferred {
	case "", TimeOfDayNone, TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening:
	default:
		return &ConfigError{Field: field, Reason: "unknown preferred time of day " + string(g.Preferred)}
	}
	return nil
}

// Validate checks one coverage rule definition.
func (r *CoverageRule) Validate() error {
	field := "rule " + r.ID
	if r.Pattern == "" {
		return &ConfigError{Field: field, Reason: "pattern is required"}
	}
	if _, err := regexp.Compile("(?i)" + r.Pattern); err != nil {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("bad pattern: %v", err)}
	}
	if r.BeforeMinutes < 0 || r.AfterMinutes < 0 {
		return &ConfigError{Field: field, Reason: "buffers must not be negative"}
	}
	if r.MinOverlapFraction < 0 || r.MinOverlapFraction > 1 {
		return &ConfigError{Field: field, Reason: "min_overlap_fraction must be within [0,1]"}
	}
	if len(r.CoverageCalendars) == 0 {
		return &ConfigError{Field: field, Reason: "at least one coverage calendar is required"}
	}
	return nil
}
