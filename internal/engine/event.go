package engine

import (
	"sort"
	"time"
)

// CalendarType classifies how a calendar's events count for analysis.
type CalendarType string

const (
	// CalendarActive events occupy time and count toward category totals.
	CalendarActive CalendarType = "active"
	// CalendarBlocking events occupy time but do not count toward categories.
	CalendarBlocking CalendarType = "blocking"
	// CalendarAvailability events are informational (e.g. published free/busy).
	CalendarAvailability CalendarType = "availability"
	// CalendarReference events are informational (e.g. holidays, birthdays).
	CalendarReference CalendarType = "reference"
)

// Valid reports whether t is one of the four known calendar types.
func (t CalendarType) Valid() bool {
	switch t {
	case CalendarActive, CalendarBlocking, CalendarAvailability, CalendarReference:
		return true
	}
	return false
}

// Busy reports whether events of this type occupy time for conflict and
// gap analysis.
func (t CalendarType) Busy() bool {
	return t == CalendarActive || t == CalendarBlocking
}

// Event is one calendar event, already merged and time-normalized by the
// caller. Events are immutable within one engine invocation.
type Event struct {
	Interval
	ID                string       `json:"id"`
	AccountID         string       `json:"account_id"`
	CalendarID        string       `json:"calendar_id"`
	CalendarType      CalendarType `json:"calendar_type"`
	Summary           string       `json:"summary"`
	Description       string       `json:"description,omitempty"`
	Category          string       `json:"category,omitempty"` // empty = unlabeled
	RecurringParentID string       `json:"recurring_parent_id,omitempty"`
}

// SeriesID returns the logical series identifier for the event: the explicit
// recurring parent when the provider supplied one, otherwise the ID with any
// occurrence suffix stripped.
func (e Event) SeriesID() string {
	if e.RecurringParentID != "" {
		return e.RecurringParentID
	}
	return SeriesIDOf(e.ID)
}

// busyEvents filters to active/blocking events and returns them sorted by
// start time, then end time, preserving input order for full ties. The input
// slice is not modified.
func busyEvents(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.CalendarType.Busy() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].End.Before(out[j].End)
	})
	return out
}

// ScheduledMinutesByCategory sums the minutes of active events per category
// within the given range. Only the portion of an event inside the range is
// counted. Unlabeled events are ignored.
func ScheduledMinutesByCategory(events []Event, within Interval) map[string]int {
	totals := make(map[string]int)
	for _, e := range events {
		if e.CalendarType != CalendarActive || e.Category == "" {
			continue
		}
		if clipped, ok := e.ClipTo(within); ok {
			totals[e.Category] += clipped.Minutes()
		}
	}
	return totals
}

// ValidateEvents checks every event's interval and type, returning the first
// error found. Events reach the analyses only after passing this.
func ValidateEvents(events []Event) error {
	for _, e := range events {
		if _, err := NewInterval(e.Start, e.End); err != nil {
			return err
		}
		if !e.CalendarType.Valid() {
			return &ConfigError{Field: "events", Reason: "unknown calendar type " + string(e.CalendarType) + " on event " + e.ID}
		}
	}
	return nil
}

// dayWindow builds the active-hours interval for one calendar day.
func dayWindow(day time.Time, start, end DayMinute) Interval {
	y, m, d := day.Date()
	loc := day.Location()
	return Interval{
		Start: time.Date(y, m, d, start.Hour, start.Minute, 0, 0, loc),
		End:   time.Date(y, m, d, end.Hour, end.Minute, 0, 0, loc),
	}
}
