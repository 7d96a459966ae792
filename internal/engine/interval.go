// Package engine implements the temporal interval core: conflict grouping,
// gap computation, goal allocation, and coverage evaluation. Every function
// in this package is pure — the engine performs no I/O, holds no state
// between calls, and returns proposals for the caller to execute or reject.
package engine

import (
	"fmt"
	"regexp"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// InvalidIntervalError reports an interval whose bounds cannot form a
// half-open range (start >= end, or a zero timestamp).
type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: start %s must precede end %s", e.Start, e.End)
}

// NewInterval constructs a validated half-open interval.
// Zero-length and inverted ranges are rejected.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return Interval{}, &InvalidIntervalError{Start: start, End: end}
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the interval's length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Minutes returns the interval's length in whole minutes.
func (iv Interval) Minutes() int {
	return int(iv.Duration() / time.Minute)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints (a.End == b.Start) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Intersect returns the overlapping portion of two intervals.
// The second return value is false when they do not overlap.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	if !iv.Overlaps(other) {
		return Interval{}, false
	}
	out := iv
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out, true
}

// ClipTo bounds the interval to the given window. The second return value is
// false when the interval lies entirely outside the window.
func (iv Interval) ClipTo(window Interval) (Interval, bool) {
	return iv.Intersect(window)
}

// Expand widens the interval by the given durations on each side.
func (iv Interval) Expand(before, after time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-before), End: iv.End.Add(after)}
}

// instanceSuffix matches the occurrence suffix a provider appends to a
// recurring instance ID: an underscore followed by a basic-format timestamp
// (20240115T093000Z) or, for all-day instances, a bare date (20240115).
var instanceSuffix = regexp.MustCompile(`_\d{8}(T\d{6}Z?)?$`)

// SeriesIDOf derives the recurring-series (parent) identifier from an
// instance identifier. Non-instance IDs are returned unchanged, so the
// function is safe to apply to every event ID.
func SeriesIDOf(id string) string {
	if loc := instanceSuffix.FindStringIndex(id); loc != nil {
		return id[:loc[0]]
	}
	return id
}
