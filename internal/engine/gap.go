package engine

import "sort"

// Gap is unscheduled time inside an active window, at or above the
// configured minimum duration.
type Gap struct {
	Interval
	DurationMinutes int `json:"duration_minutes"`
}

// GapResult pairs the free gaps of one window with the merged busy runs
// they were derived from. Runs and gaps together tile the window exactly.
type GapResult struct {
	Window Interval   `json:"window"`
	Busy   []Interval `json:"busy"`
	Gaps   []Gap      `json:"gaps"`
}

// FindGaps computes the free time inside one bounded window given the full
// event set: busy intervals intersecting the window are merged into runs,
// clipped to the window, and the complement segments at or above
// minGapMinutes are returned. Events fully outside the window contribute
// nothing; events straddling a boundary are clipped, not discarded.
func FindGaps(window Interval, events []Event, minGapMinutes int) GapResult {
	result := GapResult{Window: window}
	if minGapMinutes <= 0 {
		minGapMinutes = DefaultMinGapMinutes
	}

	result.Busy = mergeBusy(window, events)

	cursor := window.Start
	appendGap := func(iv Interval) {
		if iv.Minutes() >= minGapMinutes {
			result.Gaps = append(result.Gaps, Gap{Interval: iv, DurationMinutes: iv.Minutes()})
		}
	}
	for _, run := range result.Busy {
		if cursor.Before(run.Start) {
			appendGap(Interval{Start: cursor, End: run.Start})
		}
		cursor = run.End
	}
	if cursor.Before(window.End) {
		appendGap(Interval{Start: cursor, End: window.End})
	}

	return result
}

// mergeBusy clips busy intervals to the window and coalesces overlapping or
// adjacent ones into sorted runs.
func mergeBusy(window Interval, events []Event) []Interval {
	var clipped []Interval
	for _, e := range busyEvents(events) {
		if iv, ok := e.ClipTo(window); ok {
			clipped = append(clipped, iv)
		}
	}
	if len(clipped) == 0 {
		return nil
	}
	sort.Slice(clipped, func(i, j int) bool {
		if !clipped[i].Start.Equal(clipped[j].Start) {
			return clipped[i].Start.Before(clipped[j].Start)
		}
		return clipped[i].End.Before(clipped[j].End)
	})

	runs := []Interval{clipped[0]}
	for _, iv := range clipped[1:] {
		last := &runs[len(runs)-1]
		// Adjacent runs coalesce as well as overlapping ones.
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		runs = append(runs, iv)
	}
	return runs
}
