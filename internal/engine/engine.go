package engine

import "time"

// Input is everything one analysis needs. All fields are value copies; the
// engine never mutates them and holds nothing after Analyze returns.
type Input struct {
	// Events is the flat, already-merged event set from all accounts.
	Events []Event `json:"events"`
	// Range bounds the analysis, typically one week.
	Range Interval `json:"range"`
	// Config supplies windows, goals, rules, and tie-break policy.
	Config Config `json:"config"`
	// RelocatedEventIDs is the caller's choice of movable events to lift
	// out of the busy set before gap computation.
	RelocatedEventIDs []string `json:"relocated_event_ids,omitempty"`
	// KnownLinks are persisted trigger/coverage associations, used for
	// orphan detection.
	KnownLinks []CoverageLink `json:"known_links,omitempty"`
}

// Result carries every proposal from one analysis. Nothing in it mutates
// the calendar; the caller executes accepted proposals via the provider.
type Result struct {
	Groups            []OverlapGroup     `json:"groups"`
	Days              []GapResult        `json:"days"`
	Allocation        *AllocationResult  `json:"allocation"`
	Coverage          []CoverageProposal `json:"coverage"`
	MovableCandidates []string           `json:"movable_candidates,omitempty"`
}

// Analyze runs conflict grouping, gap finding, goal allocation, and
// coverage evaluation over one normalized event set. It is deterministic
// and safe for concurrent use: same input, same output, no shared state.
func Analyze(in Input) (*Result, error) {
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateEvents(in.Events); err != nil {
		return nil, err
	}
	if _, err := NewInterval(in.Range.Start, in.Range.End); err != nil {
		return nil, err
	}

	result := &Result{
		Groups: FindOverlapGroups(in.Events, &in.Config),
	}

	// Relocated movable events free their time for allocation.
	gapEvents := in.Events
	if len(in.RelocatedEventIDs) > 0 {
		relocated := make(map[string]bool, len(in.RelocatedEventIDs))
		for _, id := range in.RelocatedEventIDs {
			relocated[id] = true
		}
		gapEvents = make([]Event, 0, len(in.Events))
		for _, e := range in.Events {
			if !relocated[e.ID] {
				gapEvents = append(gapEvents, e)
			}
		}
	}

	var gaps []Gap
	for _, window := range in.activeWindows() {
		day := FindGaps(window, gapEvents, in.Config.minGapMinutes())
		result.Days = append(result.Days, day)
		gaps = append(gaps, day.Gaps...)
	}

	scheduled := ScheduledMinutesByCategory(in.Events, in.Range)
	allocation, err := AllocateGoals(in.Config.Goals, gaps, scheduled, &in.Config)
	if err != nil {
		return nil, err
	}
	result.Allocation = allocation

	coverage, err := EvaluateCoverage(in.Events, in.Config.Rules, in.KnownLinks)
	if err != nil {
		return nil, err
	}
	result.Coverage = coverage

	movable, err := MovableEventIDs(in.Events, in.Config.MovablePatterns)
	if err != nil {
		return nil, err
	}
	result.MovableCandidates = movable

	return result, nil
}

// activeWindows builds the active-hours window for each day of the range
// that has configured hours, clipped to the range bounds. Days without an
// entry (for example weekends excluded by the caller's config) contribute
// no window.
func (in *Input) activeWindows() []Interval {
	var windows []Interval
	day := time.Date(
		in.Range.Start.Year(), in.Range.Start.Month(), in.Range.Start.Day(),
		0, 0, 0, 0, in.Range.Start.Location(),
	)
	for day.Before(in.Range.End) {
		if hours, ok := in.Config.ActiveHours[day.Weekday()]; ok {
			window := dayWindow(day, hours.Start, hours.End)
			if clipped, ok := window.ClipTo(in.Range); ok {
				windows = append(windows, clipped)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return windows
}
