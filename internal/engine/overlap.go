package engine

import (
	"sort"
	"strings"
	"time"
)

// OverlapGroup is a maximal set of busy events whose intervals are
// transitively connected: A overlapping B and B overlapping C places all
// three in one group even when A and C never touch. Groups are recomputed
// on every invocation and never persisted by the engine.
type OverlapGroup struct {
	// Events in start order.
	Events []Event `json:"events"`
	// Span covers the whole group from earliest start to latest end.
	Span Interval `json:"span"`
	// SuggestedIDs is the maximum-cardinality pairwise non-overlapping
	// subset, a suggestion the caller may override.
	SuggestedIDs []string `json:"suggested_ids"`
}

// FindOverlapGroups partitions the busy subset of events into transitive
// overlap groups. Singleton groups carry no conflict and are not returned.
// Availability and reference events never conflict and are ignored here.
func FindOverlapGroups(events []Event, cfg *Config) []OverlapGroup {
	busy := busyEvents(events)
	if len(busy) < 2 {
		return nil
	}

	var groups []OverlapGroup
	var current []Event
	var maxEnd time.Time

	flush := func() {
		if len(current) > 1 {
			g := OverlapGroup{Events: current, Span: groupSpan(current)}
			g.SuggestedIDs = suggestAttendance(current, cfg)
			groups = append(groups, g)
		}
		current = nil
	}

	for _, e := range busy {
		if len(current) > 0 && e.Start.Before(maxEnd) {
			current = append(current, e)
			if e.End.After(maxEnd) {
				maxEnd = e.End
			}
			continue
		}
		flush()
		current = []Event{e}
		maxEnd = e.End
	}
	flush()

	return groups
}

// Key returns a stable identifier for the group: the member event IDs,
// sorted and joined. A re-analysis over the same events produces the same
// key, so callers can recognize groups they have already decided.
func (g OverlapGroup) Key() string {
	ids := make([]string, len(g.Events))
	for i, e := range g.Events {
		ids[i] = e.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func groupSpan(events []Event) Interval {
	span := events[0].Interval
	for _, e := range events[1:] {
		if e.Start.Before(span.Start) {
			span.Start = e.Start
		}
		if e.End.After(span.End) {
			span.End = e.End
		}
	}
	return span
}

// suggestAttendance selects the maximum-cardinality mutually non-overlapping
// subset of a group by the classic greedy interval scheduling: members sorted
// by end ascending, an event accepted when it starts at or after the end of
// the last accepted one. Ties in end time break by earlier start, then by
// account priority, then by the group's insertion order.
func suggestAttendance(members []Event, cfg *Config) []string {
	ordered := make([]int, len(members))
	for i := range ordered {
		ordered[i] = i
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		ea, eb := members[ordered[a]], members[ordered[b]]
		if !ea.End.Equal(eb.End) {
			return ea.End.Before(eb.End)
		}
		if !ea.Start.Equal(eb.Start) {
			return ea.Start.Before(eb.Start)
		}
		ra, rb := cfg.accountRank(ea.AccountID), cfg.accountRank(eb.AccountID)
		if ra != rb {
			return ra < rb
		}
		return ordered[a] < ordered[b]
	})

	var accepted []Event
	var lastEnd time.Time
	for _, idx := range ordered {
		e := members[idx]
		if len(accepted) == 0 || !e.Start.Before(lastEnd) {
			accepted = append(accepted, e)
			lastEnd = e.End
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start.Before(accepted[j].Start) })
	suggested := make([]string, len(accepted))
	for i, e := range accepted {
		suggested[i] = e.ID
	}
	return suggested
}

// AttendanceSplit computes a proportional time split for an arbitrary
// attendance choice the user made for one group: wherever k chosen events
// run concurrently, each receives a 1/k share of that span; declined events
// receive zero. The returned map holds whole minutes per event ID.
func AttendanceSplit(group OverlapGroup, chosenIDs []string) map[string]int {
	chosen := make(map[string]bool, len(chosenIDs))
	for _, id := range chosenIDs {
		chosen[id] = true
	}

	shares := make(map[string]time.Duration)
	minutes := make(map[string]int, len(group.Events))
	for _, e := range group.Events {
		minutes[e.ID] = 0
	}

	// Elementary segments between consecutive boundaries of chosen events.
	var bounds []time.Time
	for _, e := range group.Events {
		if chosen[e.ID] {
			bounds = append(bounds, e.Start, e.End)
		}
	}
	if len(bounds) == 0 {
		return minutes
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].Before(bounds[j]) })

	for i := 0; i+1 < len(bounds); i++ {
		seg := Interval{Start: bounds[i], End: bounds[i+1]}
		if !seg.Start.Before(seg.End) {
			continue
		}
		var active []string
		for _, e := range group.Events {
			if chosen[e.ID] && e.Overlaps(seg) {
				active = append(active, e.ID)
			}
		}
		if len(active) == 0 {
			continue
		}
		share := seg.Duration() / time.Duration(len(active))
		for _, id := range active {
			shares[id] += share
		}
	}

	for id, d := range shares {
		minutes[id] = int(d / time.Minute)
	}
	return minutes
}
