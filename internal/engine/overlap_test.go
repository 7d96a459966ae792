package engine

import (
	"reflect"
	"testing"
)

func busyEvent(id string, startHour, startMin, endHour, endMin int) Event {
	return Event{
		Interval:     iv(startHour, startMin, endHour, endMin),
		ID:           id,
		AccountID:    "acct-1",
		CalendarID:   "cal-1",
		CalendarType: CalendarActive,
		Summary:      id,
	}
}

func TestFindOverlapGroups_TransitiveChain(t *testing.T) {
	// A overlaps B, B overlaps C, A and C never touch: one group of three.
	events := []Event{
		busyEvent("a", 9, 0, 10, 0),
		busyEvent("b", 9, 30, 11, 0),
		busyEvent("c", 10, 45, 11, 15),
	}
	groups := FindOverlapGroups(events, &Config{})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Events) != 3 {
		t.Fatalf("expected 3 members, got %d", len(groups[0].Events))
	}
	// Greedy earliest-end selection keeps a (ends 10:00) and c (starts 10:45).
	want := []string{"a", "c"}
	if !reflect.DeepEqual(groups[0].SuggestedIDs, want) {
		t.Errorf("suggested = %v, want %v", groups[0].SuggestedIDs, want)
	}
}

func TestFindOverlapGroups_PartitionsConflicts(t *testing.T) {
	events := []Event{
		busyEvent("a", 9, 0, 10, 0),
		busyEvent("b", 9, 30, 10, 30),
		busyEvent("lone", 11, 0, 12, 0),
		busyEvent("c", 13, 0, 14, 0),
		busyEvent("d", 13, 30, 14, 30),
	}
	groups := FindOverlapGroups(events, &Config{})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	seen := make(map[string]int)
	for _, g := range groups {
		if len(g.Events) < 2 {
			t.Errorf("group with %d events returned; singletons must be dropped", len(g.Events))
		}
		for _, e := range g.Events {
			seen[e.ID]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("event %s appears in %d groups; groups must partition", id, n)
		}
	}
	if _, ok := seen["lone"]; ok {
		t.Error("non-conflicting event placed in a group")
	}
}

func TestFindOverlapGroups_IgnoresInformationalCalendars(t *testing.T) {
	ref := busyEvent("holiday", 9, 0, 17, 0)
	ref.CalendarType = CalendarReference
	avail := busyEvent("officehours", 9, 0, 17, 0)
	avail.CalendarType = CalendarAvailability

	events := []Event{ref, avail, busyEvent("meeting", 10, 0, 11, 0)}
	if groups := FindOverlapGroups(events, &Config{}); groups != nil {
		t.Errorf("informational calendars must not conflict, got %d groups", len(groups))
	}
}

func TestFindOverlapGroups_EmptyInput(t *testing.T) {
	if groups := FindOverlapGroups(nil, &Config{}); groups != nil {
		t.Errorf("expected nil, got %v", groups)
	}
}

func TestSuggestAttendance_AccountPriorityTieBreak(t *testing.T) {
	// Two identical intervals: the higher-priority account's event wins the
	// greedy seat, the other then conflicts and is dropped.
	work := busyEvent("work-standup", 9, 0, 10, 0)
	work.AccountID = "work"
	personal := busyEvent("gym", 9, 0, 10, 0)
	personal.AccountID = "personal"

	cfg := &Config{AccountPriority: []string{"work", "personal"}}
	groups := FindOverlapGroups([]Event{personal, work}, cfg)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	want := []string{"work-standup"}
	if !reflect.DeepEqual(groups[0].SuggestedIDs, want) {
		t.Errorf("suggested = %v, want %v", groups[0].SuggestedIDs, want)
	}
}

func TestSuggestedSubset_PairwiseNonOverlapping(t *testing.T) {
	events := []Event{
		busyEvent("a", 9, 0, 11, 0),
		busyEvent("b", 9, 15, 9, 45),
		busyEvent("c", 10, 0, 10, 30),
		busyEvent("d", 10, 15, 12, 0),
	}
	groups := FindOverlapGroups(events, &Config{})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	byID := make(map[string]Event)
	for _, e := range groups[0].Events {
		byID[e.ID] = e
	}
	picked := groups[0].SuggestedIDs
	for i := 0; i < len(picked); i++ {
		for j := i + 1; j < len(picked); j++ {
			if byID[picked[i]].Overlaps(byID[picked[j]].Interval) {
				t.Errorf("suggested events %s and %s overlap", picked[i], picked[j])
			}
		}
	}
	// b (ends 9:45) then c (ends 10:30) is the maximum subset here.
	if len(picked) != 2 {
		t.Errorf("expected 2 suggested events, got %v", picked)
	}
}

func TestAttendanceSplit(t *testing.T) {
	group := OverlapGroup{Events: []Event{
		busyEvent("a", 9, 0, 10, 0),
		busyEvent("b", 9, 0, 10, 0),
		busyEvent("c", 9, 30, 10, 30),
	}}

	split := AttendanceSplit(group, []string{"a", "b"})

	// a and b run fully concurrent: each gets half of the 60-minute span.
	if split["a"] != 30 || split["b"] != 30 {
		t.Errorf("concurrent keepers should split evenly, got a=%d b=%d", split["a"], split["b"])
	}
	if split["c"] != 0 {
		t.Errorf("declined event must get zero, got %d", split["c"])
	}

	// A sole keeper gets its full duration.
	solo := AttendanceSplit(group, []string{"c"})
	if solo["c"] != 60 {
		t.Errorf("sole keeper should get full 60, got %d", solo["c"])
	}
}

func TestAttendanceSplit_PartialOverlap(t *testing.T) {
	group := OverlapGroup{Events: []Event{
		busyEvent("a", 9, 0, 10, 0),
		busyEvent("b", 9, 30, 10, 30),
	}}
	split := AttendanceSplit(group, []string{"a", "b"})

	// Each keeps its exclusive half hour plus half of the shared half hour.
	if split["a"] != 45 || split["b"] != 45 {
		t.Errorf("expected 45/45, got a=%d b=%d", split["a"], split["b"])
	}
}

func TestGroupKey_StableAcrossOrder(t *testing.T) {
	a := OverlapGroup{Events: []Event{
		busyEvent("b", 9, 0, 10, 0),
		busyEvent("a", 9, 30, 10, 30),
	}}
	b := OverlapGroup{Events: []Event{
		busyEvent("a", 9, 30, 10, 30),
		busyEvent("b", 9, 0, 10, 0),
	}}
	if a.Key() != b.Key() {
		t.Errorf("key must not depend on member order: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() != "a|b" {
		t.Errorf("key = %q, want a|b", a.Key())
	}
}
