package engine

import (
	"reflect"
	"testing"
)

func gap(startHour, startMin, endHour, endMin int) Gap {
	g := Gap{Interval: iv(startHour, startMin, endHour, endMin)}
	g.DurationMinutes = g.Minutes()
	return g
}

func TestAllocateGoals_SessionBounds(t *testing.T) {
	goal := Goal{
		ID:            "deep-work",
		TargetMinutes: 120,
		MinMinutes:    45,
		MaxMinutes:    90,
		Category:      "focus",
	}
	gaps := []Gap{
		gap(7, 0, 7, 40),  // 40 min: below MinMinutes, skipped
		gap(8, 0, 10, 0),  // 120 min
	}

	result, err := AllocateGoals([]Goal{goal}, gaps, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(result.Slots))
	}
	slot := result.Slots[0]
	if !slot.Start.Equal(at(8, 0)) || !slot.End.Equal(at(9, 30)) {
		t.Errorf("slot = %v, want 08:00-09:30", slot.Interval)
	}
	if slot.Minutes != 90 {
		t.Errorf("slot minutes = %d, want 90", slot.Minutes)
	}

	// The 30 unmet minutes are below MinMinutes, so the 09:30-10:00
	// residual stays unused and the score reflects the shortfall.
	if len(result.Scores) != 1 {
		t.Fatalf("expected 1 score, got %d", len(result.Scores))
	}
	if got := result.Scores[0].Score; got != 0.75 {
		t.Errorf("score = %v, want 0.75", got)
	}
	if result.Scores[0].AllocatedMinutes != 90 {
		t.Errorf("allocated = %d, want 90", result.Scores[0].AllocatedMinutes)
	}
}

func TestAllocateGoals_NeverViolatesBounds(t *testing.T) {
	goals := []Goal{
		{ID: "a", TargetMinutes: 300, MinMinutes: 30, MaxMinutes: 60, Category: "a"},
		{ID: "b", TargetMinutes: 200, MinMinutes: 20, Category: "b", Priority: 1},
	}
	gaps := []Gap{
		gap(6, 0, 8, 30),
		gap(9, 0, 9, 25),
		gap(12, 0, 14, 0),
		gap(18, 0, 18, 45),
	}
	result, err := AllocateGoals(goals, gaps, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	byID := map[string]Goal{"a": goals[0], "b": goals[1]}
	for _, slot := range result.Slots {
		g := byID[slot.GoalID]
		if g.MinMinutes > 0 && slot.Minutes < g.MinMinutes {
			t.Errorf("slot %v shorter than goal %s minimum %d", slot, g.ID, g.MinMinutes)
		}
		if g.MaxMinutes > 0 && slot.Minutes > g.MaxMinutes {
			t.Errorf("slot %v longer than goal %s maximum %d", slot, g.ID, g.MaxMinutes)
		}
	}
}

func TestAllocateGoals_Deterministic(t *testing.T) {
	goals := []Goal{
		{ID: "a", TargetMinutes: 180, MinMinutes: 30, MaxMinutes: 60, Category: "a", Preferred: TimeOfDayMorning},
		{ID: "b", TargetMinutes: 120, Category: "b", Priority: 1},
	}
	gaps := []Gap{gap(6, 0, 9, 0), gap(13, 0, 16, 0), gap(19, 0, 20, 0)}

	first, err := AllocateGoals(goals, gaps, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := AllocateGoals(goals, gaps, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different allocations")
	}
}

func TestAllocateGoals_PriorityOrder(t *testing.T) {
	// One 60-minute gap, two goals wanting it: the lower rank wins.
	goals := []Goal{
		{ID: "later", TargetMinutes: 60, Priority: 2, Category: "later"},
		{ID: "urgent", TargetMinutes: 60, Priority: 0, Category: "urgent"},
	}
	result, err := AllocateGoals(goals, []Gap{gap(9, 0, 10, 0)}, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Slots) != 1 || result.Slots[0].GoalID != "urgent" {
		t.Errorf("expected the priority-0 goal to win the gap, got %v", result.Slots)
	}
}

func TestAllocateGoals_EqualPriorityListOrderWins(t *testing.T) {
	goals := []Goal{
		{ID: "first", TargetMinutes: 60, Category: "first"},
		{ID: "second", TargetMinutes: 60, Category: "second"},
	}
	result, err := AllocateGoals(goals, []Gap{gap(9, 0, 10, 0)}, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Slots) != 1 || result.Slots[0].GoalID != "first" {
		t.Errorf("list order must break equal priorities, got %v", result.Slots)
	}
}

func TestAllocateGoals_PreferredWindowWithFallback(t *testing.T) {
	evening := Goal{ID: "reading", TargetMinutes: 60, Preferred: TimeOfDayEvening, Category: "reading"}

	// An evening gap exists: it wins over the earlier morning gap.
	result, err := AllocateGoals([]Goal{evening}, []Gap{gap(7, 0, 9, 0), gap(19, 0, 21, 0)}, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Slots) != 1 || !result.Slots[0].Start.Equal(at(19, 0)) {
		t.Errorf("expected evening slot at 19:00, got %v", result.Slots)
	}

	// No evening gap: the goal still receives time from the full pool.
	result, err = AllocateGoals([]Goal{evening}, []Gap{gap(7, 0, 9, 0)}, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Slots) != 1 || !result.Slots[0].Start.Equal(at(7, 0)) {
		t.Errorf("expected fallback slot at 07:00, got %v", result.Slots)
	}
}

func TestAllocateGoals_ScheduledTimeReducesNeed(t *testing.T) {
	goal := Goal{ID: "exercise", TargetMinutes: 120, Category: "exercise"}
	scheduled := map[string]int{"exercise": 90}

	result, err := AllocateGoals([]Goal{goal}, []Gap{gap(9, 0, 12, 0)}, scheduled, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Slots) != 1 || result.Slots[0].Minutes != 30 {
		t.Fatalf("expected one 30-minute slot, got %v", result.Slots)
	}

	// Fully met targets allocate nothing and score 1.
	scheduled["exercise"] = 150
	result, err = AllocateGoals([]Goal{goal}, []Gap{gap(9, 0, 12, 0)}, scheduled, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Slots) != 0 {
		t.Errorf("met goal must not allocate, got %v", result.Slots)
	}
	if result.Scores[0].Score != 1 {
		t.Errorf("met goal score = %v, want 1", result.Scores[0].Score)
	}
}

func TestAllocateGoals_SplitsAcrossGaps(t *testing.T) {
	goal := Goal{ID: "study", TargetMinutes: 150, MaxMinutes: 60, Category: "study"}
	gaps := []Gap{gap(8, 0, 9, 0), gap(10, 0, 11, 0), gap(12, 0, 13, 0)}

	result, err := AllocateGoals([]Goal{goal}, gaps, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(result.Slots))
	}
	wantMinutes := []int{60, 60, 30}
	for i, slot := range result.Slots {
		if slot.Minutes != wantMinutes[i] {
			t.Errorf("slot %d = %d minutes, want %d", i, slot.Minutes, wantMinutes[i])
		}
	}
	if result.Scores[0].Score != 1 {
		t.Errorf("score = %v, want 1", result.Scores[0].Score)
	}
}

func TestAllocateGoals_RejectsBadGoal(t *testing.T) {
	bad := Goal{ID: "bad", TargetMinutes: 60, MinMinutes: 90, MaxMinutes: 30}
	_, err := AllocateGoals([]Goal{bad}, nil, nil, &Config{})
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestMovableEventIDs(t *testing.T) {
	flex := busyEvent("flex-block", 9, 0, 10, 0)
	flex.Summary = "[flex] admin time"
	fixed := busyEvent("standup", 10, 0, 10, 30)
	info := busyEvent("fyi", 11, 0, 12, 0)
	info.Summary = "[flex] someday"
	info.CalendarType = CalendarReference

	ids, err := MovableEventIDs([]Event{flex, fixed, info}, []string{`^\[flex\]`})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"flex-block"}) {
		t.Errorf("movable = %v, want [flex-block]", ids)
	}
}

func TestOverallScore_PriorityWeighted(t *testing.T) {
	goals := []Goal{
		{ID: "hi", TargetMinutes: 60, Priority: 0, Category: "hi"},
		{ID: "lo", TargetMinutes: 60, Priority: 1, Category: "lo"},
	}
	// One gap: the priority-0 goal is fully met, the other not at all.
	result, err := AllocateGoals(goals, []Gap{gap(9, 0, 10, 0)}, nil, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	// Weights 1 and 0.5: overall = (1*1 + 0.5*0) / 1.5.
	want := 1.0 / 1.5
	if diff := result.OverallScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("overall = %v, want %v", result.OverallScore, want)
	}
}
