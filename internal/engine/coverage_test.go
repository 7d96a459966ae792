package engine

import "testing"

func babysitterRule() CoverageRule {
	return CoverageRule{
		ID:                 "babysitter",
		Name:               "Babysitter",
		SourceCalendars:    []string{"family"},
		Pattern:            "date night",
		BeforeMinutes:      60,
		AfterMinutes:       60,
		CoverageCalendars:  []string{"sitter"},
		MinOverlapFraction: 0.5,
		CreateAccountID:    "personal",
		CreateCalendarID:   "sitter",
		OptOutMarkers:      []string{"#nosit"},
	}
}

func trigger() Event {
	e := busyEvent("date-night-1", 19, 0, 22, 0)
	e.CalendarID = "family"
	e.Summary = "Date night downtown"
	return e
}

func sitter(id string, startHour, startMin, endHour, endMin int) Event {
	e := busyEvent(id, startHour, startMin, endHour, endMin)
	e.CalendarID = "sitter"
	e.CalendarType = CalendarBlocking
	return e
}

func TestEvaluateCoverage_Satisfied(t *testing.T) {
	events := []Event{trigger(), sitter("sitter-1", 18, 30, 22, 30)}

	proposals, err := EvaluateCoverage(events, []CoverageRule{babysitterRule()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	p := proposals[0]
	if p.Status != CoverageSatisfied {
		t.Fatalf("status = %s, want satisfied", p.Status)
	}
	if p.CoveringEventID != "sitter-1" {
		t.Errorf("covering = %s, want sitter-1", p.CoveringEventID)
	}
	if !p.RequiredWindow.Start.Equal(at(18, 0)) || !p.RequiredWindow.End.Equal(at(23, 0)) {
		t.Errorf("required window = %v, want 18:00-23:00", p.RequiredWindow)
	}
	if p.Draft != nil {
		t.Error("satisfied proposal must not carry a draft")
	}
}

func TestEvaluateCoverage_Missing(t *testing.T) {
	proposals, err := EvaluateCoverage([]Event{trigger()}, []CoverageRule{babysitterRule()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 1 || proposals[0].Status != CoverageMissing {
		t.Fatalf("expected one missing proposal, got %v", proposals)
	}
	draft := proposals[0].Draft
	if draft == nil {
		t.Fatal("missing proposal must carry a draft")
	}
	if !draft.Start.Equal(at(18, 0)) || !draft.End.Equal(at(23, 0)) {
		t.Errorf("draft window = %v, want 18:00-23:00", draft.Interval)
	}
	if draft.AccountID != "personal" || draft.CalendarID != "sitter" {
		t.Errorf("draft target = %s/%s, want personal/sitter", draft.AccountID, draft.CalendarID)
	}
}

func TestEvaluateCoverage_InsufficientOverlap(t *testing.T) {
	// 2 hours of the 5-hour required window is below the 50% threshold.
	events := []Event{trigger(), sitter("sitter-short", 18, 0, 20, 0)}

	proposals, err := EvaluateCoverage(events, []CoverageRule{babysitterRule()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 1 || proposals[0].Status != CoverageMissing {
		t.Errorf("short overlap must not satisfy, got %v", proposals)
	}
}

func TestEvaluateCoverage_OptOutMarker(t *testing.T) {
	e := trigger()
	e.Description = "grandma is in town #nosit"

	proposals, err := EvaluateCoverage([]Event{e}, []CoverageRule{babysitterRule()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 0 {
		t.Errorf("opted-out trigger must produce nothing, got %v", proposals)
	}
}

func TestEvaluateCoverage_WrongCalendarDoesNotTrigger(t *testing.T) {
	e := trigger()
	e.CalendarID = "work"

	proposals, err := EvaluateCoverage([]Event{e}, []CoverageRule{babysitterRule()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 0 {
		t.Errorf("event off the source calendars must not trigger, got %v", proposals)
	}
}

func TestEvaluateCoverage_Orphans(t *testing.T) {
	links := []CoverageLink{
		{RuleID: "babysitter", TriggerEventID: "date-night-1", CoverageEventID: "sitter-1"},
		{RuleID: "babysitter", TriggerEventID: "cancelled-night", CoverageEventID: "sitter-2"},
	}
	proposals, err := EvaluateCoverage([]Event{trigger()}, []CoverageRule{}, links)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 1 {
		t.Fatalf("expected 1 orphan, got %v", proposals)
	}
	p := proposals[0]
	if p.Status != CoverageOrphaned || p.TriggerEventID != "cancelled-night" || p.CoveringEventID != "sitter-2" {
		t.Errorf("unexpected orphan proposal %+v", p)
	}
}

func TestEvaluateCoverage_OrphanMatchesSeries(t *testing.T) {
	// A link recorded against one instance of a series stays live while any
	// instance of that series is still present.
	instance := trigger()
	instance.ID = "weekly-date_20260302T190000Z"

	links := []CoverageLink{
		{RuleID: "babysitter", TriggerEventID: "weekly-date_20260223T190000Z", CoverageEventID: "sitter-3"},
	}
	proposals, err := EvaluateCoverage([]Event{instance}, []CoverageRule{}, links)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 0 {
		t.Errorf("series-level match should suppress the orphan, got %v", proposals)
	}
}

func TestEvaluateCoverage_RejectsBadRule(t *testing.T) {
	bad := babysitterRule()
	bad.MinOverlapFraction = 1.5
	_, err := EvaluateCoverage([]Event{trigger()}, []CoverageRule{bad}, nil)
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
