package provider

import (
	"strings"
	"testing"
	"time"

	"github.com/weekwise/backend/internal/engine"
)

var testFeed = Feed{
	ID:           "feed-1",
	AccountID:    "work",
	CalendarID:   "work-main",
	URL:          "http://example.test/cal.ics",
	CalendarType: engine.CalendarActive,
	Category:     "meetings",
}

func marchRange() engine.Interval {
	return engine.Interval{
		Start: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ics(events ...string) []byte {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//weekwise//test//EN\r\n")
	for _, e := range events {
		b.WriteString(e)
	}
	b.WriteString("END:VCALENDAR\r\n")
	return []byte(b.String())
}

const simpleEvent = "BEGIN:VEVENT\r\n" +
	"UID:evt-1\r\n" +
	"SUMMARY:Design review\r\n" +
	"DESCRIPTION:Quarterly sync\r\n" +
	"DTSTART:20260310T090000Z\r\n" +
	"DTEND:20260310T100000Z\r\n" +
	"END:VEVENT\r\n"

const weeklyEvent = "BEGIN:VEVENT\r\n" +
	"UID:weekly-1\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20260302T091500Z\r\n" +
	"DTEND:20260302T093000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4\r\n" +
	"END:VEVENT\r\n"

func TestParseFeed_SingleEvent(t *testing.T) {
	events, err := ParseFeed(testFeed, ics(simpleEvent), marchRange())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID != "evt-1" || e.Summary != "Design review" || e.Description != "Quarterly sync" {
		t.Errorf("unexpected event %+v", e)
	}
	if e.AccountID != "work" || e.CalendarID != "work-main" || e.CalendarType != engine.CalendarActive {
		t.Errorf("feed attribution missing on %+v", e)
	}
	if e.Category != "meetings" {
		t.Errorf("category = %q, want meetings", e.Category)
	}
	want := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	if !e.Start.Equal(want) {
		t.Errorf("start = %v, want %v", e.Start, want)
	}
	if e.RecurringParentID != "" {
		t.Errorf("single event must not carry a parent, got %q", e.RecurringParentID)
	}
}

func TestParseFeed_ExpandsRecurrence(t *testing.T) {
	events, err := ParseFeed(testFeed, ics(weeklyEvent), marchRange())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 weekly instances, got %d", len(events))
	}
	first := events[0]
	if first.ID != "weekly-1_20260302T091500Z" {
		t.Errorf("instance id = %q", first.ID)
	}
	if first.RecurringParentID != "weekly-1" {
		t.Errorf("parent = %q, want weekly-1", first.RecurringParentID)
	}
	if got := engine.SeriesIDOf(first.ID); got != "weekly-1" {
		t.Errorf("SeriesIDOf(%q) = %q; suffix grammar drifted", first.ID, got)
	}
	for i, e := range events {
		wantStart := time.Date(2026, time.March, 2+7*i, 9, 15, 0, 0, time.UTC)
		if !e.Start.Equal(wantStart) {
			t.Errorf("instance %d start = %v, want %v", i, e.Start, wantStart)
		}
		if e.Minutes() != 15 {
			t.Errorf("instance %d duration = %d minutes, want 15", i, e.Minutes())
		}
	}
}

func TestParseFeed_ExDateRemovesInstance(t *testing.T) {
	withExDate := strings.Replace(weeklyEvent,
		"RRULE:FREQ=WEEKLY;COUNT=4\r\n",
		"RRULE:FREQ=WEEKLY;COUNT=4\r\nEXDATE:20260309T091500Z\r\n", 1)

	events, err := ParseFeed(testFeed, ics(withExDate), marchRange())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 instances after EXDATE, got %d", len(events))
	}
	excluded := time.Date(2026, time.March, 9, 9, 15, 0, 0, time.UTC)
	for _, e := range events {
		if e.Start.Equal(excluded) {
			t.Errorf("excluded instance still present: %+v", e)
		}
	}
}

func TestParseFeed_RecurrenceOverride(t *testing.T) {
	override := "BEGIN:VEVENT\r\n" +
		"UID:weekly-1\r\n" +
		"SUMMARY:Standup (moved)\r\n" +
		"RECURRENCE-ID:20260309T091500Z\r\n" +
		"DTSTART:20260309T140000Z\r\n" +
		"DTEND:20260309T141500Z\r\n" +
		"END:VEVENT\r\n"

	events, err := ParseFeed(testFeed, ics(weeklyEvent, override), marchRange())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 instances, got %d", len(events))
	}
	moved := time.Date(2026, time.March, 9, 14, 0, 0, 0, time.UTC)
	var found bool
	for _, e := range events {
		if e.Start.Equal(moved) {
			found = true
			if e.Summary != "Standup (moved)" {
				t.Errorf("override summary not applied: %q", e.Summary)
			}
		}
	}
	if !found {
		t.Error("overridden instance not found at its new time")
	}
}

func TestParseFeed_RangeFiltersEvents(t *testing.T) {
	past := strings.Replace(simpleEvent, "20260310", "20250310", 2)
	events, err := ParseFeed(testFeed, ics(past), marchRange())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("event outside the range must be dropped, got %v", events)
	}
}

func TestParseFeed_EmptyBody(t *testing.T) {
	if _, err := ParseFeed(testFeed, nil, marchRange()); err == nil {
		t.Fatal("expected error for empty body")
	}
}
