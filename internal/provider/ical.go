package provider

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/weekwise/backend/internal/engine"
)

// Safety cap so a runaway RRULE cannot flood one analysis.
const maxOccurrencesPerEvent = 1000

// parsedEvent is the intermediate VEVENT representation before recurrence
// expansion.
type parsedEvent struct {
	uid          string
	summary      string
	description  string
	start, end   time.Time
	allDay       bool
	rawRRule     string
	exDates      []time.Time
	recurrenceID *time.Time // set on override instances
}

// ParseFeed parses one ICS payload and returns engine events within the
// given range. Recurring events are expanded into concrete instances whose
// IDs carry the occurrence suffix engine.SeriesIDOf strips.
func ParseFeed(feed Feed, body []byte, within engine.Interval) ([]engine.Event, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("feed %s: empty ICS body", feed.ID)
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("feed %s: parsing ICS: %w", feed.ID, err)
	}

	var bases []parsedEvent
	overrides := make(map[string][]parsedEvent)
	for _, ve := range cal.Events() {
		pe, err := parseVEvent(ve)
		if err != nil {
			// A single malformed VEVENT must not sink the whole feed.
			continue
		}
		if pe.recurrenceID != nil {
			overrides[pe.uid] = append(overrides[pe.uid], pe)
			continue
		}
		bases = append(bases, pe)
	}

	var events []engine.Event
	for _, pe := range bases {
		events = append(events, expand(feed, pe, overrides[pe.uid], within)...)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var pe parsedEvent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return pe, fmt.Errorf("missing UID")
	}
	pe.uid = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		pe.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		pe.description = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return pe, fmt.Errorf("event %s: bad DTSTART: %w", pe.uid, err)
	}
	end, err := ve.GetEndAt()
	if err != nil || !start.Before(end) {
		// DTEND is optional for all-day events; fall back to one day.
		end = start.Add(24 * time.Hour)
	}
	pe.start, pe.end = start, end

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				pe.allDay = true
			}
		}
		if !strings.Contains(p.Value, "T") {
			pe.allDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		pe.rawRRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part)); err == nil {
				pe.exDates = append(pe.exDates, t)
			}
		}
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			pe.recurrenceID = &t
		}
	}

	return pe, nil
}

// expand turns one base VEVENT into concrete engine events inside the range,
// applying EXDATE removals and RECURRENCE-ID overrides.
func expand(feed Feed, pe parsedEvent, overrides []parsedEvent, within engine.Interval) []engine.Event {
	if pe.rawRRule == "" {
		single := pe
		if ov, ok := overrideFor(overrides, pe.start); ok {
			single.start, single.end = ov.start, ov.end
			single.summary, single.description = ov.summary, ov.description
		}
		iv := engine.Interval{Start: single.start, End: single.end}
		if !iv.Overlaps(within) {
			return nil
		}
		return []engine.Event{toEvent(feed, single, single.start, single.end, "")}
	}

	r, err := rrule.StrToRRule(pe.rawRRule)
	if err != nil {
		return nil
	}
	r.DTStart(pe.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range pe.exDates {
		set.ExDate(ex.In(pe.start.Location()))
	}

	starts := set.Between(within.Start.In(pe.start.Location()), within.End.In(pe.start.Location()), true)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}

	duration := pe.end.Sub(pe.start)
	var events []engine.Event
	for _, occStart := range starts {
		occEnd := occStart.Add(duration)
		occ := pe
		// The instance suffix always names the original occurrence slot,
		// even when an override moved the instance elsewhere.
		suffix := instanceSuffix(occStart, pe.allDay)
		if ov, ok := overrideFor(overrides, occStart); ok {
			occStart, occEnd = ov.start, ov.end
			occ.summary, occ.description = ov.summary, ov.description
		}
		events = append(events, toEvent(feed, occ, occStart, occEnd, suffix))
	}
	return events
}

func overrideFor(overrides []parsedEvent, start time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.recurrenceID != nil && ov.recurrenceID.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

func toEvent(feed Feed, pe parsedEvent, start, end time.Time, suffix string) engine.Event {
	id := pe.uid
	parent := ""
	if suffix != "" {
		id = pe.uid + "_" + suffix
		parent = pe.uid
	}
	return engine.Event{
		Interval:          engine.Interval{Start: start, End: end},
		ID:                id,
		AccountID:         feed.AccountID,
		CalendarID:        feed.CalendarID,
		CalendarType:      feed.CalendarType,
		Summary:           pe.summary,
		Description:       pe.description,
		Category:          feed.Category,
		RecurringParentID: parent,
	}
}

// instanceSuffix formats the occurrence suffix appended to recurring
// instance IDs. engine.SeriesIDOf strips exactly this grammar.
func instanceSuffix(start time.Time, allDay bool) string {
	if allDay {
		return start.Format("20060102")
	}
	return start.UTC().Format("20060102T150405Z")
}

// parseICSTime parses the basic ICS date/date-time forms used by EXDATE and
// RECURRENCE-ID values.
func parseICSTime(v string) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, fmt.Errorf("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	default:
		return time.ParseInLocation("20060102", v, time.UTC)
	}
}
