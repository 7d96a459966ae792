package engine

import (
	"regexp"
	"strings"
	"time"
)

// CoverageStatus is the outcome of evaluating one rule against one trigger.
type CoverageStatus string

const (
	// CoverageSatisfied means an existing event covers the required window.
	CoverageSatisfied CoverageStatus = "satisfied"
	// CoverageMissing means no event covers the window; a draft is proposed.
	CoverageMissing CoverageStatus = "missing"
	// CoverageOrphaned means a previously linked coverage event's trigger
	// is no longer present in the current fetch.
	CoverageOrphaned CoverageStatus = "orphaned"
)

// DraftEvent is a proposed calendar event for the caller to create via the
// provider. The engine never creates anything itself.
type DraftEvent struct {
	Interval
	AccountID  string `json:"account_id"`
	CalendarID string `json:"calendar_id"`
	Summary    string `json:"summary"`
}

// CoverageProposal reports the coverage state of one trigger event (or, for
// orphans, one stale coverage link).
type CoverageProposal struct {
	RuleID          string         `json:"rule_id"`
	TriggerEventID  string         `json:"trigger_event_id"`
	RequiredWindow  Interval       `json:"required_window,omitempty"`
	Status          CoverageStatus `json:"status"`
	CoveringEventID string         `json:"covering_event_id,omitempty"`
	Draft           *DraftEvent    `json:"draft,omitempty"`
}

// CoverageLink is a persisted association between a trigger event and the
// coverage event created for it, supplied by the caller from storage.
type CoverageLink struct {
	RuleID          string `json:"rule_id"`
	TriggerEventID  string `json:"trigger_event_id"`
	CoverageEventID string `json:"coverage_event_id"`
}

// EvaluateCoverage runs every rule over the normalized event set. Rules are
// independent; overlapping proposals from different rules are all returned
// and deduplication is left to the caller. knownLinks lets the evaluator
// flag coverage events whose trigger has disappeared from the current fetch.
func EvaluateCoverage(events []Event, rules []CoverageRule, knownLinks []CoverageLink) ([]CoverageProposal, error) {
	var proposals []CoverageProposal

	for i := range rules {
		rule := &rules[i]
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		re := regexp.MustCompile("(?i)" + rule.Pattern)

		for _, trigger := range events {
			if !rule.matchesTrigger(trigger, re) {
				continue
			}
			required := trigger.Expand(
				time.Duration(rule.BeforeMinutes)*time.Minute,
				time.Duration(rule.AfterMinutes)*time.Minute,
			)
			proposal := CoverageProposal{
				RuleID:         rule.ID,
				TriggerEventID: trigger.ID,
				RequiredWindow: required,
			}

			if covering, ok := findCovering(events, rule, required); ok {
				proposal.Status = CoverageSatisfied
				proposal.CoveringEventID = covering.ID
			} else {
				proposal.Status = CoverageMissing
				proposal.Draft = &DraftEvent{
					Interval:   required,
					AccountID:  rule.CreateAccountID,
					CalendarID: rule.CreateCalendarID,
					Summary:    draftSummary(rule, trigger),
				}
			}
			proposals = append(proposals, proposal)
		}
	}

	proposals = append(proposals, findOrphans(events, knownLinks)...)
	return proposals, nil
}

// matchesTrigger reports whether an event fires the rule: it lives on one of
// the rule's source calendars, its title or description matches the pattern,
// and no opt-out marker suppresses it.
func (r *CoverageRule) matchesTrigger(e Event, re *regexp.Regexp) bool {
	if !containsString(r.SourceCalendars, e.CalendarID) {
		return false
	}
	if !re.MatchString(e.Summary) && !re.MatchString(e.Description) {
		return false
	}
	for _, marker := range r.OptOutMarkers {
		if marker == "" {
			continue
		}
		if strings.Contains(e.Summary, marker) || strings.Contains(e.Description, marker) {
			return false
		}
	}
	return true
}

// findCovering searches the rule's coverage calendars for an event whose
// overlap with the required window is at least the rule's minimum fraction
// of the window's duration. The earliest-starting qualifying event wins,
// keeping evaluation deterministic.
func findCovering(events []Event, rule *CoverageRule, required Interval) (Event, bool) {
	needed := time.Duration(rule.MinOverlapFraction * float64(required.Duration()))
	var best Event
	found := false
	for _, e := range events {
		if !containsString(rule.CoverageCalendars, e.CalendarID) {
			continue
		}
		overlap, ok := e.Intersect(required)
		if !ok || overlap.Duration() < needed {
			continue
		}
		if !found || e.Start.Before(best.Start) {
			best = e
			found = true
		}
	}
	return best, found
}

// findOrphans flags known coverage links whose trigger event (or its series)
// no longer appears in the current fetch.
func findOrphans(events []Event, knownLinks []CoverageLink) []CoverageProposal {
	present := make(map[string]bool, len(events)*2)
	for _, e := range events {
		present[e.ID] = true
		present[e.SeriesID()] = true
	}

	var orphans []CoverageProposal
	for _, link := range knownLinks {
		if present[link.TriggerEventID] || present[SeriesIDOf(link.TriggerEventID)] {
			continue
		}
		orphans = append(orphans, CoverageProposal{
			RuleID:          link.RuleID,
			TriggerEventID:  link.TriggerEventID,
			Status:          CoverageOrphaned,
			CoveringEventID: link.CoverageEventID,
		})
	}
	return orphans
}

func draftSummary(rule *CoverageRule, trigger Event) string {
	name := rule.Name
	if name == "" {
		name = "Coverage"
	}
	return name + ": " + trigger.Summary
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
