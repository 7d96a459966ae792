package models

import (
	"time"

	"github.com/weekwise/backend/internal/engine"
)

// ConflictDecision is an accepted attendance choice for one overlap group.
// GroupKey identifies the group across re-syncs: the sorted member event
// IDs joined with "|".
type ConflictDecision struct {
	ID        string         `json:"id"`
	GroupKey  string         `json:"group_key"`
	SpanStart time.Time      `json:"span_start"`
	SpanEnd   time.Time      `json:"span_end"`
	ChosenIDs []string       `json:"chosen_ids"`
	Split     map[string]int `json:"split"` // minutes per event ID
	DecidedAt time.Time      `json:"decided_at"`
}

// CoverageLink associates a trigger event with the coverage event created
// for it.
type CoverageLink struct {
	ID              string    `json:"id"`
	RuleID          string    `json:"rule_id"`
	TriggerEventID  string    `json:"trigger_event_id"`
	CoverageEventID string    `json:"coverage_event_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToEngine converts the stored link to the engine's input shape.
func (l *CoverageLink) ToEngine() engine.CoverageLink {
	return engine.CoverageLink{
		RuleID:          l.RuleID,
		TriggerEventID:  l.TriggerEventID,
		CoverageEventID: l.CoverageEventID,
	}
}

// AnalysisRun is a persisted summary of one engine invocation.
type AnalysisRun struct {
	ID           string    `json:"id"`
	RangeStart   time.Time `json:"range_start"`
	RangeEnd     time.Time `json:"range_end"`
	EventCount   int       `json:"event_count"`
	GroupCount   int       `json:"group_count"`
	GapCount     int       `json:"gap_count"`
	SlotCount    int       `json:"slot_count"`
	OverallScore float64   `json:"overall_score"`
	FailedFeeds  []string  `json:"failed_feeds,omitempty"`
	RanAt        time.Time `json:"ran_at"`
}
