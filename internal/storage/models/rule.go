package models

import (
	"time"

	"github.com/weekwise/backend/internal/engine"
)

// CoverageRule is a persisted dependency between trigger events and the
// coverage they require.
type CoverageRule struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	SourceCalendars    []string  `json:"source_calendars"`
	Pattern            string    `json:"pattern"`
	BeforeMinutes      int       `json:"before_minutes"`
	AfterMinutes       int       `json:"after_minutes"`
	CoverageCalendars  []string  `json:"coverage_calendars"`
	MinOverlapFraction float64   `json:"min_overlap_fraction"`
	CreateAccountID    string    `json:"create_account_id"`
	CreateCalendarID   string    `json:"create_calendar_id"`
	OptOutMarkers      []string  `json:"opt_out_markers,omitempty"`
	Enabled            bool      `json:"enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToEngine converts the stored rule to the engine's input shape.
func (r *CoverageRule) ToEngine() engine.CoverageRule {
	return engine.CoverageRule{
		ID:                 r.ID,
		Name:               r.Name,
		SourceCalendars:    r.SourceCalendars,
		Pattern:            r.Pattern,
		BeforeMinutes:      r.BeforeMinutes,
		AfterMinutes:       r.AfterMinutes,
		CoverageCalendars:  r.CoverageCalendars,
		MinOverlapFraction: r.MinOverlapFraction,
		CreateAccountID:    r.CreateAccountID,
		CreateCalendarID:   r.CreateCalendarID,
		OptOutMarkers:      r.OptOutMarkers,
	}
}
