// Package provider implements the calendar-provider side of the system:
// fetching ICS feeds per account, parsing them, and expanding recurrences
// into the flat event set the engine consumes. The engine never calls this
// package; the planner wires the two together.
package provider

import (
	"time"

	"github.com/weekwise/backend/internal/engine"
)

// Feed is one ICS subscription belonging to an account. The calendar type
// and category are configured per feed, never inferred from the payload.
type Feed struct {
	ID           string              `json:"id"`
	AccountID    string              `json:"account_id"`
	CalendarID   string              `json:"calendar_id"`
	URL          string              `json:"url"`
	CalendarType engine.CalendarType `json:"calendar_type"`
	Category     string              `json:"category,omitempty"`
}

// FeedFailure records one feed that could not be fetched or parsed.
// Failures are isolated: other feeds' events are still merged.
type FeedFailure struct {
	FeedID    string    `json:"feed_id"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
	AccountID string    `json:"account_id"`
}

// FetchResult is the merged outcome of fetching every feed.
type FetchResult struct {
	Events   []engine.Event `json:"events"`
	Failures []FeedFailure  `json:"failures,omitempty"`
}
