package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeAnalysisCompleted MessageType = "analysis.completed"
	TypeConflictDetected  MessageType = "conflict.detected"
	TypeCoverageMissing   MessageType = "coverage.missing"
	TypeCoverageOrphaned  MessageType = "coverage.orphaned"
	TypeFeedSyncCompleted MessageType = "feed.sync_completed"
	TypeFeedSyncError     MessageType = "feed.sync_error"
	TypeNotification      MessageType = "notification"

	// Client -> Server command types
	TypeSubscribe MessageType = "subscribe"
	TypePing      MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnalysisCompletedPayload is the payload for analysis.completed events.
type AnalysisCompletedPayload struct {
	RunID         string    `json:"run_id"`
	RangeStart    time.Time `json:"range_start"`
	RangeEnd      time.Time `json:"range_end"`
	GroupCount    int       `json:"group_count"`
	GapCount      int       `json:"gap_count"`
	SlotCount     int       `json:"slot_count"`
	MissingCover  int       `json:"missing_coverage"`
	OverallScore  float64   `json:"overall_score"`
	FailedFeedIDs []string  `json:"failed_feed_ids,omitempty"`
}

// ConflictPayload is the payload for conflict.detected events.
type ConflictPayload struct {
	GroupKey     string    `json:"group_key"`
	SpanStart    time.Time `json:"span_start"`
	SpanEnd      time.Time `json:"span_end"`
	EventCount   int       `json:"event_count"`
	SuggestedIDs []string  `json:"suggested_ids"`
}

// CoveragePayload is the payload for coverage.missing and coverage.orphaned
// events.
type CoveragePayload struct {
	RuleID         string     `json:"rule_id"`
	TriggerEventID string     `json:"trigger_event_id"`
	WindowStart    *time.Time `json:"window_start,omitempty"`
	WindowEnd      *time.Time `json:"window_end,omitempty"`
}

// FeedSyncPayload is the payload for feed.sync_completed and
// feed.sync_error events.
type FeedSyncPayload struct {
	FeedID      string `json:"feed_id"`
	FeedName    string `json:"feed_name"`
	Status      string `json:"status"`
	EventsFound int    `json:"events_found"`
	Message     string `json:"message,omitempty"`
}
