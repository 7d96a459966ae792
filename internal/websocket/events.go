package websocket

import (
	"log"
	"time"

	"github.com/weekwise/backend/internal/engine"
)

// EventBroadcaster serializes domain events into hub broadcasts.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastAnalysisCompleted announces a finished analysis run.
func (b *EventBroadcaster) BroadcastAnalysisCompleted(p AnalysisCompletedPayload) {
	b.broadcast(NewMessage(TypeAnalysisCompleted, p))
}

// BroadcastConflict announces one overlap group needing a decision.
func (b *EventBroadcaster) BroadcastConflict(groupKey string, group engine.OverlapGroup) {
	b.broadcast(NewMessage(TypeConflictDetected, ConflictPayload{
		GroupKey:     groupKey,
		SpanStart:    group.Span.Start,
		SpanEnd:      group.Span.End,
		EventCount:   len(group.Events),
		SuggestedIDs: group.SuggestedIDs,
	}))
}

// BroadcastCoverage announces a missing or orphaned coverage proposal.
func (b *EventBroadcaster) BroadcastCoverage(p engine.CoverageProposal) {
	payload := CoveragePayload{
		RuleID:         p.RuleID,
		TriggerEventID: p.TriggerEventID,
	}
	msgType := TypeCoverageOrphaned
	if p.Status == engine.CoverageMissing {
		msgType = TypeCoverageMissing
		start, end := p.RequiredWindow.Start, p.RequiredWindow.End
		payload.WindowStart, payload.WindowEnd = &start, &end
	}
	b.broadcast(NewMessage(msgType, payload))
}

// BroadcastFeedSyncCompleted announces a successful feed refresh.
func (b *EventBroadcaster) BroadcastFeedSyncCompleted(feedID, feedName string, eventsFound int) {
	b.broadcast(NewMessage(TypeFeedSyncCompleted, FeedSyncPayload{
		FeedID:      feedID,
		FeedName:    feedName,
		Status:      "success",
		EventsFound: eventsFound,
	}))
}

// BroadcastFeedSyncError announces a failed feed refresh.
func (b *EventBroadcaster) BroadcastFeedSyncError(feedID, feedName string, err error) {
	b.broadcast(NewMessage(TypeFeedSyncError, FeedSyncPayload{
		FeedID:   feedID,
		FeedName: feedName,
		Status:   "error",
		Message:  err.Error(),
	}))
}

// BroadcastNotification sends a free-form notification.
func (b *EventBroadcaster) BroadcastNotification(title, message string) {
	b.broadcast(NewMessage(TypeNotification, map[string]any{
		"title":   title,
		"message": message,
		"time":    time.Now().UTC(),
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	if b == nil || b.hub == nil {
		return
	}
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Failed to serialize WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
