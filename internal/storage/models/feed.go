// Package models contains the persisted domain models for the application.
package models

import (
	"time"

	"github.com/weekwise/backend/internal/engine"
	"github.com/weekwise/backend/internal/provider"
)

// Feed is a persisted ICS subscription.
type Feed struct {
	ID              string     `json:"id"`
	AccountID       string     `json:"account_id"`
	CalendarID      string     `json:"calendar_id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	CalendarType    string     `json:"calendar_type"`
	Category        string     `json:"category,omitempty"`
	SyncIntervalMin int        `json:"sync_interval_min"`
	LastSyncAt      *time.Time `json:"last_sync_at,omitempty"`
	SyncStatus      string     `json:"sync_status"`
	SyncError       *string    `json:"sync_error,omitempty"`
	Enabled         bool       `json:"enabled"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Sync status constants.
const (
	SyncStatusPending = "pending"
	SyncStatusSyncing = "syncing"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// ToProvider converts the stored feed to the fetcher's input shape.
func (f *Feed) ToProvider() provider.Feed {
	return provider.Feed{
		ID:           f.ID,
		AccountID:    f.AccountID,
		CalendarID:   f.CalendarID,
		URL:          f.URL,
		CalendarType: engine.CalendarType(f.CalendarType),
		Category:     f.Category,
	}
}
