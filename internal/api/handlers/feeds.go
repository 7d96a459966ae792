package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/weekwise/backend/internal/api/middleware"
	"github.com/weekwise/backend/internal/engine"
	"github.com/weekwise/backend/internal/planner"
	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/storage/models"
)

// FeedRequest is the create/update body for an ICS feed subscription.
type FeedRequest struct {
	AccountID       string `json:"account_id"`
	CalendarID      string `json:"calendar_id"`
	Name            string `json:"name"`
	URL             string `json:"url"`
	CalendarType    string `json:"calendar_type"`
	Category        string `json:"category"`
	SyncIntervalMin int    `json:"sync_interval_min"`
	Enabled         bool   `json:"enabled"`
}

func (req *FeedRequest) validate() string {
	if req.Name == "" || req.URL == "" {
		return "Name and URL are required"
	}
	if req.AccountID == "" || req.CalendarID == "" {
		return "Account ID and calendar ID are required"
	}
	if !engine.CalendarType(req.CalendarType).Valid() {
		return "Calendar type must be active, blocking, availability, or reference"
	}
	return ""
}

// ListFeeds returns all feed subscriptions.
func ListFeeds(feedRepo *storage.FeedRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feeds, err := feedRepo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query feeds")
			return
		}
		if feeds == nil {
			feeds = []models.Feed{}
		}
		writeJSON(w, http.StatusOK, feeds)
	}
}

// CreateFeed adds a new feed subscription and schedules its refresh.
func CreateFeed(feedRepo *storage.FeedRepository, scheduler *planner.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}
		if req.SyncIntervalMin < 5 {
			req.SyncIntervalMin = 15
		}

		feed := &models.Feed{
			AccountID:       req.AccountID,
			CalendarID:      req.CalendarID,
			Name:            req.Name,
			URL:             req.URL,
			CalendarType:    req.CalendarType,
			Category:        req.Category,
			SyncIntervalMin: req.SyncIntervalMin,
			Enabled:         req.Enabled,
		}
		if err := feedRepo.Create(r.Context(), feed); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create feed")
			return
		}

		if scheduler != nil && feed.Enabled {
			scheduler.ScheduleFeed(*feed)
		}

		writeJSON(w, http.StatusCreated, feed)
	}
}

// GetFeed returns a single feed by ID.
func GetFeed(feedRepo *storage.FeedRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := feedRepo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query feed")
			return
		}
		if feed == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Feed not found")
			return
		}
		writeJSON(w, http.StatusOK, feed)
	}
}

// UpdateFeed rewrites a feed and reschedules its refresh.
func UpdateFeed(feedRepo *storage.FeedRepository, scheduler *planner.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		var req FeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		feed, err := feedRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query feed")
			return
		}
		if feed == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Feed not found")
			return
		}

		feed.AccountID = req.AccountID
		feed.CalendarID = req.CalendarID
		feed.Name = req.Name
		feed.URL = req.URL
		feed.CalendarType = req.CalendarType
		feed.Category = req.Category
		feed.SyncIntervalMin = req.SyncIntervalMin
		feed.Enabled = req.Enabled

		if err := feedRepo.Update(ctx, feed); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update feed")
			return
		}

		if scheduler != nil {
			scheduler.ScheduleFeed(*feed)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteFeed removes a feed subscription and unschedules it.
func DeleteFeed(feedRepo *storage.FeedRepository, scheduler *planner.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		feed, err := feedRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query feed")
			return
		}
		if feed == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Feed not found")
			return
		}

		if err := feedRepo.Delete(ctx, id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete feed")
			return
		}

		if scheduler != nil {
			scheduler.UnscheduleFeed(id)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// RefreshFeed triggers an immediate fetch of one feed. The response returns
// once the fetch completes so the caller sees the outcome directly.
func RefreshFeed(service *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		count, err := service.SyncFeed(r.Context(), id)
		if err != nil {
			middleware.WriteErrorWithDetails(w, http.StatusBadGateway, middleware.ErrInternalError, "Feed refresh failed", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "success",
			"events_found": count,
		})
	}
}
