// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	FeedsCount       int        `json:"feeds_count"`
	GoalsCount       int        `json:"goals_count"`
	RulesCount       int        `json:"rules_count"`
	DecisionsCount   int        `json:"decisions_count"`
	CoverageLinks    int        `json:"coverage_links"`
	ConnectedClients int        `json:"connected_clients"`
	LastAnalysisAt   *time.Time `json:"last_analysis_at,omitempty"`
}

// Status returns a handler that reports stored-object counts and the time
// of the most recent analysis.
func Status(db *storage.DB, hub *websocket.Hub, runRepo *storage.RunRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var resp StatusResponse
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&resp.FeedsCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM goals").Scan(&resp.GoalsCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM coverage_rules").Scan(&resp.RulesCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conflict_decisions").Scan(&resp.DecisionsCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM coverage_links").Scan(&resp.CoverageLinks)

		if hub != nil {
			resp.ConnectedClients = hub.ClientCount()
		}
		if run, err := runRepo.Latest(ctx); err == nil && run != nil {
			resp.LastAnalysisAt = &run.RanAt
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
