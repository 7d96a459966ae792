package handlers

import (
	"errors"
	"net/http"

	"github.com/weekwise/backend/internal/api/middleware"
	"github.com/weekwise/backend/internal/engine"
	"github.com/weekwise/backend/internal/planner"
	"github.com/weekwise/backend/internal/storage"
)

// RunAnalysis triggers a full analysis cycle and returns the report. The
// request blocks until the feeds are fetched and the engine has run.
func RunAnalysis(service *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := service.RunAnalysis(r.Context())
		if err != nil {
			var cfgErr *engine.ConfigError
			if errors.As(err, &cfgErr) {
				middleware.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, middleware.ErrValidation, "Configuration rejected by the engine", cfgErr.Error())
				return
			}
			middleware.WriteErrorWithDetails(w, http.StatusInternalServerError, middleware.ErrInternalError, "Analysis failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// LatestAnalysis returns the most recent report. The full engine result is
// only held in memory; after a restart only the persisted summary remains.
func LatestAnalysis(service *planner.Service, runRepo *storage.RunRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if report := service.LatestReport(); report != nil {
			writeJSON(w, http.StatusOK, report)
			return
		}

		run, err := runRepo.Latest(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query analysis runs")
			return
		}
		if run == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No analysis has run yet")
			return
		}
		writeJSON(w, http.StatusOK, planner.Report{Run: *run})
	}
}
