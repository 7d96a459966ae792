package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/weekwise/backend/internal/api/middleware"
	"github.com/weekwise/backend/internal/planner"
	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/storage/models"
)

// DecisionRequest is the body for accepting an attendance choice.
type DecisionRequest struct {
	GroupKey  string   `json:"group_key"`
	ChosenIDs []string `json:"chosen_ids"`
}

// DecideConflict records the attendance choice for one overlap group from
// the latest analysis and returns the computed time split.
func DecideConflict(service *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.GroupKey == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Group key is required")
			return
		}

		decision, err := service.DecideConflict(r.Context(), req.GroupKey, req.ChosenIDs)
		if err != nil {
			status := http.StatusInternalServerError
			code := middleware.ErrInternalError
			if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "not in group") {
				status, code = http.StatusBadRequest, middleware.ErrValidation
			}
			middleware.WriteErrorWithDetails(w, status, code, "Failed to record decision", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, decision)
	}
}

// CoverageLinkRequest is the body for accepting a coverage proposal.
type CoverageLinkRequest struct {
	RuleID          string `json:"rule_id"`
	TriggerEventID  string `json:"trigger_event_id"`
	CoverageEventID string `json:"coverage_event_id"`
}

// AcceptCoverage records the coverage event the user created for a
// missing-coverage proposal.
func AcceptCoverage(service *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CoverageLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		link, err := service.AcceptCoverage(r.Context(), req.RuleID, req.TriggerEventID, req.CoverageEventID)
		if err != nil {
			middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, "Failed to record coverage link", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}

// ListCoverageLinks returns every stored trigger/coverage association.
func ListCoverageLinks(decisionRepo *storage.DecisionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := decisionRepo.ListCoverageLinks(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query coverage links")
			return
		}
		if links == nil {
			links = []models.CoverageLink{}
		}
		writeJSON(w, http.StatusOK, links)
	}
}

// DeleteCoverageLink removes a link, typically after the user resolves an
// orphan proposal by deleting the coverage event.
func DeleteCoverageLink(decisionRepo *storage.DecisionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := decisionRepo.DeleteCoverageLink(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete coverage link")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
