package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/weekwise/backend/internal/api/middleware"
	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/storage/models"
)

// RuleRequest is the create/update body for a coverage rule.
type RuleRequest struct {
	Name               string   `json:"name"`
	SourceCalendars    []string `json:"source_calendars"`
	Pattern            string   `json:"pattern"`
	BeforeMinutes      int      `json:"before_minutes"`
	AfterMinutes       int      `json:"after_minutes"`
	CoverageCalendars  []string `json:"coverage_calendars"`
	MinOverlapFraction float64  `json:"min_overlap_fraction"`
	CreateAccountID    string   `json:"create_account_id"`
	CreateCalendarID   string   `json:"create_calendar_id"`
	OptOutMarkers      []string `json:"opt_out_markers"`
	Enabled            bool     `json:"enabled"`
}

func (req *RuleRequest) toModel(id string) *models.CoverageRule {
	return &models.CoverageRule{
		ID:                 id,
		Name:               req.Name,
		SourceCalendars:    req.SourceCalendars,
		Pattern:            req.Pattern,
		BeforeMinutes:      req.BeforeMinutes,
		AfterMinutes:       req.AfterMinutes,
		CoverageCalendars:  req.CoverageCalendars,
		MinOverlapFraction: req.MinOverlapFraction,
		CreateAccountID:    req.CreateAccountID,
		CreateCalendarID:   req.CreateCalendarID,
		OptOutMarkers:      req.OptOutMarkers,
		Enabled:            req.Enabled,
	}
}

// ListRules returns all coverage rules.
func ListRules(ruleRepo *storage.RuleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := ruleRepo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query rules")
			return
		}
		if rules == nil {
			rules = []models.CoverageRule{}
		}
		writeJSON(w, http.StatusOK, rules)
	}
}

// CreateRule adds a new coverage rule.
func CreateRule(ruleRepo *storage.RuleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		rule := req.toModel("")
		if eng := rule.ToEngine(); eng.Validate() != nil {
			middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid rule", eng.Validate().Error())
			return
		}

		if err := ruleRepo.Create(r.Context(), rule); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create rule")
			return
		}
		writeJSON(w, http.StatusCreated, rule)
	}
}

// GetRule returns a single coverage rule by ID.
func GetRule(ruleRepo *storage.RuleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rule, err := ruleRepo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query rule")
			return
		}
		if rule == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Rule not found")
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

// UpdateRule rewrites an existing coverage rule.
func UpdateRule(ruleRepo *storage.RuleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		var req RuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		existing, err := ruleRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query rule")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Rule not found")
			return
		}

		rule := req.toModel(id)
		rule.CreatedAt = existing.CreatedAt
		if eng := rule.ToEngine(); eng.Validate() != nil {
			middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid rule", eng.Validate().Error())
			return
		}

		if err := ruleRepo.Update(ctx, rule); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update rule")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteRule removes a coverage rule.
func DeleteRule(ruleRepo *storage.RuleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		existing, err := ruleRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query rule")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Rule not found")
			return
		}

		if err := ruleRepo.Delete(ctx, id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete rule")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
