package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/weekwise/backend/internal/api/middleware"
	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/storage/models"
)

// GoalRequest is the create/update body for a weekly time goal.
type GoalRequest struct {
	Name          string `json:"name"`
	TargetMinutes int    `json:"target_minutes"`
	MinMinutes    int    `json:"min_minutes"`
	MaxMinutes    int    `json:"max_minutes"`
	Preferred     string `json:"preferred"`
	Priority      int    `json:"priority"`
	Category      string `json:"category"`
	Enabled       bool   `json:"enabled"`
}

func (req *GoalRequest) toModel(id string) *models.Goal {
	return &models.Goal{
		ID:            id,
		Name:          req.Name,
		TargetMinutes: req.TargetMinutes,
		MinMinutes:    req.MinMinutes,
		MaxMinutes:    req.MaxMinutes,
		Preferred:     req.Preferred,
		Priority:      req.Priority,
		Category:      req.Category,
		Enabled:       req.Enabled,
	}
}

// ListGoals returns all goals.
func ListGoals(goalRepo *storage.GoalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		goals, err := goalRepo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query goals")
			return
		}
		if goals == nil {
			goals = []models.Goal{}
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

// CreateGoal adds a new goal.
func CreateGoal(goalRepo *storage.GoalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GoalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		goal := req.toModel("")
		if eng := goal.ToEngine(); eng.Validate() != nil {
			middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid goal", eng.Validate().Error())
			return
		}

		if err := goalRepo.Create(r.Context(), goal); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create goal")
			return
		}
		writeJSON(w, http.StatusCreated, goal)
	}
}

// GetGoal returns a single goal by ID.
func GetGoal(goalRepo *storage.GoalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		goal, err := goalRepo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query goal")
			return
		}
		if goal == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Goal not found")
			return
		}
		writeJSON(w, http.StatusOK, goal)
	}
}

// UpdateGoal rewrites an existing goal.
func UpdateGoal(goalRepo *storage.GoalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		var req GoalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		existing, err := goalRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query goal")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Goal not found")
			return
		}

		goal := req.toModel(id)
		goal.CreatedAt = existing.CreatedAt
		if eng := goal.ToEngine(); eng.Validate() != nil {
			middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid goal", eng.Validate().Error())
			return
		}

		if err := goalRepo.Update(ctx, goal); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update goal")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteGoal removes a goal.
func DeleteGoal(goalRepo *storage.GoalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		existing, err := goalRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query goal")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Goal not found")
			return
		}

		if err := goalRepo.Delete(ctx, id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete goal")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
