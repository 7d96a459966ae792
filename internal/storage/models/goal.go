package models

import (
	"time"

	"github.com/weekwise/backend/internal/engine"
)

// Goal is a persisted weekly time target.
type Goal struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TargetMinutes int       `json:"target_minutes"`
	MinMinutes    int       `json:"min_minutes"`
	MaxMinutes    int       `json:"max_minutes"`
	Preferred     string    `json:"preferred"`
	Priority      int       `json:"priority"`
	Category      string    `json:"category"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToEngine converts the stored goal to the engine's input shape.
func (g *Goal) ToEngine() engine.Goal {
	return engine.Goal{
		ID:            g.ID,
		Name:          g.Name,
		TargetMinutes: g.TargetMinutes,
		MinMinutes:    g.MinMinutes,
		MaxMinutes:    g.MaxMinutes,
		Preferred:     engine.TimeOfDay(g.Preferred),
		Priority:      g.Priority,
		Category:      g.Category,
	}
}
