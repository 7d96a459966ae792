package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/weekwise/backend/internal/storage/models"
)

// GoalRepository provides data access for weekly goals.
type GoalRepository struct {
	BaseRepository
}

// NewGoalRepository creates a new goal repository.
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{BaseRepository: NewBaseRepository(db)}
}

const goalColumns = `id, name, target_minutes, min_minutes, max_minutes,
	preferred, priority, category, enabled, created_at, updated_at`

// Create inserts a new goal.
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	if goal.ID == "" {
		goal.ID = GenerateID()
	}
	goal.CreatedAt = r.Now()
	goal.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO goals (
			id, name, target_minutes, min_minutes, max_minutes,
			preferred, priority, category, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		goal.ID, goal.Name, goal.TargetMinutes, goal.MinMinutes, goal.MaxMinutes,
		goal.Preferred, goal.Priority, goal.Category, goal.Enabled,
		goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	return nil
}

// GetByID retrieves a goal by its ID. Returns nil when not found.
func (r *GoalRepository) GetByID(ctx context.Context, id string) (*models.Goal, error) {
	goal := &models.Goal{}
	err := r.DB().QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id).Scan(
		&goal.ID, &goal.Name, &goal.TargetMinutes, &goal.MinMinutes, &goal.MaxMinutes,
		&goal.Preferred, &goal.Priority, &goal.Category, &goal.Enabled,
		&goal.CreatedAt, &goal.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying goal: %w", err)
	}
	return goal, nil
}

// List retrieves all goals ordered by priority, then name.
func (r *GoalRepository) List(ctx context.Context) ([]models.Goal, error) {
	return r.list(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY priority, name`)
}

// ListEnabled retrieves the goals that participate in allocation.
func (r *GoalRepository) ListEnabled(ctx context.Context) ([]models.Goal, error) {
	return r.list(ctx, `SELECT `+goalColumns+` FROM goals WHERE enabled = 1 ORDER BY priority, name`)
}

func (r *GoalRepository) list(ctx context.Context, query string) ([]models.Goal, error) {
	rows, err := r.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(
			&goal.ID, &goal.Name, &goal.TargetMinutes, &goal.MinMinutes, &goal.MaxMinutes,
			&goal.Preferred, &goal.Priority, &goal.Category, &goal.Enabled,
			&goal.CreatedAt, &goal.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// Update rewrites a goal's mutable fields.
func (r *GoalRepository) Update(ctx context.Context, goal *models.Goal) error {
	goal.UpdatedAt = r.Now()
	_, err := r.DB().ExecContext(ctx, `
		UPDATE goals SET name = ?, target_minutes = ?, min_minutes = ?, max_minutes = ?,
			preferred = ?, priority = ?, category = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`,
		goal.Name, goal.TargetMinutes, goal.MinMinutes, goal.MaxMinutes,
		goal.Preferred, goal.Priority, goal.Category, goal.Enabled,
		goal.UpdatedAt, goal.ID,
	)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	return nil
}

// Delete removes a goal.
func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB().ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	return nil
}
