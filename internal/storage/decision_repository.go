package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/weekwise/backend/internal/storage/models"
)

// DecisionRepository provides data access for accepted conflict decisions
// and coverage links.
type DecisionRepository struct {
	BaseRepository
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *DB) *DecisionRepository {
	return &DecisionRepository{BaseRepository: NewBaseRepository(db)}
}

// SaveConflictDecision upserts the attendance choice for one overlap group.
// A re-decided group replaces its previous row.
func (r *DecisionRepository) SaveConflictDecision(ctx context.Context, d *models.ConflictDecision) error {
	if d.ID == "" {
		d.ID = GenerateID()
	}
	d.DecidedAt = r.Now()

	chosen, err := json.Marshal(d.ChosenIDs)
	if err != nil {
		return fmt.Errorf("encoding chosen ids: %w", err)
	}
	split := d.Split
	if split == nil {
		split = map[string]int{}
	}
	splitJSON, err := json.Marshal(split)
	if err != nil {
		return fmt.Errorf("encoding split: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO conflict_decisions (id, group_key, span_start, span_end, chosen_ids, split_json, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_key) DO UPDATE SET
			span_start = excluded.span_start,
			span_end = excluded.span_end,
			chosen_ids = excluded.chosen_ids,
			split_json = excluded.split_json,
			decided_at = excluded.decided_at
	`, d.ID, d.GroupKey, d.SpanStart, d.SpanEnd, string(chosen), string(splitJSON), d.DecidedAt)
	if err != nil {
		return fmt.Errorf("saving conflict decision: %w", err)
	}
	return nil
}

// GetConflictDecision retrieves the decision for a group key, or nil.
func (r *DecisionRepository) GetConflictDecision(ctx context.Context, groupKey string) (*models.ConflictDecision, error) {
	d := &models.ConflictDecision{}
	var chosen, split string
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, group_key, span_start, span_end, chosen_ids, split_json, decided_at
		FROM conflict_decisions WHERE group_key = ?
	`, groupKey).Scan(&d.ID, &d.GroupKey, &d.SpanStart, &d.SpanEnd, &chosen, &split, &d.DecidedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying conflict decision: %w", err)
	}
	if err := json.Unmarshal([]byte(chosen), &d.ChosenIDs); err != nil {
		return nil, fmt.Errorf("decoding chosen ids: %w", err)
	}
	if err := json.Unmarshal([]byte(split), &d.Split); err != nil {
		return nil, fmt.Errorf("decoding split: %w", err)
	}
	return d, nil
}

// SaveCoverageLink records the coverage event created for a trigger. A
// trigger re-covered under the same rule replaces its previous link.
func (r *DecisionRepository) SaveCoverageLink(ctx context.Context, l *models.CoverageLink) error {
	if l.ID == "" {
		l.ID = GenerateID()
	}
	l.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO coverage_links (id, rule_id, trigger_event_id, coverage_event_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(rule_id, trigger_event_id) DO UPDATE SET
			coverage_event_id = excluded.coverage_event_id,
			created_at = excluded.created_at
	`, l.ID, l.RuleID, l.TriggerEventID, l.CoverageEventID, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving coverage link: %w", err)
	}
	return nil
}

// ListCoverageLinks retrieves every known trigger/coverage association.
func (r *DecisionRepository) ListCoverageLinks(ctx context.Context) ([]models.CoverageLink, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, rule_id, trigger_event_id, coverage_event_id, created_at
		FROM coverage_links ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying coverage links: %w", err)
	}
	defer rows.Close()

	var links []models.CoverageLink
	for rows.Next() {
		var l models.CoverageLink
		if err := rows.Scan(&l.ID, &l.RuleID, &l.TriggerEventID, &l.CoverageEventID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning coverage link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// DeleteCoverageLink removes a stale link, typically after the user accepts
// an orphan proposal and deletes the coverage event.
func (r *DecisionRepository) DeleteCoverageLink(ctx context.Context, id string) error {
	if _, err := r.DB().ExecContext(ctx, `DELETE FROM coverage_links WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting coverage link: %w", err)
	}
	return nil
}
