package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/weekwise/backend/internal/storage/models"
)

// RunRepository provides data access for analysis run summaries.
type RunRepository struct {
	BaseRepository
}

// NewRunRepository creates a new analysis run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts an analysis run summary.
func (r *RunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	if run.ID == "" {
		run.ID = GenerateID()
	}
	run.RanAt = r.Now()

	failed := run.FailedFeeds
	if failed == nil {
		failed = []string{}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("encoding failed feeds: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id, range_start, range_end, event_count, group_count,
			gap_count, slot_count, overall_score, failed_feeds, ran_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.RangeStart, run.RangeEnd, run.EventCount, run.GroupCount,
		run.GapCount, run.SlotCount, run.OverallScore, string(failedJSON), run.RanAt,
	)
	if err != nil {
		return fmt.Errorf("inserting analysis run: %w", err)
	}
	return nil
}

// Latest retrieves the most recent run summary, or nil when none exist.
func (r *RunRepository) Latest(ctx context.Context) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{}
	var failed string
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, range_start, range_end, event_count, group_count,
			gap_count, slot_count, overall_score, failed_feeds, ran_at
		FROM analysis_runs ORDER BY ran_at DESC LIMIT 1
	`).Scan(
		&run.ID, &run.RangeStart, &run.RangeEnd, &run.EventCount, &run.GroupCount,
		&run.GapCount, &run.SlotCount, &run.OverallScore, &failed, &run.RanAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	if err := json.Unmarshal([]byte(failed), &run.FailedFeeds); err != nil {
		return nil, fmt.Errorf("decoding failed feeds: %w", err)
	}
	return run, nil
}
