package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/weekwise/backend/internal/storage/models"
)

// FeedRepository provides data access for ICS feed subscriptions.
type FeedRepository struct {
	BaseRepository
}

// NewFeedRepository creates a new feed repository.
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{BaseRepository: NewBaseRepository(db)}
}

const feedColumns = `id, account_id, calendar_id, name, url, calendar_type, category,
	sync_interval_min, last_sync_at, sync_status, sync_error, enabled, created_at, updated_at`

// Create inserts a new feed subscription.
func (r *FeedRepository) Create(ctx context.Context, feed *models.Feed) error {
	if feed.ID == "" {
		feed.ID = GenerateID()
	}
	feed.CreatedAt = r.Now()
	feed.UpdatedAt = r.Now()
	feed.SyncStatus = models.SyncStatusPending

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO feeds (
			id, account_id, calendar_id, name, url, calendar_type, category,
			sync_interval_min, sync_status, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		feed.ID, feed.AccountID, feed.CalendarID, feed.Name, feed.URL,
		feed.CalendarType, feed.Category, feed.SyncIntervalMin,
		feed.SyncStatus, feed.Enabled, feed.CreatedAt, feed.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting feed: %w", err)
	}
	return nil
}

// GetByID retrieves a feed by its ID. Returns nil when not found.
func (r *FeedRepository) GetByID(ctx context.Context, id string) (*models.Feed, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)
	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	return feed, nil
}

// List retrieves all feed subscriptions ordered by name.
func (r *FeedRepository) List(ctx context.Context) ([]models.Feed, error) {
	return r.list(ctx, `SELECT `+feedColumns+` FROM feeds ORDER BY name`)
}

// ListEnabled retrieves all enabled feeds.
func (r *FeedRepository) ListEnabled(ctx context.Context) ([]models.Feed, error) {
	return r.list(ctx, `SELECT `+feedColumns+` FROM feeds WHERE enabled = 1 ORDER BY name`)
}

func (r *FeedRepository) list(ctx context.Context, query string) ([]models.Feed, error) {
	rows, err := r.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying feeds: %w", err)
	}
	defer rows.Close()

	var feeds []models.Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, *feed)
	}
	return feeds, rows.Err()
}

// Update rewrites a feed's mutable fields.
func (r *FeedRepository) Update(ctx context.Context, feed *models.Feed) error {
	feed.UpdatedAt = r.Now()
	_, err := r.DB().ExecContext(ctx, `
		UPDATE feeds SET account_id = ?, calendar_id = ?, name = ?, url = ?,
			calendar_type = ?, category = ?, sync_interval_min = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`,
		feed.AccountID, feed.CalendarID, feed.Name, feed.URL,
		feed.CalendarType, feed.Category, feed.SyncIntervalMin,
		feed.Enabled, feed.UpdatedAt, feed.ID,
	)
	if err != nil {
		return fmt.Errorf("updating feed: %w", err)
	}
	return nil
}

// UpdateSyncStatus records the outcome of a sync attempt.
func (r *FeedRepository) UpdateSyncStatus(ctx context.Context, id, status string, syncError *string) error {
	now := r.Now()
	var lastSync any
	if status == models.SyncStatusSuccess {
		lastSync = now
	}
	_, err := r.DB().ExecContext(ctx, `
		UPDATE feeds SET sync_status = ?, sync_error = ?, updated_at = ?,
			last_sync_at = COALESCE(?, last_sync_at)
		WHERE id = ?
	`, status, syncError, now, lastSync, id)
	if err != nil {
		return fmt.Errorf("updating sync status: %w", err)
	}
	return nil
}

// Delete removes a feed subscription.
func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB().ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting feed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*models.Feed, error) {
	feed := &models.Feed{}
	err := row.Scan(
		&feed.ID, &feed.AccountID, &feed.CalendarID, &feed.Name, &feed.URL,
		&feed.CalendarType, &feed.Category, &feed.SyncIntervalMin,
		&feed.LastSyncAt, &feed.SyncStatus, &feed.SyncError,
		&feed.Enabled, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return feed, nil
}
