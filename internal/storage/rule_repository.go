package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/weekwise/backend/internal/storage/models"
)

// RuleRepository provides data access for coverage rules. String-slice
// fields are stored as JSON arrays in TEXT columns.
type RuleRepository struct {
	BaseRepository
}

// NewRuleRepository creates a new coverage rule repository.
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{BaseRepository: NewBaseRepository(db)}
}

const ruleColumns = `id, name, source_calendars, pattern, before_minutes, after_minutes,
	coverage_calendars, min_overlap_fraction, create_account_id, create_calendar_id,
	opt_out_markers, enabled, created_at, updated_at`

// Create inserts a new coverage rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.CoverageRule) error {
	if rule.ID == "" {
		rule.ID = GenerateID()
	}
	rule.CreatedAt = r.Now()
	rule.UpdatedAt = r.Now()

	sources, coverage, markers, err := encodeRuleLists(rule)
	if err != nil {
		return err
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO coverage_rules (
			id, name, source_calendars, pattern, before_minutes, after_minutes,
			coverage_calendars, min_overlap_fraction, create_account_id,
			create_calendar_id, opt_out_markers, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.ID, rule.Name, sources, rule.Pattern, rule.BeforeMinutes, rule.AfterMinutes,
		coverage, rule.MinOverlapFraction, rule.CreateAccountID, rule.CreateCalendarID,
		markers, rule.Enabled, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting coverage rule: %w", err)
	}
	return nil
}

// GetByID retrieves a rule by its ID. Returns nil when not found.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.CoverageRule, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM coverage_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying coverage rule: %w", err)
	}
	return rule, nil
}

// List retrieves all coverage rules ordered by name.
func (r *RuleRepository) List(ctx context.Context) ([]models.CoverageRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM coverage_rules ORDER BY name`)
}

// ListEnabled retrieves the rules that participate in evaluation.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]models.CoverageRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM coverage_rules WHERE enabled = 1 ORDER BY name`)
}

func (r *RuleRepository) list(ctx context.Context, query string) ([]models.CoverageRule, error) {
	rows, err := r.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying coverage rules: %w", err)
	}
	defer rows.Close()

	var rules []models.CoverageRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning coverage rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// Update rewrites a rule's mutable fields.
func (r *RuleRepository) Update(ctx context.Context, rule *models.CoverageRule) error {
	rule.UpdatedAt = r.Now()
	sources, coverage, markers, err := encodeRuleLists(rule)
	if err != nil {
		return err
	}

	_, err = r.DB().ExecContext(ctx, `
		UPDATE coverage_rules SET name = ?, source_calendars = ?, pattern = ?,
			before_minutes = ?, after_minutes = ?, coverage_calendars = ?,
			min_overlap_fraction = ?, create_account_id = ?, create_calendar_id = ?,
			opt_out_markers = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`,
		rule.Name, sources, rule.Pattern, rule.BeforeMinutes, rule.AfterMinutes,
		coverage, rule.MinOverlapFraction, rule.CreateAccountID, rule.CreateCalendarID,
		markers, rule.Enabled, rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("updating coverage rule: %w", err)
	}
	return nil
}

// Delete removes a coverage rule and its links.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	return r.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM coverage_links WHERE rule_id = ?`, id); err != nil {
			return fmt.Errorf("deleting rule links: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM coverage_rules WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting coverage rule: %w", err)
		}
		return nil
	})
}

func encodeRuleLists(rule *models.CoverageRule) (sources, coverage, markers string, err error) {
	encode := func(list []string) (string, error) {
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		return string(b), err
	}
	if sources, err = encode(rule.SourceCalendars); err != nil {
		return "", "", "", fmt.Errorf("encoding source calendars: %w", err)
	}
	if coverage, err = encode(rule.CoverageCalendars); err != nil {
		return "", "", "", fmt.Errorf("encoding coverage calendars: %w", err)
	}
	if markers, err = encode(rule.OptOutMarkers); err != nil {
		return "", "", "", fmt.Errorf("encoding opt-out markers: %w", err)
	}
	return sources, coverage, markers, nil
}

func scanRule(row rowScanner) (*models.CoverageRule, error) {
	rule := &models.CoverageRule{}
	var sources, coverage, markers string
	err := row.Scan(
		&rule.ID, &rule.Name, &sources, &rule.Pattern,
		&rule.BeforeMinutes, &rule.AfterMinutes, &coverage,
		&rule.MinOverlapFraction, &rule.CreateAccountID, &rule.CreateCalendarID,
		&markers, &rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sources), &rule.SourceCalendars); err != nil {
		return nil, fmt.Errorf("decoding source calendars: %w", err)
	}
	if err := json.Unmarshal([]byte(coverage), &rule.CoverageCalendars); err != nil {
		return nil, fmt.Errorf("decoding coverage calendars: %w", err)
	}
	if err := json.Unmarshal([]byte(markers), &rule.OptOutMarkers); err != nil {
		return nil, fmt.Errorf("decoding opt-out markers: %w", err)
	}
	return rule, nil
}
