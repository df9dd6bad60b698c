package repository

import (
	"context"
	"database/sql"
	"fmt"

	"marketboard-updater/internal/model"
)

// MySQLTrackedItemRepository implements TrackedItemRepository using MySQL.
type MySQLTrackedItemRepository struct {
	db *sql.DB
}

// NewMySQLTrackedItemRepository creates a new MySQL tracked item repository.
func NewMySQLTrackedItemRepository(db *sql.DB) *MySQLTrackedItemRepository {
	return &MySQLTrackedItemRepository{db: db}
}

// ListStalest returns up to limit items for a tier, oldest updated first.
func (r *MySQLTrackedItemRepository) ListStalest(ctx context.Context, priority, limit int) ([]model.TrackedItem, error) {
	query := `
		SELECT id, item, server, priority, region, updated, priority_value, manual_bucket
		FROM tracked_items
		WHERE priority = ?
		ORDER BY updated ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, priority, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked items: %w", err)
	}
	defer rows.Close()

	var items []model.TrackedItem
	for rows.Next() {
		var item model.TrackedItem
		var manual sql.NullInt64
		if err := rows.Scan(&item.ID, &item.ItemID, &item.ServerID, &item.Priority,
			&item.Region, &item.Updated, &item.PriorityValue, &manual); err != nil {
			return nil, fmt.Errorf("failed to scan tracked item: %w", err)
		}
		if manual.Valid {
			b := int(manual.Int64)
			item.ManualBucket = &b
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkUpdated refreshes an item after a successful update.
func (r *MySQLTrackedItemRepository) MarkUpdated(ctx context.Context, id int64, updated, priorityValue int64, statusLog string) error {
	query := `
		UPDATE tracked_items
		SET updated = ?, priority_value = ?, manual_bucket = NULL, status_log = ?
		WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, updated, priorityValue, statusLog, id); err != nil {
		return fmt.Errorf("failed to mark item %d updated: %w", id, err)
	}
	return nil
}

// SetStatusLog overwrites the per-attempt status line for an item.
func (r *MySQLTrackedItemRepository) SetStatusLog(ctx context.Context, id int64, statusLog string) error {
	query := `UPDATE tracked_items SET status_log = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, statusLog, id); err != nil {
		return fmt.Errorf("failed to set status log for item %d: %w", id, err)
	}
	return nil
}

// SetManualBucket sets the one-shot bucket override on the given servers.
func (r *MySQLTrackedItemRepository) SetManualBucket(ctx context.Context, itemID int, serverIDs []int, bucket int) error {
	if len(serverIDs) == 0 {
		return nil
	}

	query := `UPDATE tracked_items SET manual_bucket = ? WHERE item = ? AND server IN (`
	args := []interface{}{bucket, itemID}
	for i, id := range serverIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set manual bucket for item %d: %w", itemID, err)
	}
	return nil
}

// ListManual returns items carrying a one-shot bucket override.
func (r *MySQLTrackedItemRepository) ListManual(ctx context.Context) ([]model.TrackedItem, error) {
	query := `
		SELECT id, item, server, priority, region, updated, priority_value, manual_bucket
		FROM tracked_items
		WHERE manual_bucket IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual items: %w", err)
	}
	defer rows.Close()

	var items []model.TrackedItem
	for rows.Next() {
		var item model.TrackedItem
		var manual sql.NullInt64
		if err := rows.Scan(&item.ID, &item.ItemID, &item.ServerID, &item.Priority,
			&item.Region, &item.Updated, &item.PriorityValue, &manual); err != nil {
			return nil, fmt.Errorf("failed to scan tracked item: %w", err)
		}
		if manual.Valid {
			b := int(manual.Int64)
			item.ManualBucket = &b
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdatedBounds returns the newest and oldest updated timestamps in a tier.
func (r *MySQLTrackedItemRepository) UpdatedBounds(ctx context.Context, priority int) (int64, int64, error) {
	query := `SELECT COALESCE(MAX(updated), 0), COALESCE(MIN(updated), 0) FROM tracked_items WHERE priority = ?`

	var newest, oldest int64
	if err := r.db.QueryRowContext(ctx, query, priority).Scan(&newest, &oldest); err != nil {
		return 0, 0, fmt.Errorf("failed to get updated bounds: %w", err)
	}
	return newest, oldest, nil
}

// Ensure MySQLTrackedItemRepository implements TrackedItemRepository
var _ TrackedItemRepository = (*MySQLTrackedItemRepository)(nil)
