package repository

import (
	"context"
	"database/sql"
	"fmt"

	"marketboard-updater/internal/model"
)

// MySQLWorkUnitRepository implements WorkUnitRepository using MySQL.
type MySQLWorkUnitRepository struct {
	db *sql.DB
}

// NewMySQLWorkUnitRepository creates a new MySQL work unit repository.
func NewMySQLWorkUnitRepository(db *sql.DB) *MySQLWorkUnitRepository {
	return &MySQLWorkUnitRepository{db: db}
}

// DeleteAll discards every work unit from the prior cycle.
func (r *MySQLWorkUnitRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM work_units`); err != nil {
		return fmt.Errorf("failed to clear work units: %w", err)
	}
	return nil
}

// Insert appends work units for the current cycle.
func (r *MySQLWorkUnitRepository) Insert(ctx context.Context, units []model.WorkUnit) error {
	if len(units) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO work_units (tracked_id, item, server, priority, region, bucket)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, u := range units {
		if _, err := stmt.ExecContext(ctx, u.TrackedID, u.ItemID, u.ServerID, u.Priority, u.Region, u.Bucket); err != nil {
			return fmt.Errorf("failed to insert work unit %d: %w", u.TrackedID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListByBucket returns the work units assigned to one bucket.
func (r *MySQLWorkUnitRepository) ListByBucket(ctx context.Context, bucket int) ([]model.WorkUnit, error) {
	query := `
		SELECT tracked_id, item, server, priority, region, bucket
		FROM work_units
		WHERE bucket = ?`

	rows, err := r.db.QueryContext(ctx, query, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list work units: %w", err)
	}
	defer rows.Close()

	var units []model.WorkUnit
	for rows.Next() {
		var u model.WorkUnit
		if err := rows.Scan(&u.TrackedID, &u.ItemID, &u.ServerID, &u.Priority, &u.Region, &u.Bucket); err != nil {
			return nil, fmt.Errorf("failed to scan work unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// QueueSizes returns the current queue depth per priority tier.
func (r *MySQLWorkUnitRepository) QueueSizes(ctx context.Context) (map[int]int64, error) {
	query := `SELECT priority, COUNT(*) FROM work_units GROUP BY priority`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue sizes: %w", err)
	}
	defer rows.Close()

	sizes := make(map[int]int64)
	for rows.Next() {
		var priority int
		var total int64
		if err := rows.Scan(&priority, &total); err != nil {
			return nil, fmt.Errorf("failed to scan queue size: %w", err)
		}
		sizes[priority] = total
	}
	return sizes, rows.Err()
}

// Ensure MySQLWorkUnitRepository implements WorkUnitRepository
var _ WorkUnitRepository = (*MySQLWorkUnitRepository)(nil)
