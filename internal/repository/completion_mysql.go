package repository

import (
	"context"
	"database/sql"
	"fmt"

	"marketboard-updater/internal/model"
)

// MySQLCompletionRecordRepository implements CompletionRecordRepository using MySQL.
type MySQLCompletionRecordRepository struct {
	db *sql.DB
}

// NewMySQLCompletionRecordRepository creates a new MySQL completion record repository.
func NewMySQLCompletionRecordRepository(db *sql.DB) *MySQLCompletionRecordRepository {
	return &MySQLCompletionRecordRepository{db: db}
}

// Insert records one completed item update.
func (r *MySQLCompletionRecordRepository) Insert(ctx context.Context, priority int, added int64) error {
	query := `INSERT INTO completion_records (priority, added) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, priority, added); err != nil {
		return fmt.Errorf("failed to insert completion record: %w", err)
	}
	return nil
}

// ListByPriority returns records for a tier, newest first.
func (r *MySQLCompletionRecordRepository) ListByPriority(ctx context.Context, priority int) ([]model.CompletionRecord, error) {
	query := `SELECT id, priority, added FROM completion_records WHERE priority = ? ORDER BY added DESC`

	rows, err := r.db.QueryContext(ctx, query, priority)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion records: %w", err)
	}
	defer rows.Close()

	var records []model.CompletionRecord
	for rows.Next() {
		var rec model.CompletionRecord
		if err := rows.Scan(&rec.ID, &rec.Priority, &rec.Added); err != nil {
			return nil, fmt.Errorf("failed to scan completion record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountAll returns the total number of records.
func (r *MySQLCompletionRecordRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completion_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completion records: %w", err)
	}
	return count, nil
}

// DeleteOlderThan purges records added before the cutoff.
func (r *MySQLCompletionRecordRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM completion_records WHERE added < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge completion records: %w", err)
	}
	return res.RowsAffected()
}

// Ensure MySQLCompletionRecordRepository implements CompletionRecordRepository
var _ CompletionRecordRepository = (*MySQLCompletionRecordRepository)(nil)
