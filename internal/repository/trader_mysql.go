package repository

import (
	"context"
	"database/sql"
	"fmt"

	"marketboard-updater/pkg/uid"
)

// MySQLTraderRepository implements TraderRepository using MySQL. It
// resolves retainer (seller) and character (buyer) names seen in market
// data to stable internal ids, creating rows on first sight.
type MySQLTraderRepository struct {
	db *sql.DB
}

// NewMySQLTraderRepository creates a new MySQL trader repository.
func NewMySQLTraderRepository(db *sql.DB) *MySQLTraderRepository {
	return &MySQLTraderRepository{db: db}
}

// GetOrCreateRetainer resolves a retainer name on a server to its id.
func (r *MySQLTraderRepository) GetOrCreateRetainer(ctx context.Context, serverID int, name string) (string, error) {
	return r.getOrCreate(ctx, "retainers", serverID, name)
}

// GetOrCreateCharacter resolves a character name on a server to its id.
func (r *MySQLTraderRepository) GetOrCreateCharacter(ctx context.Context, serverID int, name string) (string, error) {
	return r.getOrCreate(ctx, "characters", serverID, name)
}

// getOrCreate is a read-then-insert upsert. Both tables carry a
// UNIQUE(name, server) index, so a lost race surfaces as a duplicate
// key error and is resolved by re-reading.
func (r *MySQLTraderRepository) getOrCreate(ctx context.Context, table string, serverID int, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	selectQuery := `SELECT id FROM ` + table + ` WHERE name = ? AND server = ? LIMIT 1`

	var id string
	err := r.db.QueryRowContext(ctx, selectQuery, name, serverID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up %s %q: %w", table, name, err)
	}

	id = uid.New()
	insertQuery := `INSERT INTO ` + table + ` (id, name, server, added) VALUES (?, ?, ?, UNIX_TIMESTAMP())`
	if _, err := r.db.ExecContext(ctx, insertQuery, id, name, serverID); err != nil {
		// Lost the create race; the row exists now.
		if rerr := r.db.QueryRowContext(ctx, selectQuery, name, serverID).Scan(&id); rerr == nil {
			return id, nil
		}
		return "", fmt.Errorf("failed to create %s %q: %w", table, name, err)
	}

	return id, nil
}

// Ensure MySQLTraderRepository implements TraderRepository
var _ TraderRepository = (*MySQLTraderRepository)(nil)
