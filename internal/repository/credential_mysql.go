package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"marketboard-updater/internal/model"
)

// MySQLCredentialRepository implements CredentialRepository using MySQL.
type MySQLCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a new MySQL credential repository.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}

// ListOnline returns all online credentials. Offline rows are skipped
// at the query level; their cool-down expiry is managed by the session
// subsystem, not by this pipeline.
func (r *MySQLCredentialRepository) ListOnline(ctx context.Context) ([]model.Credential, error) {
	query := `
		SELECT account, server, server_name, token, online, expiring, COALESCE(message, '')
		FROM credentials
		WHERE online = 1`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		var c model.Credential
		if err := rows.Scan(&c.Account, &c.ServerID, &c.Server, &c.Token, &c.Online, &c.Expiring, &c.Message); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// InvalidateServer marks every credential on a server offline with a
// cool-down expiry and clears the session tokens.
func (r *MySQLCredentialRepository) InvalidateServer(ctx context.Context, serverName, message string, expiring int64) error {
	query := `
		UPDATE credentials
		SET online = 0, message = ?, token = NULL, expiring = ?
		WHERE server_name = ?`

	res, err := r.db.ExecContext(ctx, query, "Auto Logout: "+message, expiring, serverName)
	if err != nil {
		return fmt.Errorf("failed to invalidate server %s: %w", serverName, err)
	}

	affected, _ := res.RowsAffected()
	log.Printf("[CredentialRepository] Invalidated %d credentials on %s: %s", affected, serverName, message)
	return nil
}

// InvalidateAccount marks a single account's credential offline.
func (r *MySQLCredentialRepository) InvalidateAccount(ctx context.Context, account, message string, expiring int64) error {
	query := `
		UPDATE credentials
		SET online = 0, message = ?, token = NULL, expiring = ?
		WHERE account = ?`

	if _, err := r.db.ExecContext(ctx, query, "Auto Logout: "+message, expiring, account); err != nil {
		return fmt.Errorf("failed to invalidate account %s: %w", account, err)
	}

	log.Printf("[CredentialRepository] Invalidated account %s: %s", account, message)
	return nil
}

// Ensure MySQLCredentialRepository implements CredentialRepository
var _ CredentialRepository = (*MySQLCredentialRepository)(nil)
