package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"marketboard-updater/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteMarketRepository implements MarketRepository using SQLite.
// Thread-safe with WAL mode; the default backend for development.
type SQLiteMarketRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteMarketRepository creates a new SQLite market repository.
// dbPath is the path to the SQLite database file (e.g., "./data/market.db")
func NewSQLiteMarketRepository(dbPath string) (*SQLiteMarketRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createMarketTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteMarketRepository] Initialized with database: %s", dbPath)
	return &SQLiteMarketRepository{db: db}, nil
}

func createMarketTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS market_records (
		server INTEGER NOT NULL,
		item INTEGER NOT NULL,
		document TEXT NOT NULL,
		updated INTEGER NOT NULL,
		PRIMARY KEY (server, item)
	);
	CREATE INDEX IF NOT EXISTS idx_market_updated ON market_records(updated);
	`
	_, err := db.Exec(query)
	return err
}

// Get returns the stored record, or nil when none exists yet.
func (r *SQLiteMarketRepository) Get(ctx context.Context, serverID, itemID int) (*model.MarketRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT document FROM market_records WHERE server = ? AND item = ?`

	var doc string
	err := r.db.QueryRowContext(ctx, query, serverID, itemID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market record: %w", err)
	}

	var rec model.MarketRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode market record: %w", err)
	}
	return &rec, nil
}

// Set persists a record, replacing any previous document.
func (r *SQLiteMarketRepository) Set(ctx context.Context, rec *model.MarketRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode market record: %w", err)
	}

	query := `
		INSERT INTO market_records (server, item, document, updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(server, item) DO UPDATE SET
			document = excluded.document,
			updated = excluded.updated`

	if _, err := r.db.ExecContext(ctx, query, rec.ServerID, rec.ItemID, string(doc), rec.Updated); err != nil {
		return fmt.Errorf("failed to set market record: %w", err)
	}
	return nil
}

// Summary returns an aggregate operational view of the store.
func (r *SQLiteMarketRepository) Summary(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_records`).Scan(&count); err != nil {
		return nil, err
	}
	summary["total_records"] = count

	var lastUpdated sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(updated) FROM market_records`).Scan(&lastUpdated); err == nil && lastUpdated.Valid {
		summary["last_updated"] = lastUpdated.Int64
	}

	return summary, nil
}

// Close closes the database connection.
func (r *SQLiteMarketRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteMarketRepository implements MarketRepository
var _ MarketRepository = (*SQLiteMarketRepository)(nil)
