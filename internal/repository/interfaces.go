package repository

import (
	"context"

	"marketboard-updater/internal/model"
)

// TrackedItemRepository defines tracked item data access methods.
type TrackedItemRepository interface {
	// ListStalest returns up to limit items for a priority tier,
	// least-recently-updated first.
	ListStalest(ctx context.Context, priority, limit int) ([]model.TrackedItem, error)

	// MarkUpdated refreshes the item after a successful fetch: new
	// updated timestamp, new priority value, manual override cleared,
	// status log line persisted.
	MarkUpdated(ctx context.Context, id int64, updated, priorityValue int64, statusLog string) error

	// SetStatusLog overwrites the per-attempt status line for an item.
	SetStatusLog(ctx context.Context, id int64, statusLog string) error

	// SetManualBucket sets the one-shot bucket override for an item on
	// the given servers.
	SetManualBucket(ctx context.Context, itemID int, serverIDs []int, bucket int) error

	// ListManual returns items carrying a one-shot bucket override.
	ListManual(ctx context.Context) ([]model.TrackedItem, error)

	// UpdatedBounds returns the newest and oldest updated timestamps in
	// a tier.
	UpdatedBounds(ctx context.Context, priority int) (newest, oldest int64, err error)
}

// WorkUnitRepository defines work unit queue access methods. The work
// unit set is replaced wholesale each cycle.
type WorkUnitRepository interface {
	// DeleteAll discards every work unit from the prior cycle.
	DeleteAll(ctx context.Context) error

	// Insert appends work units for the current cycle.
	Insert(ctx context.Context, units []model.WorkUnit) error

	// ListByBucket returns the work units assigned to one bucket.
	ListByBucket(ctx context.Context, bucket int) ([]model.WorkUnit, error)

	// QueueSizes returns the current queue depth per priority tier.
	QueueSizes(ctx context.Context) (map[int]int64, error)
}

// CredentialRepository defines provider session access methods. The
// worker reads and invalidates; it never creates sessions.
type CredentialRepository interface {
	// ListOnline returns all online credentials.
	ListOnline(ctx context.Context) ([]model.Credential, error)

	// InvalidateServer marks every credential on a server offline with
	// a cool-down expiry and clears the session tokens.
	InvalidateServer(ctx context.Context, serverName, message string, expiring int64) error

	// InvalidateAccount does the same for a single account.
	InvalidateAccount(ctx context.Context, account, message string, expiring int64) error
}

// CompletionRecordRepository stores throughput calibration records.
type CompletionRecordRepository interface {
	Insert(ctx context.Context, priority int, added int64) error

	// ListByPriority returns records for a tier, newest first.
	ListByPriority(ctx context.Context, priority int) ([]model.CompletionRecord, error)

	// CountAll returns the total number of records.
	CountAll(ctx context.Context) (int64, error)

	// DeleteOlderThan purges records added before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// TraderRepository resolves buyer/seller names to internal ids,
// creating rows on first sight. Treated as an idempotent upsert.
type TraderRepository interface {
	GetOrCreateRetainer(ctx context.Context, serverID int, name string) (string, error)
	GetOrCreateCharacter(ctx context.Context, serverID int, name string) (string, error)
}

// MarketRepository stores market record documents per (server, item).
type MarketRepository interface {
	// Get returns the stored record, or nil when none exists yet.
	Get(ctx context.Context, serverID, itemID int) (*model.MarketRecord, error)

	// Set persists a record, replacing any previous document.
	Set(ctx context.Context, rec *model.MarketRecord) error

	// Summary returns an aggregate operational view of the store.
	Summary(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
