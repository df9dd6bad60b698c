package service

import (
	"context"
	"fmt"
	"log"

	"marketboard-updater/internal/config"
	"marketboard-updater/internal/dispatch"
	"marketboard-updater/internal/gameserver"
	"marketboard-updater/internal/model"
	"marketboard-updater/internal/repository"
)

// QueueBuilder partitions tracked items into priority-ordered buckets
// for one update cycle. The work unit set is replaced wholesale on
// every build so stale units from an aborted cycle cannot linger.
type QueueBuilder struct {
	items     repository.TrackedItemRepository
	queue     repository.WorkUnitRepository
	cfg       config.QueueConfig
	publisher dispatch.Publisher
}

// NewQueueBuilder creates a queue builder. publisher may be nil when
// buckets are drained by cron-style direct invocation instead of NATS.
func NewQueueBuilder(
	items repository.TrackedItemRepository,
	queue repository.WorkUnitRepository,
	cfg config.QueueConfig,
	publisher dispatch.Publisher,
) *QueueBuilder {
	return &QueueBuilder{
		items:     items,
		queue:     queue,
		cfg:       cfg,
		publisher: publisher,
	}
}

// BuildQueue builds the work unit set for the next cycle and returns
// the number of units queued.
func (b *QueueBuilder) BuildQueue(ctx context.Context) (int, error) {
	log.Printf("[QueueBuilder] Clearing out the queue")
	if err := b.queue.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("failed to clear queue: %w", err)
	}

	total := 0

	// Manual overrides jump the staleness ordering for one cycle.
	manual, err := b.items.ListManual(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list manual items: %w", err)
	}
	if len(manual) > 0 {
		byBucket := make(map[int][]model.TrackedItem)
		for _, item := range manual {
			byBucket[*item.ManualBucket] = append(byBucket[*item.ManualBucket], item)
		}
		for bucket, items := range byBucket {
			if err := b.enqueue(ctx, items, bucket); err != nil {
				return total, err
			}
			total += len(items)
		}
		log.Printf("[QueueBuilder] Queued %d manual override items", len(manual))
	}

	for _, priority := range b.cfg.Priorities {
		items, err := b.items.ListStalest(ctx, priority, b.cfg.BatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to select items for priority %d: %w", priority, err)
		}

		if len(items) == 0 {
			log.Printf("[QueueBuilder] No items for priority: %d", priority)
			continue
		}

		for i := 0; i*b.cfg.MaxPerBucket < len(items); i++ {
			start := i * b.cfg.MaxPerBucket
			end := start + b.cfg.MaxPerBucket
			if end > len(items) {
				end = len(items)
			}
			chunk := items[start:end]
			bucket := model.BucketID(priority, i)

			log.Printf("[QueueBuilder] Adding %d items for priority %d, consumer: %d", len(chunk), priority, i)
			if err := b.enqueue(ctx, chunk, bucket); err != nil {
				return total, err
			}
			total += len(chunk)

			if b.publisher != nil {
				msg := dispatch.BucketMessage{
					Bucket:   bucket,
					Priority: priority,
					Consumer: i,
					Items:    len(chunk),
				}
				if err := b.publisher.PublishBucket(ctx, msg); err != nil {
					log.Printf("[QueueBuilder] Failed to publish bucket %d: %v", bucket, err)
				}
			}
		}
	}

	log.Printf("[QueueBuilder] Done, queued %d items", total)
	return total, nil
}

// enqueue snapshots tracked items into one bucket's work units.
func (b *QueueBuilder) enqueue(ctx context.Context, items []model.TrackedItem, bucket int) error {
	units := make([]model.WorkUnit, len(items))
	for i, item := range items {
		units[i] = model.WorkUnit{
			TrackedID: item.ID,
			ItemID:    item.ItemID,
			ServerID:  item.ServerID,
			Priority:  item.Priority,
			Region:    item.Region,
			Bucket:    bucket,
		}
	}
	if err := b.queue.Insert(ctx, units); err != nil {
		return fmt.Errorf("failed to insert bucket %d: %w", bucket, err)
	}
	return nil
}

// RequestManualUpdate marks an item for a one-shot update on every
// server in the given server's data center. The override is cleared on
// the next successful update.
func (b *QueueBuilder) RequestManualUpdate(ctx context.Context, itemID, serverID, bucket int) error {
	serverName, err := gameserver.ServerName(serverID)
	if err != nil {
		return err
	}
	serverIDs, err := gameserver.DataCenterServerIDs(serverName)
	if err != nil {
		return err
	}
	return b.items.SetManualBucket(ctx, itemID, serverIDs, bucket)
}
