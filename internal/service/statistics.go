package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"marketboard-updater/internal/cache"
	"marketboard-updater/internal/config"
	"marketboard-updater/internal/metrics"
	"marketboard-updater/internal/model"
	"marketboard-updater/internal/repository"
)

// StatisticsService estimates pipeline throughput from recent
// completion records and caches the resulting snapshot.
type StatisticsService struct {
	items       repository.TrackedItemRepository
	queue       repository.WorkUnitRepository
	completions repository.CompletionRecordRepository
	market      repository.MarketRepository
	cache       cache.Cache
	queueCfg    config.QueueConfig
	statsCfg    config.StatsConfig

	now func() time.Time
}

// NewStatisticsService creates a statistics service. market may be nil
// when no store summary is wanted in the snapshot.
func NewStatisticsService(
	items repository.TrackedItemRepository,
	queue repository.WorkUnitRepository,
	completions repository.CompletionRecordRepository,
	market repository.MarketRepository,
	c cache.Cache,
	queueCfg config.QueueConfig,
	statsCfg config.StatsConfig,
) *StatisticsService {
	return &StatisticsService{
		items:       items,
		queue:       queue,
		completions: completions,
		market:      market,
		cache:       c,
		queueCfg:    queueCfg,
		statsCfg:    statsCfg,
		now:         time.Now,
	}
}

// ComputeAndCacheStatistics purges stale completion records, rebuilds
// the per-tier snapshot and writes it to the cache.
func (s *StatisticsService) ComputeAndCacheStatistics(ctx context.Context) (*model.StatisticsSnapshot, error) {
	now := s.now()

	purged, err := s.completions.DeleteOlderThan(ctx, now.Add(-s.statsCfg.Retention).Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to purge completion records: %w", err)
	}
	if purged > 0 {
		log.Printf("[Statistics] Purged %d stale completion records", purged)
	}

	count, err := s.completions.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count completion records: %w", err)
	}
	if count == 0 {
		log.Printf("[Statistics] No completion records inside the retention window, skipping")
		return nil, nil
	}

	spi, err := s.secondsPerItem(ctx)
	if err != nil {
		return nil, err
	}

	sizes, err := s.queue.QueueSizes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue sizes: %w", err)
	}

	snapshot := &model.StatisticsSnapshot{
		Generated:      now.Unix(),
		SecondsPerItem: spi,
		QueueSizes:     make(map[string]int64, len(sizes)),
	}

	var totalQueued int64
	for _, priority := range s.queueCfg.Priorities {
		size := sizes[priority]
		totalQueued += size
		snapshot.QueueSizes[strconv.Itoa(priority)] = size
		metrics.QueueDepth.WithLabelValues(strconv.Itoa(priority)).Set(float64(size))
		if size == 0 {
			continue
		}
		consumers := s.queueCfg.ConsumersFor(priority)
		newest, oldest, boundsErr := s.items.UpdatedBounds(ctx, priority)
		if boundsErr != nil {
			return nil, boundsErr
		}

		row := model.QueueStatistics{
			Name:            s.queueCfg.NameFor(priority),
			Priority:        priority,
			Consumers:       consumers,
			ItemUpdateSpeed: spi,
			TotalItems:      size,
			TotalRequests:   size * 4,
			UpdatedRecently: newest,
			UpdatedOldest:   oldest,
			CompletionTime:  renderDuration(completionSeconds(size, spi, consumers)),
		}
		snapshot.Queues = append(snapshot.Queues, row)
	}

	snapshot.QueueSizes["total"] = totalQueued

	if s.market != nil {
		summary, sumErr := s.market.Summary(ctx)
		if sumErr != nil {
			log.Printf("[Statistics] Failed to read market summary: %v", sumErr)
		} else {
			snapshot.Summary = summary
		}
	}

	if err := s.cacheSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	log.Printf("[Statistics] Snapshot generated: %.3f sec/item across %d tiers", spi, len(snapshot.Queues))
	return snapshot, nil
}

// GetStatistics returns the cached snapshot, or nil when none has been
// generated inside the cache TTL.
func (s *StatisticsService) GetStatistics(ctx context.Context) (*model.StatisticsSnapshot, error) {
	data, err := s.cache.Get(ctx, s.statsCfg.CacheKey)
	if err == cache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics cache: %w", err)
	}

	var snapshot model.StatisticsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode statistics snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *StatisticsService) cacheSnapshot(ctx context.Context, snapshot *model.StatisticsSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode statistics snapshot: %w", err)
	}
	if err := s.cache.Set(ctx, s.statsCfg.CacheKey, data, s.statsCfg.CacheTTL); err != nil {
		return fmt.Errorf("failed to cache statistics snapshot: %w", err)
	}
	return nil
}

// secondsPerItem derives throughput from the highest-priority tier
// only; it drains constantly, so its records give the least noisy
// sample.
func (s *StatisticsService) secondsPerItem(ctx context.Context) (float64, error) {
	records, err := s.completions.ListByPriority(ctx, s.queueCfg.TopPriority())
	if err != nil {
		return 0, fmt.Errorf("failed to list completion records: %w", err)
	}
	if len(records) < 2 {
		return 0, nil
	}

	// Records are newest first.
	duration := records[0].Added - records[len(records)-1].Added
	if duration <= 0 {
		return 0, nil
	}

	rate := round3(float64(len(records)) / float64(duration))
	if rate == 0 {
		return 0, nil
	}
	return round3(1 / rate), nil
}

// completionSeconds estimates how long a tier takes to drain.
func completionSeconds(size int64, spi float64, consumers int) float64 {
	if consumers <= 0 || spi <= 0 {
		return 0
	}
	return float64(size) * spi / float64(consumers)
}

// renderDuration formats seconds as "D days, H hr, M min". Partial
// minutes are dropped.
func renderDuration(seconds float64) string {
	minutes := int64(seconds) / 60
	days := minutes / (24 * 60)
	minutes -= days * 24 * 60
	hours := minutes / 60
	minutes -= hours * 60
	return fmt.Sprintf("%d days, %d hr, %d min", days, hours, minutes)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
