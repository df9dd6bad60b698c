package tracking

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	counterPrefix  = "tracking:"
	criticalKey    = "tracking:critical_errors"
	criticalLogKey = "tracking:critical_errors:log"
	criticalLogMax = 50
)

// RedisTracking implements Counter and ErrorWindow on Redis.
type RedisTracking struct {
	client *redis.Client
	window time.Duration
}

// NewRedisTracking creates a tracker. window bounds how long critical
// failures count toward the circuit breaker.
func NewRedisTracking(client *redis.Client, window time.Duration) *RedisTracking {
	return &RedisTracking{client: client, window: window}
}

// Increment bumps a named usage counter.
func (t *RedisTracking) Increment(ctx context.Context, key string) {
	if err := t.client.Incr(ctx, counterPrefix+key).Err(); err != nil {
		log.Printf("[Tracking] Increment %s failed: %v", key, err)
	}
}

// RecordCritical notes one critical failure. The window key expires as
// a whole, so the count resets once failures stop for a full window.
func (t *RedisTracking) RecordCritical(ctx context.Context, summary, message string) {
	pipe := t.client.Pipeline()
	pipe.Incr(ctx, criticalKey)
	pipe.Expire(ctx, criticalKey, t.window)
	pipe.LPush(ctx, criticalLogKey, summary+": "+message)
	pipe.LTrim(ctx, criticalLogKey, 0, criticalLogMax-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[Tracking] RecordCritical failed: %v", err)
	}
}

// CriticalCount returns the failure count inside the current window.
// Redis errors read as zero; a broken tracker must not halt updates.
func (t *RedisTracking) CriticalCount(ctx context.Context) int {
	count, err := t.client.Get(ctx, criticalKey).Int()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		log.Printf("[Tracking] CriticalCount failed: %v", err)
		return 0
	}
	return count
}

// RecentCriticalErrors returns the latest recorded failure lines.
func (t *RedisTracking) RecentCriticalErrors(ctx context.Context) []string {
	lines, err := t.client.LRange(ctx, criticalLogKey, 0, criticalLogMax-1).Result()
	if err != nil {
		return nil
	}
	return lines
}

// Ensure RedisTracking implements both tracking interfaces
var (
	_ Counter     = (*RedisTracking)(nil)
	_ ErrorWindow = (*RedisTracking)(nil)
)
