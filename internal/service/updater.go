package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"marketboard-updater/internal/alert"
	"marketboard-updater/internal/config"
	"marketboard-updater/internal/gameserver"
	"marketboard-updater/internal/metrics"
	"marketboard-updater/internal/model"
	"marketboard-updater/internal/provider"
	"marketboard-updater/internal/repository"
	"marketboard-updater/internal/tracking"
)

// UpdateWorker drains one bucket of work units against the provider.
// A run is bounded by a wall-clock deadline and a rolling critical
// failure count; individual item failures are recorded and skipped,
// server-wide provider signals abort the whole run.
type UpdateWorker struct {
	items       repository.TrackedItemRepository
	queue       repository.WorkUnitRepository
	credentials repository.CredentialRepository
	completions repository.CompletionRecordRepository
	merge       *MergeEngine
	client      provider.Client
	counter     tracking.Counter
	errors      tracking.ErrorWindow
	alerts      alert.Sender
	cfg         config.UpdaterConfig
	channel     string

	// Hooks for tests.
	now   func() time.Time
	sleep func(time.Duration)
	rng   *rand.Rand
}

// NewUpdateWorker creates an update worker.
func NewUpdateWorker(
	items repository.TrackedItemRepository,
	queue repository.WorkUnitRepository,
	credentials repository.CredentialRepository,
	completions repository.CompletionRecordRepository,
	merge *MergeEngine,
	client provider.Client,
	counter tracking.Counter,
	errors tracking.ErrorWindow,
	alerts alert.Sender,
	cfg config.UpdaterConfig,
	channel string,
) *UpdateWorker {
	return &UpdateWorker{
		items:       items,
		queue:       queue,
		credentials: credentials,
		completions: completions,
		merge:       merge,
		client:      client,
		counter:     counter,
		errors:      errors,
		alerts:      alerts,
		cfg:         cfg,
		channel:     channel,
		now:         time.Now,
		sleep:       time.Sleep,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RunUpdate processes one bucket and returns the tracked ids that were
// updated and those that failed. Items left unprocessed when the run
// stops early are in neither slice and keep their staleness.
func (w *UpdateWorker) RunUpdate(ctx context.Context, bucket int) (updated, failed []int64, err error) {
	start := w.now()
	deadline := start.Add(w.cfg.Deadline)

	units, err := w.queue.ListByBucket(ctx, bucket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list bucket %d: %w", bucket, err)
	}
	if len(units) == 0 {
		log.Printf("[Updater] Bucket %d is empty", bucket)
		return nil, nil, nil
	}

	credsByServer, err := w.loadCredentials(ctx)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[Updater] Bucket %d: %d items, priority %d, consumer %d",
		bucket, len(units), model.BucketPriority(bucket), model.BucketConsumer(bucket))

	statusLog := make(map[int64]string, len(units))
	failedSet := make(map[int64]bool)

	for _, unit := range units {
		statusLog[unit.TrackedID] = "Starting"

		if count := w.errors.CriticalCount(ctx); count >= w.cfg.ErrorCountThreshold {
			log.Printf("[Updater] Critical failure count %d hit threshold %d, stopping run",
				count, w.cfg.ErrorCountThreshold)
			metrics.RunsAborted.WithLabelValues("circuit_breaker").Inc()
			break
		}
		if !w.now().Before(deadline) {
			log.Printf("[Updater] Deadline reached, stopping run")
			break
		}

		serverName, nameErr := gameserver.ServerName(unit.ServerID)
		if nameErr != nil {
			w.fail(ctx, unit, statusLog, failedSet, &failed, "unknown_server",
				fmt.Sprintf("Unknown server id: %d", unit.ServerID))
			continue
		}

		pool := credsByServer[unit.ServerID]
		if len(pool) == 0 {
			w.fail(ctx, unit, statusLog, failedSet, &failed, "no_credential",
				"No token for: "+serverName)
			continue
		}
		cred := pool[w.rng.Intn(len(pool))]
		w.counter.Increment(ctx, tracking.KeyAccountUsage+cred.Account)

		itemStart := w.now()

		prices, fetchErr := w.client.GetCurrentListings(ctx, unit.ItemID, cred)
		if fetchErr != nil {
			if w.handleFatal(ctx, cred, serverName, fetchErr) {
				w.fail(ctx, unit, statusLog, failedSet, &failed, "provider_fatal", fetchErr.Error())
				metrics.RunsAborted.WithLabelValues("provider_fatal").Inc()
				break
			}
			w.fail(ctx, unit, statusLog, failedSet, &failed, "fetch_error", fetchErr.Error())
			continue
		}
		if reason, key, bad := badListings(prices); bad {
			w.counter.Increment(ctx, key)
			w.errors.RecordCritical(ctx, reason, fmt.Sprintf("item %d on %s", unit.ItemID, serverName))
			w.fail(ctx, unit, statusLog, failedSet, &failed, key, reason)
			continue
		}

		history, fetchErr := w.client.GetHistory(ctx, unit.ItemID, cred)
		if fetchErr != nil {
			if w.handleFatal(ctx, cred, serverName, fetchErr) {
				w.fail(ctx, unit, statusLog, failedSet, &failed, "provider_fatal", fetchErr.Error())
				metrics.RunsAborted.WithLabelValues("provider_fatal").Inc()
				break
			}
			w.fail(ctx, unit, statusLog, failedSet, &failed, "fetch_error", fetchErr.Error())
			continue
		}
		if reason, key, bad := badHistory(history); bad {
			w.counter.Increment(ctx, key)
			w.errors.RecordCritical(ctx, reason, fmt.Sprintf("item %d on %s", unit.ItemID, serverName))
			w.fail(ctx, unit, statusLog, failedSet, &failed, key, reason)
			continue
		}

		if mergeErr := w.merge.Store(ctx, unit, prices, history); mergeErr != nil {
			w.errors.RecordCritical(ctx, "Failed to store market data", mergeErr.Error())
			w.fail(ctx, unit, statusLog, failedSet, &failed, "store_error", mergeErr.Error())
			continue
		}

		updated = append(updated, unit.TrackedID)
		statusLog[unit.TrackedID] = "Set market data"
		w.counter.Increment(ctx, tracking.KeyItemUpdated)
		metrics.ItemsUpdated.WithLabelValues(strconv.Itoa(unit.Priority)).Inc()
		log.Printf("[Updater] Updated item %d on %s (%s) Duration: %s",
			unit.ItemID, serverName, gameserver.DataCenter(serverName), w.now().Sub(itemStart))

		w.pace()
	}

	w.finalize(ctx, bucket, updated, failedSet, statusLog)

	log.Printf("[Updater] Bucket %d done: %d updated, %d failed, took %s",
		bucket, len(updated), len(failed), w.now().Sub(start))
	return updated, failed, nil
}

// loadCredentials groups online credentials by server id.
func (w *UpdateWorker) loadCredentials(ctx context.Context) (map[int][]model.Credential, error) {
	creds, err := w.credentials.ListOnline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	byServer := make(map[int][]model.Credential)
	for _, cred := range creds {
		byServer[cred.ServerID] = append(byServer[cred.ServerID], cred)
	}
	return byServer, nil
}

// fail records one item failure. The status line is persisted
// immediately so failed items keep their staleness but expose the
// reason; finalize skips them.
func (w *UpdateWorker) fail(ctx context.Context, unit model.WorkUnit, statusLog map[int64]string,
	failedSet map[int64]bool, failed *[]int64, reason, detail string) {

	statusLog[unit.TrackedID] = detail
	failedSet[unit.TrackedID] = true
	*failed = append(*failed, unit.TrackedID)
	metrics.ItemsFailed.WithLabelValues(strconv.Itoa(unit.Priority), reason).Inc()

	if err := w.items.SetStatusLog(ctx, unit.TrackedID, detail); err != nil {
		log.Printf("[Updater] Failed to persist status for item %d: %v", unit.TrackedID, err)
	}
}

// handleFatal classifies a provider error. Maintenance/congestion takes
// the whole server's credential pool offline, auth expiry takes the one
// account offline; either way the run must abort. Returns true when the
// run should stop.
func (w *UpdateWorker) handleFatal(ctx context.Context, cred model.Credential, serverName string, err error) bool {
	w.errors.RecordCritical(ctx, "Provider request failed", err.Error())

	// Cool-down is randomized so a fleet of workers does not retry in
	// lock-step when the window reopens.
	expiring := w.now().Add(time.Duration(60+w.rng.Intn(121)) * time.Minute).Unix()

	switch {
	case provider.IsMaintenance(err):
		metrics.ProviderFailures.WithLabelValues("maintenance").Inc()
		if invErr := w.credentials.InvalidateServer(ctx, serverName, "Maintenance/Congestion", expiring); invErr != nil {
			log.Printf("[Updater] Failed to invalidate server %s: %v", serverName, invErr)
		}
		w.alerts.SendAlert(ctx, w.channel,
			fmt.Sprintf("Server-Wide Account Logout on %s: maintenance or congestion reported by provider", serverName))
		return true

	case provider.IsAuthExpired(err):
		metrics.ProviderFailures.WithLabelValues("auth_expired").Inc()
		if invErr := w.credentials.InvalidateAccount(ctx, cred.Account, "Authorization failed", expiring); invErr != nil {
			log.Printf("[Updater] Failed to invalidate account %s: %v", cred.Account, invErr)
		}
		w.alerts.SendAlert(ctx, w.channel,
			fmt.Sprintf("Account Logout for %s on %s: authorization expired", cred.Account, serverName))
		return true
	}
	return false
}

// pace sleeps for a random interval inside the configured range for the
// current hour in the reference timezone. Hours with no entry do not
// sleep at all.
func (w *UpdateWorker) pace() {
	loc, err := time.LoadLocation(w.cfg.PacingTimezone)
	if err != nil {
		loc = time.UTC
	}
	min, max, ok := w.cfg.PacingRange(w.now().In(loc).Hour())
	if !ok {
		return
	}
	w.sleep(time.Duration(min+w.rng.Intn(max-min+1)) * time.Second)
}

// finalize stamps the successfully updated items. One priority value is
// drawn per run so a whole bucket re-sorts as a block.
func (w *UpdateWorker) finalize(ctx context.Context, bucket int, updated []int64,
	failedSet map[int64]bool, statusLog map[int64]string) {

	now := w.now().Unix()
	priorityValue := now + w.rng.Int63n(1001)
	priority := model.BucketPriority(bucket)

	for _, id := range updated {
		if failedSet[id] {
			continue
		}
		if err := w.items.MarkUpdated(ctx, id, now, priorityValue, statusLog[id]); err != nil {
			log.Printf("[Updater] Failed to finalize item %d: %v", id, err)
			continue
		}
		if err := w.completions.Insert(ctx, priority, now); err != nil {
			log.Printf("[Updater] Failed to record completion for item %d: %v", id, err)
		}
	}
}

// badListings reports whether a listings response is unusable, with the
// status line and tracking key to record.
func badListings(r *provider.ListingsResponse) (reason, key string, bad bool) {
	switch {
	case r == nil:
		return "Empty response from provider", tracking.KeyResponseEmpty, true
	case r.Rejected():
		return "Request rejected: " + r.Reason, tracking.KeyResponseRejected, true
	case r.Error != "":
		return "Provider error: " + r.Error, tracking.KeyResponseError, true
	}
	return "", "", false
}

// badHistory mirrors badListings for the history payload.
func badHistory(r *provider.HistoryResponse) (reason, key string, bad bool) {
	switch {
	case r == nil:
		return "Empty response from provider", tracking.KeyResponseEmpty, true
	case r.Rejected():
		return "Request rejected: " + r.Reason, tracking.KeyResponseRejected, true
	case r.Error != "":
		return "Provider error: " + r.Error, tracking.KeyResponseError, true
	}
	return "", "", false
}
