package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"marketboard-updater/internal/config"
	"marketboard-updater/internal/model"
	"marketboard-updater/internal/provider"
	"marketboard-updater/internal/tracking"
)

func updaterConfig() config.UpdaterConfig {
	return config.UpdaterConfig{
		Deadline:            time.Minute,
		ErrorCountThreshold: 30,
		ErrorCountWindow:    10 * time.Minute,
		PacingTimezone:      "UTC",
	}
}

type workerFixture struct {
	items       *fakeItems
	queue       *fakeQueue
	creds       *fakeCreds
	completions *fakeCompletions
	market      *fakeMarket
	client      *fakeClient
	counter     *fakeCounter
	errors      *fakeErrorWindow
	alerts      *fakeAlerts
	worker      *UpdateWorker
}

func newWorkerFixture(cfg config.UpdaterConfig) *workerFixture {
	f := &workerFixture{
		items:       newFakeItems(),
		queue:       &fakeQueue{},
		creds:       &fakeCreds{},
		completions: &fakeCompletions{},
		market:      newFakeMarket(),
		client:      newFakeClient(),
		counter:     newFakeCounter(),
		errors:      &fakeErrorWindow{},
		alerts:      &fakeAlerts{},
	}
	merge := NewMergeEngine(f.market, fakeTraders{})
	f.worker = NewUpdateWorker(f.items, f.queue, f.creds, f.completions,
		merge, f.client, f.counter, f.errors, f.alerts, cfg, "market-ops")
	f.worker.sleep = func(time.Duration) {}
	return f
}

func (f *workerFixture) addUnit(trackedID int64, itemID, serverID, priority int) {
	f.queue.units = append(f.queue.units, model.WorkUnit{
		TrackedID: trackedID,
		ItemID:    itemID,
		ServerID:  serverID,
		Priority:  priority,
		Bucket:    model.BucketID(priority, 0),
	})
}

func (f *workerFixture) addCredential(account string, serverID int) {
	f.creds.creds = append(f.creds.creds, model.Credential{
		Account:  account,
		ServerID: serverID,
		Server:   mustServerName(serverID),
		Token:    "token-" + account,
		Online:   true,
	})
}

func mustServerName(id int) string {
	names := map[int]string{24: "Gilgamesh", 2: "Alexander", 6: "Bahamut"}
	return names[id]
}

func okListings() *provider.ListingsResponse {
	return &provider.ListingsResponse{
		LodestoneID: "abc123",
		Entries: []provider.ListingEntry{
			{SellPrice: 100, Stack: 1, SellRetainerName: "Seller"},
		},
	}
}

func okHistory() *provider.HistoryResponse {
	return &provider.HistoryResponse{
		History: []provider.HistoryRow{
			{SellPrice: 90, Stack: 1, BuyRealDate: 1700000000, BuyCharacterName: "Buyer"},
		},
	}
}

func TestRunUpdateEmptyBucket(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(updated) != 0 || len(failed) != 0 {
		t.Fatalf("got %d updated, %d failed, want none", len(updated), len(failed))
	}
}

func TestRunUpdateSuccess(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)
	f.addCredential("acc1", 24)
	f.client.listings[5] = okListings()
	f.client.history[5] = okHistory()

	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(updated) != 1 || updated[0] != 10 {
		t.Fatalf("updated = %v, want [10]", updated)
	}
	if len(failed) != 0 {
		t.Fatalf("failed = %v, want none", failed)
	}

	mark, ok := f.items.marked[10]
	if !ok {
		t.Fatal("item 10 was not finalized")
	}
	if mark.statusLog != "Set market data" {
		t.Errorf("statusLog = %q", mark.statusLog)
	}
	if mark.priorityValue < mark.updated || mark.priorityValue > mark.updated+1000 {
		t.Errorf("priorityValue %d outside [updated, updated+1000]", mark.priorityValue)
	}
	if len(f.completions.inserted) != 1 || f.completions.inserted[0].Priority != 1 {
		t.Errorf("completions = %+v, want one record for priority 1", f.completions.inserted)
	}
	if f.counter.counts[tracking.KeyItemUpdated] != 1 {
		t.Errorf("item_updated count = %d, want 1", f.counter.counts[tracking.KeyItemUpdated])
	}
	if f.counter.counts[tracking.KeyAccountUsage+"acc1"] != 1 {
		t.Errorf("account usage not tracked")
	}
	if f.market.sets != 1 {
		t.Errorf("market Set called %d times, want 1", f.market.sets)
	}
}

func TestRunUpdateZeroDeadline(t *testing.T) {
	cfg := updaterConfig()
	cfg.Deadline = 0
	f := newWorkerFixture(cfg)
	f.addUnit(10, 5, 24, 1)
	f.addCredential("acc1", 24)

	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(updated) != 0 || len(failed) != 0 {
		t.Fatalf("zero budget must process nothing, got %d updated %d failed", len(updated), len(failed))
	}
	if f.client.calls != 0 {
		t.Errorf("provider called %d times with zero budget", f.client.calls)
	}
}

func TestRunUpdateCircuitBreaker(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)
	f.addCredential("acc1", 24)
	f.errors.count = 30

	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(updated) != 0 || len(failed) != 0 {
		t.Fatal("tripped breaker must process nothing")
	}
	if f.client.calls != 0 {
		t.Errorf("provider called %d times with tripped breaker", f.client.calls)
	}
}

func TestRunUpdateNoCredential(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)

	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(updated) != 0 {
		t.Fatalf("updated = %v, want none", updated)
	}
	if len(failed) != 1 || failed[0] != 10 {
		t.Fatalf("failed = %v, want [10]", failed)
	}
	if got := f.items.statusLogs[10]; got != "No token for: Gilgamesh" {
		t.Errorf("statusLog = %q", got)
	}
	// Missing credentials are an operator problem, not a provider one.
	if f.errors.count != 0 {
		t.Errorf("no-credential failure counted toward breaker: %d", f.errors.count)
	}
	if f.client.calls != 0 {
		t.Errorf("provider called without a credential")
	}
}

func TestRunUpdateProviderErrorField(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)
	f.addCredential("acc1", 24)
	f.client.listings[5] = &provider.ListingsResponse{Error: "some provider error"}

	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(updated) != 0 || len(failed) != 1 {
		t.Fatalf("got %d updated %d failed, want 0/1", len(updated), len(failed))
	}
	if f.market.sets != 0 {
		t.Error("market record written despite provider error")
	}
	if f.errors.count != 1 {
		t.Errorf("critical count = %d, want 1", f.errors.count)
	}
	if f.counter.counts[tracking.KeyResponseError] != 1 {
		t.Errorf("response error not tracked")
	}
	if len(f.items.marked) != 0 {
		t.Error("failed item was finalized")
	}
}

func TestRunUpdateRejectedResponse(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)
	f.addCredential("acc1", 24)
	f.client.listings[5] = &provider.ListingsResponse{State: "rejected", Reason: "flood gate"}

	_, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("failed = %v, want one entry", failed)
	}
	if f.counter.counts[tracking.KeyResponseRejected] != 1 {
		t.Errorf("rejection not tracked")
	}
	if got := f.items.statusLogs[10]; !strings.Contains(got, "flood gate") {
		t.Errorf("statusLog = %q, want rejection reason", got)
	}
}

func TestRunUpdateMaintenanceAbortsRun(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)
	f.addUnit(11, 6, 24, 1)
	f.addCredential("acc1", 24)
	f.client.listingsErr[5] = errors.New("provider returned 319201: under maintenance")
	f.client.listings[6] = okListings()

	start := time.Now()
	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(updated) != 0 {
		t.Fatalf("updated = %v, want none", updated)
	}
	if len(failed) != 1 || failed[0] != 10 {
		t.Fatalf("failed = %v, want [10]", failed)
	}

	if len(f.creds.servers) != 1 {
		t.Fatalf("server invalidations = %d, want 1", len(f.creds.servers))
	}
	inv := f.creds.servers[0]
	if inv.target != "Gilgamesh" {
		t.Errorf("invalidated server %q, want Gilgamesh", inv.target)
	}
	min := start.Add(60 * time.Minute).Unix()
	max := start.Add(181 * time.Minute).Unix()
	if inv.expiring < min || inv.expiring > max {
		t.Errorf("cool-down expiry %d outside [%d, %d]", inv.expiring, min, max)
	}
	if len(f.alerts.sent) != 1 {
		t.Fatalf("alerts sent = %d, want 1", len(f.alerts.sent))
	}
	// Item 11 must be left untouched; the run aborted before it.
	if _, ok := f.items.statusLogs[11]; ok && f.items.statusLogs[11] != "" {
		t.Errorf("aborted run touched a later item: %q", f.items.statusLogs[11])
	}
}

func TestRunUpdateAuthExpiredInvalidatesAccount(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)
	f.addCredential("acc1", 24)
	f.client.listingsErr[5] = errors.New("provider returned 111001: token expired")

	_, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("failed = %v, want one entry", failed)
	}
	if len(f.creds.accounts) != 1 || f.creds.accounts[0].target != "acc1" {
		t.Fatalf("account invalidations = %+v, want acc1", f.creds.accounts)
	}
	if len(f.creds.servers) != 0 {
		t.Error("auth expiry must not take the whole server offline")
	}
	if len(f.alerts.sent) != 1 {
		t.Errorf("alerts sent = %d, want 1", len(f.alerts.sent))
	}
}

func TestRunUpdateTransientFetchErrorContinues(t *testing.T) {
	f := newWorkerFixture(updaterConfig())
	f.addUnit(10, 5, 24, 1)
	f.addUnit(11, 6, 24, 1)
	f.addCredential("acc1", 24)
	f.client.listingsErr[5] = errors.New("connection reset")
	f.client.listings[6] = okListings()
	f.client.history[6] = okHistory()

	updated, failed, err := f.worker.RunUpdate(context.Background(), model.BucketID(1, 0))
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if len(failed) != 1 || failed[0] != 10 {
		t.Fatalf("failed = %v, want [10]", failed)
	}
	if len(updated) != 1 || updated[0] != 11 {
		t.Fatalf("updated = %v, want [11]", updated)
	}
}
