package service

import (
	"context"
	"fmt"
	"time"

	"marketboard-updater/internal/cache"
	"marketboard-updater/internal/model"
	"marketboard-updater/internal/provider"
	"marketboard-updater/internal/repository"
)

type fakeItems struct {
	stale      map[int][]model.TrackedItem
	manual     []model.TrackedItem
	marked     map[int64]markedItem
	statusLogs map[int64]string
	bounds     map[int][2]int64
}

type markedItem struct {
	updated       int64
	priorityValue int64
	statusLog     string
}

func newFakeItems() *fakeItems {
	return &fakeItems{
		stale:      make(map[int][]model.TrackedItem),
		marked:     make(map[int64]markedItem),
		statusLogs: make(map[int64]string),
		bounds:     make(map[int][2]int64),
	}
}

func (f *fakeItems) ListStalest(ctx context.Context, priority, limit int) ([]model.TrackedItem, error) {
	items := f.stale[priority]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeItems) MarkUpdated(ctx context.Context, id int64, updated, priorityValue int64, statusLog string) error {
	f.marked[id] = markedItem{updated: updated, priorityValue: priorityValue, statusLog: statusLog}
	return nil
}

func (f *fakeItems) SetStatusLog(ctx context.Context, id int64, statusLog string) error {
	f.statusLogs[id] = statusLog
	return nil
}

func (f *fakeItems) SetManualBucket(ctx context.Context, itemID int, serverIDs []int, bucket int) error {
	for _, sid := range serverIDs {
		f.manual = append(f.manual, model.TrackedItem{
			ItemID:       itemID,
			ServerID:     sid,
			ManualBucket: &bucket,
		})
	}
	return nil
}

func (f *fakeItems) ListManual(ctx context.Context) ([]model.TrackedItem, error) {
	return f.manual, nil
}

func (f *fakeItems) UpdatedBounds(ctx context.Context, priority int) (int64, int64, error) {
	b := f.bounds[priority]
	return b[0], b[1], nil
}

type fakeQueue struct {
	units       []model.WorkUnit
	deleteCalls int
}

func (f *fakeQueue) DeleteAll(ctx context.Context) error {
	f.deleteCalls++
	f.units = nil
	return nil
}

func (f *fakeQueue) Insert(ctx context.Context, units []model.WorkUnit) error {
	f.units = append(f.units, units...)
	return nil
}

func (f *fakeQueue) ListByBucket(ctx context.Context, bucket int) ([]model.WorkUnit, error) {
	var out []model.WorkUnit
	for _, u := range f.units {
		if u.Bucket == bucket {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeQueue) QueueSizes(ctx context.Context) (map[int]int64, error) {
	sizes := make(map[int]int64)
	for _, u := range f.units {
		sizes[u.Priority]++
	}
	return sizes, nil
}

type invalidation struct {
	target   string
	message  string
	expiring int64
}

type fakeCreds struct {
	creds    []model.Credential
	servers  []invalidation
	accounts []invalidation
}

func (f *fakeCreds) ListOnline(ctx context.Context) ([]model.Credential, error) {
	return f.creds, nil
}

func (f *fakeCreds) InvalidateServer(ctx context.Context, serverName, message string, expiring int64) error {
	f.servers = append(f.servers, invalidation{target: serverName, message: message, expiring: expiring})
	return nil
}

func (f *fakeCreds) InvalidateAccount(ctx context.Context, account, message string, expiring int64) error {
	f.accounts = append(f.accounts, invalidation{target: account, message: message, expiring: expiring})
	return nil
}

type fakeCompletions struct {
	records  []model.CompletionRecord
	inserted []model.CompletionRecord
	purgedAt int64
}

func (f *fakeCompletions) Insert(ctx context.Context, priority int, added int64) error {
	f.inserted = append(f.inserted, model.CompletionRecord{Priority: priority, Added: added})
	return nil
}

func (f *fakeCompletions) ListByPriority(ctx context.Context, priority int) ([]model.CompletionRecord, error) {
	var out []model.CompletionRecord
	for _, r := range f.records {
		if r.Priority == priority {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCompletions) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeCompletions) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	f.purgedAt = cutoff
	var kept []model.CompletionRecord
	var purged int64
	for _, r := range f.records {
		if r.Added < cutoff {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return purged, nil
}

// fakeTraders hands out deterministic ids so merge results are stable.
type fakeTraders struct{}

func (fakeTraders) GetOrCreateRetainer(ctx context.Context, serverID int, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return fmt.Sprintf("ret-%d-%s", serverID, name), nil
}

func (fakeTraders) GetOrCreateCharacter(ctx context.Context, serverID int, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return fmt.Sprintf("chr-%d-%s", serverID, name), nil
}

type fakeMarket struct {
	records map[string]*model.MarketRecord
	sets    int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{records: make(map[string]*model.MarketRecord)}
}

func marketKey(serverID, itemID int) string {
	return fmt.Sprintf("%d/%d", serverID, itemID)
}

func (f *fakeMarket) Get(ctx context.Context, serverID, itemID int) (*model.MarketRecord, error) {
	rec, ok := f.records[marketKey(serverID, itemID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeMarket) Set(ctx context.Context, rec *model.MarketRecord) error {
	cp := *rec
	f.records[marketKey(rec.ServerID, rec.ItemID)] = &cp
	f.sets++
	return nil
}

func (f *fakeMarket) Summary(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"records": int64(len(f.records))}, nil
}

func (f *fakeMarket) Close() error { return nil }

type fakeClient struct {
	listings    map[int]*provider.ListingsResponse
	history     map[int]*provider.HistoryResponse
	listingsErr map[int]error
	historyErr  map[int]error
	calls       int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		listings:    make(map[int]*provider.ListingsResponse),
		history:     make(map[int]*provider.HistoryResponse),
		listingsErr: make(map[int]error),
		historyErr:  make(map[int]error),
	}
}

func (f *fakeClient) GetCurrentListings(ctx context.Context, itemID int, cred model.Credential) (*provider.ListingsResponse, error) {
	f.calls++
	if err := f.listingsErr[itemID]; err != nil {
		return nil, err
	}
	if r, ok := f.listings[itemID]; ok {
		return r, nil
	}
	return &provider.ListingsResponse{}, nil
}

func (f *fakeClient) GetHistory(ctx context.Context, itemID int, cred model.Credential) (*provider.HistoryResponse, error) {
	f.calls++
	if err := f.historyErr[itemID]; err != nil {
		return nil, err
	}
	if r, ok := f.history[itemID]; ok {
		return r, nil
	}
	return &provider.HistoryResponse{}, nil
}

type fakeCounter struct {
	counts map[string]int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int)}
}

func (f *fakeCounter) Increment(ctx context.Context, key string) {
	f.counts[key]++
}

type fakeErrorWindow struct {
	count    int
	recorded []string
}

func (f *fakeErrorWindow) RecordCritical(ctx context.Context, summary, message string) {
	f.count++
	f.recorded = append(f.recorded, summary)
}

func (f *fakeErrorWindow) CriticalCount(ctx context.Context) int {
	return f.count
}

type fakeAlerts struct {
	sent []string
}

func (f *fakeAlerts) SendAlert(ctx context.Context, channel, text string) {
	f.sent = append(f.sent, text)
}

type fakeCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

var (
	_ repository.TrackedItemRepository      = (*fakeItems)(nil)
	_ repository.WorkUnitRepository         = (*fakeQueue)(nil)
	_ repository.CredentialRepository       = (*fakeCreds)(nil)
	_ repository.CompletionRecordRepository = (*fakeCompletions)(nil)
	_ repository.TraderRepository           = fakeTraders{}
	_ repository.MarketRepository           = (*fakeMarket)(nil)
	_ provider.Client                       = (*fakeClient)(nil)
	_ cache.Cache                           = (*fakeCache)(nil)
)
