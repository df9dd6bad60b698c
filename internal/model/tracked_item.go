package model

// TrackedItem is one (server, item) pair the pipeline keeps fresh.
// Updated is a unix timestamp refreshed after every successful fetch;
// selection for the next cycle is oldest-Updated-first.
type TrackedItem struct {
	ID            int64  `json:"id"`
	ItemID        int    `json:"item"`
	ServerID      int    `json:"server"`
	Priority      int    `json:"priority"`
	Region        int    `json:"region"`
	Updated       int64  `json:"updated"`
	PriorityValue int64  `json:"priority_value"`
	ManualBucket  *int   `json:"manual_bucket,omitempty"` // one-shot override, cleared on success
	StatusLog     string `json:"status_log,omitempty"`
}

// WorkUnit is an ephemeral queue entry for one cycle. The full set is
// replaced, never merged, on each queue build.
type WorkUnit struct {
	TrackedID int64 `json:"tracked_id"`
	ItemID    int   `json:"item"`
	ServerID  int   `json:"server"`
	Priority  int   `json:"priority"`
	Region    int   `json:"region"`
	Bucket    int   `json:"bucket"`
}

// BucketID composes a tier and a consumer index into a single bucket id.
// Bucket ids are only unique within one cycle.
func BucketID(priority, consumer int) int {
	return priority*100 + consumer
}

// BucketPriority extracts the tier from a composed bucket id.
func BucketPriority(bucket int) int {
	return bucket / 100
}

// BucketConsumer extracts the consumer index from a composed bucket id.
func BucketConsumer(bucket int) int {
	return bucket % 100
}

// CompletionRecord marks one finished item update, used only for
// throughput calibration. Records older than the retention window are
// purged before each statistics run.
type CompletionRecord struct {
	ID       int64 `json:"id"`
	Priority int   `json:"priority"`
	Added    int64 `json:"added"`
}
