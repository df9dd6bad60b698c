package model

// QueueStatistics is one per-tier row of the estimator's output.
type QueueStatistics struct {
	Name            string  `json:"name"`
	Priority        int     `json:"priority"`
	Consumers       int     `json:"consumers"`
	ItemUpdateSpeed float64 `json:"item_update_speed"`
	TotalItems      int64   `json:"total_items"`
	TotalRequests   int64   `json:"total_requests"`
	UpdatedRecently int64   `json:"updated_recently"`
	UpdatedOldest   int64   `json:"updated_oldest"`
	CompletionTime  string  `json:"completion_time"`
}

// StatisticsSnapshot is the full cached estimator result.
type StatisticsSnapshot struct {
	Generated      int64                  `json:"generated"`
	SecondsPerItem float64                `json:"seconds_per_item"`
	Queues         []QueueStatistics      `json:"queues"`
	QueueSizes     map[string]int64       `json:"queue_sizes"`
	Summary        map[string]interface{} `json:"summary,omitempty"`
}
