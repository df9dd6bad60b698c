// Package tracking holds the process-external operational counters:
// provider usage tallies and the rolling critical-failure window the
// update worker's circuit breaker reads. The counters live in Redis so
// concurrent bucket runs share one view without in-process state.
package tracking

import "context"

// Counter increments named usage counters. Failures are swallowed;
// tracking must never take down an update run.
type Counter interface {
	Increment(ctx context.Context, key string)
}

// ErrorWindow maintains the rolling count of critical failures.
type ErrorWindow interface {
	// RecordCritical notes one critical failure with its context.
	RecordCritical(ctx context.Context, summary, message string)

	// CriticalCount returns the failure count inside the current window.
	CriticalCount(ctx context.Context) int
}

// Well-known counter keys.
const (
	KeyItemUpdated      = "item_updated"
	KeyResponseRejected = "provider_response_rejected"
	KeyResponseError    = "provider_response_error"
	KeyResponseEmpty    = "provider_response_empty"
	KeyAccountUsage     = "account_usage_" // + account name
)
