package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Update pipeline metrics
	ItemsUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_items_updated_total",
			Help: "Total number of items successfully updated",
		},
		[]string{"priority"},
	)

	ItemsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_items_failed_total",
			Help: "Total number of item update attempts that failed",
		},
		[]string{"priority", "reason"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_provider_failures_total",
			Help: "Total number of provider-side failure signals",
		},
		[]string{"kind"},
	)

	RunsAborted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_update_runs_aborted_total",
			Help: "Total number of update runs aborted early",
		},
		[]string{"cause"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "market_queue_depth",
			Help: "Current work unit count per priority tier",
		},
		[]string{"priority"},
	)
)
