package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SaveConflicts counts uniqueness conflicts hit while saving, labelled by entity and
	// outcome (resurrected|duplicate|missing).
	SaveConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softstore_save_conflicts_total",
			Help: "Total number of uniqueness conflicts raised while saving records",
		},
		[]string{"entity", "outcome"},
	)

	// SoftDeletes counts records flagged as deleted.
	SoftDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softstore_soft_deletes_total",
			Help: "Total number of records flagged as deleted",
		},
		[]string{"entity"},
	)

	// HardDeletes counts rows physically removed, including purges.
	HardDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softstore_hard_deleted_rows_total",
			Help: "Total number of rows physically removed from storage",
		},
		[]string{"entity", "source"},
	)

	// BulkInsertRows counts rows submitted to insert-ignore statements by result (inserted|ignored).
	BulkInsertRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softstore_bulk_insert_rows_total",
			Help: "Rows submitted to bulk insert-ignore statements",
		},
		[]string{"entity", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "softstore_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
