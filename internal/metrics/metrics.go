// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts finished jobs per pool, split by outcome (success/panic).
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webpool_jobs_total",
			Help: "Total number of jobs executed by pool workers.",
		},
		[]string{"pool", "status"},
	)

	// JobDuration observes how long each job ran on its worker.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webpool_job_duration_seconds",
			Help:    "Wall time spent executing a single job.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pool"},
	)

	// JobsRejected counts submissions the pool refused.
	JobsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webpool_jobs_rejected_total",
			Help: "Total number of jobs rejected at submission.",
		},
		[]string{"pool", "reason"}, // closed / queue_full
	)

	// WorkersRunning is the number of worker goroutines that have not terminated.
	WorkersRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webpool_workers_running",
			Help: "Number of live worker goroutines.",
		},
		[]string{"pool"},
	)

	// QueueDepth is the number of dispatch messages waiting for a worker.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webpool_queue_depth",
			Help: "Number of queued dispatch messages.",
		},
		[]string{"pool"},
	)

	// ConnectionsTotal counts handled connections by response status code.
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webpool_connections_total",
			Help: "Total number of connections handled by the static server.",
		},
		[]string{"code"},
	)
)

// Status labels shared by the pool and its reporters.
const (
	StatusSuccess = "success"
	StatusPanic   = "panic"

	ReasonClosed    = "closed"
	ReasonQueueFull = "queue_full"
)
