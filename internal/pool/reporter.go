package pool

import (
	"errors"
	"log/slog"
	"time"

	"webpool/internal/metrics"
)

// Reporter observes job and worker outcomes. Implementations are called
// from worker goroutines and must be safe for concurrent use.
type Reporter interface {
	// JobDone is called after every job. err is nil on success and a
	// *JobPanicError when the job panicked.
	JobDone(workerID int, elapsed time.Duration, err error)
	// WorkerExited is called once per worker when its goroutine ends. err
	// is non-nil when the worker did not stop through a stop message.
	WorkerExited(workerID int, err error)
}

// MultiReporter fans every event out to each reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) JobDone(workerID int, elapsed time.Duration, err error) {
	for _, r := range m {
		r.JobDone(workerID, elapsed, err)
	}
}

func (m MultiReporter) WorkerExited(workerID int, err error) {
	for _, r := range m {
		r.WorkerExited(workerID, err)
	}
}

// logReporter is the default Reporter: structured logs plus Prometheus.
type logReporter struct {
	pool   string
	logger *slog.Logger
}

func newLogReporter(pool string, logger *slog.Logger) *logReporter {
	return &logReporter{pool: pool, logger: logger}
}

func (r *logReporter) JobDone(workerID int, elapsed time.Duration, err error) {
	metrics.JobDuration.WithLabelValues(r.pool).Observe(elapsed.Seconds())

	if err == nil {
		metrics.JobsTotal.WithLabelValues(r.pool, metrics.StatusSuccess).Inc()
		r.logger.Debug("job finished", "worker_id", workerID, "elapsed", elapsed)
		return
	}

	metrics.JobsTotal.WithLabelValues(r.pool, metrics.StatusPanic).Inc()
	var panicErr *JobPanicError
	if errors.As(err, &panicErr) {
		r.logger.Error("job panicked", "worker_id", workerID, "panic", panicErr.Value, "stack", string(panicErr.Stack))
		return
	}
	r.logger.Error("job failed", "worker_id", workerID, "error", err)
}

func (r *logReporter) WorkerExited(workerID int, err error) {
	if err != nil {
		r.logger.Error("worker exited abnormally", "worker_id", workerID, "error", err)
		return
	}
	r.logger.Info("worker terminated", "worker_id", workerID)
}
