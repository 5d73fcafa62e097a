// Package pool runs jobs on a fixed set of worker goroutines.
//
// A Pool is created with a worker count that never changes. Jobs submitted
// with Execute are queued on an unbounded control channel and each one is
// picked up by exactly one idle worker. Shutdown queues one stop message per
// worker behind any pending jobs and blocks until every worker has exited.
//
//	p, err := pool.New(4)
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown()
//
//	p.Execute(pool.JobFunc(func() {
//	    // do work
//	}))
//
// A job that panics does not take its worker down. The panic is recovered
// and handed to the pool's Reporter as a *JobPanicError.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"webpool/internal/metrics"

	"go.opentelemetry.io/otel"
)

// Pool owns a fixed set of workers and the only send side of their
// control channel.
type Pool struct {
	name      string
	workers   []*worker
	ch        *controlChannel
	maxQueued int
	logger    *slog.Logger

	closing     atomic.Bool
	once        sync.Once
	shutdownErr error
}

// New starts a pool of size workers. It returns ErrInvalidSize, and starts
// nothing, when size is not positive.
func New(size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With("component", "pool", "pool", o.name)
	reporter := o.reporter
	if reporter == nil {
		reporter = newLogReporter(o.name, logger)
	}
	tracer := otel.Tracer("webpool-pool")

	p := &Pool{
		name:      o.name,
		workers:   make([]*worker, 0, size),
		ch:        newControlChannel(),
		maxQueued: o.maxQueued,
		logger:    logger,
	}

	for id := range size {
		w := newWorker(id, o.name, p.ch, reporter, logger, tracer)
		p.workers = append(p.workers, w)
		w.start()
	}

	logger.Info("pool started", "workers", size, "max_queued", o.maxQueued)
	return p, nil
}

// MustNew is like New but panics on a configuration error.
func MustNew(size int, opts ...Option) *Pool {
	p, err := New(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Execute queues job for some worker and returns without waiting for it
// to start. Jobs from a single caller are dequeued in submission order.
func (p *Pool) Execute(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if p.closing.Load() {
		metrics.JobsRejected.WithLabelValues(p.name, metrics.ReasonClosed).Inc()
		return ErrPoolClosed
	}

	err := p.ch.send(runMessage{job: job}, p.maxQueued)
	switch {
	case err == nil:
		metrics.QueueDepth.WithLabelValues(p.name).Set(float64(p.ch.len()))
		return nil
	case errors.Is(err, ErrChannelClosed):
		metrics.JobsRejected.WithLabelValues(p.name, metrics.ReasonClosed).Inc()
		return ErrPoolClosed
	case errors.Is(err, ErrQueueFull):
		metrics.JobsRejected.WithLabelValues(p.name, metrics.ReasonQueueFull).Inc()
		return err
	default:
		return err
	}
}

// ExecuteFunc is shorthand for Execute(JobFunc(fn)).
func (p *Pool) ExecuteFunc(fn func()) error {
	if fn == nil {
		return ErrNilJob
	}
	return p.Execute(JobFunc(fn))
}

// Shutdown queues exactly one stop message per worker behind any pending
// jobs, then joins the workers in the order they were created. A worker
// that ended abnormally is reported in the returned error; the remaining
// workers are still joined. Only the first call does any work; later calls
// return its result.
func (p *Pool) Shutdown() error {
	p.once.Do(func() {
		p.closing.Store(true)

		p.logger.Info("sending terminate message to all workers", "workers", len(p.workers))
		stops := make([]message, len(p.workers))
		for i := range stops {
			stops[i] = stopMessage{}
		}
		if err := p.ch.closeWith(stops...); err != nil {
			// Only Shutdown closes the channel and it runs once.
			panic(fmt.Sprintf("pool %s: %v", p.name, err))
		}

		p.logger.Info("shutting down all workers")
		var errs []error
		for _, w := range p.workers {
			p.logger.Debug("terminating worker", "worker_id", w.id)
			if err := w.join(); err != nil {
				errs = append(errs, err)
			}
		}
		metrics.QueueDepth.WithLabelValues(p.name).Set(0)

		p.shutdownErr = errors.Join(errs...)
		if p.shutdownErr != nil {
			p.logger.Error("pool stopped with worker failures", "error", p.shutdownErr)
			return
		}
		p.logger.Info("pool stopped")
	})
	return p.shutdownErr
}

// Close implements io.Closer by calling Shutdown.
func (p *Pool) Close() error {
	return p.Shutdown()
}

// Size returns the fixed number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Pending returns the number of queued messages not yet taken by a worker.
func (p *Pool) Pending() int {
	return p.ch.len()
}

// States reports each worker's state, indexed by worker id.
func (p *Pool) States() []State {
	states := make([]State, len(p.workers))
	for i, w := range p.workers {
		states[i] = w.State()
	}
	return states
}
