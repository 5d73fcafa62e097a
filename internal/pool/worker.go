package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"webpool/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State is the lifecycle position of a worker.
type State int32

const (
	StateRunning State = iota
	StateExecuting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExecuting:
		return "executing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// worker owns one goroutine that pulls messages off the shared channel
// until it receives a stop message. It never sends on the channel.
type worker struct {
	id       int
	pool     string
	ch       *controlChannel
	reporter Reporter
	logger   *slog.Logger
	tracer   trace.Tracer

	state   atomic.Int32
	done    chan struct{}
	exitErr error
}

func newWorker(id int, pool string, ch *controlChannel, reporter Reporter, logger *slog.Logger, tracer trace.Tracer) *worker {
	return &worker{
		id:       id,
		pool:     pool,
		ch:       ch,
		reporter: reporter,
		logger:   logger.With("worker_id", id),
		tracer:   tracer,
		done:     make(chan struct{}),
	}
}

func (w *worker) start() {
	w.state.Store(int32(StateRunning))
	metrics.WorkersRunning.WithLabelValues(w.pool).Inc()
	go w.loop()
}

func (w *worker) loop() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.exitErr = fmt.Errorf("worker loop panicked: %v", r)
		}
		w.state.Store(int32(StateTerminated))
		metrics.WorkersRunning.WithLabelValues(w.pool).Dec()
		w.report("worker_exited", func() { w.reporter.WorkerExited(w.id, w.exitErr) })
	}()

	for {
		msg, ok := w.ch.receive()
		if !ok {
			// The pool closes the send side only after queueing one stop
			// per worker, so a drained, closed channel means a lost stop.
			w.exitErr = ErrChannelClosed
			return
		}
		metrics.QueueDepth.WithLabelValues(w.pool).Set(float64(w.ch.len()))

		switch m := msg.(type) {
		case runMessage:
			w.execute(m.job)
		case stopMessage:
			w.logger.Debug("worker was told to terminate")
			return
		}
	}
}

// execute runs job on the worker goroutine, containing any panic so the
// loop survives it.
func (w *worker) execute(job Job) {
	w.state.Store(int32(StateExecuting))
	defer w.state.Store(int32(StateRunning))

	executionID := uuid.NewString()
	_, span := w.tracer.Start(context.Background(), "pool.worker.execute",
		trace.WithAttributes(
			attribute.String("pool.name", w.pool),
			attribute.Int("worker.id", w.id),
			attribute.String("execution.id", executionID),
		))
	defer span.End()

	w.logger.Debug("worker got a job; executing", "execution_id", executionID)
	start := time.Now()

	defer func() {
		var err error
		if r := recover(); r != nil {
			err = &JobPanicError{WorkerID: w.id, Value: r, Stack: debug.Stack()}
			span.RecordError(err)
			span.SetStatus(codes.Error, "job panicked")
		} else {
			span.SetStatus(codes.Ok, "job finished")
		}
		elapsed := time.Since(start)
		w.report("job_done", func() { w.reporter.JobDone(w.id, elapsed, err) })
	}()

	job.Run()
}

// report calls a Reporter method, logging instead of unwinding the loop
// if it panics.
func (w *worker) report(event string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("reporter panicked", "event", event, "panic", r)
		}
	}()
	call()
}

// join blocks until the worker goroutine has ended.
func (w *worker) join() error {
	<-w.done
	if w.exitErr != nil {
		return &WorkerExitError{WorkerID: w.id, Err: w.exitErr}
	}
	return nil
}

func (w *worker) State() State {
	return State(w.state.Load())
}
