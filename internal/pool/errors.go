package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned by New when the worker count is not positive.
	ErrInvalidSize = errors.New("pool size must be greater than zero")
	// ErrNilJob is returned by Execute when given a nil job.
	ErrNilJob = errors.New("job cannot be nil")
	// ErrPoolClosed is returned by Execute once Shutdown has started.
	ErrPoolClosed = errors.New("pool is shut down")
	// ErrQueueFull is returned by Execute when a queue bound is configured and reached.
	ErrQueueFull = errors.New("pool queue is full")
	// ErrChannelClosed signals the control channel was used after its send side closed.
	ErrChannelClosed = errors.New("control channel closed")
)

// JobPanicError describes a job that panicked on a worker.
type JobPanicError struct {
	WorkerID int
	Value    any
	Stack    []byte
}

func (e *JobPanicError) Error() string {
	return fmt.Sprintf("job panicked on worker %d: %v", e.WorkerID, e.Value)
}

// Unwrap exposes the panic value when the job panicked with an error.
func (e *JobPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// WorkerExitError is returned from Shutdown for a worker whose goroutine
// ended abnormally.
type WorkerExitError struct {
	WorkerID int
	Err      error
}

func (e *WorkerExitError) Error() string {
	return fmt.Sprintf("worker %d exited abnormally: %v", e.WorkerID, e.Err)
}

func (e *WorkerExitError) Unwrap() error { return e.Err }
