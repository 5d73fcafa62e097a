package pool

import "log/slog"

// Option configures a Pool at construction.
type Option func(*options)

type options struct {
	name      string
	logger    *slog.Logger
	reporter  Reporter
	maxQueued int
}

func defaultOptions() options {
	return options{
		name:   "default",
		logger: slog.Default(),
	}
}

// WithName labels the pool in logs, metrics and traces.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger used by the pool and its workers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithReporter replaces the default log-and-metrics reporter. Use
// MultiReporter to keep the default alongside a custom one.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithMaxQueued bounds the number of jobs waiting for a worker. Execute
// returns ErrQueueFull beyond the bound. Zero, the default, means unbounded.
func WithMaxQueued(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxQueued = n
		}
	}
}
