// Package worker scores queued throws and feeds the results to the stores.
package worker

import (
	"time"

	"github.com/okian/oche/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithJournal records every processed throw, scored or not.
func WithJournal(j Journal) Option {
	return func(w *InMemoryWorker) {
		w.journal = j
	}
}

// WithClock overrides the time source used for ScoredAt.
func WithClock(now func() time.Time) Option {
	return func(w *InMemoryWorker) {
		if now != nil {
			w.now = now
		}
	}
}
