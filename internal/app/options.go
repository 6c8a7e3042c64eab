package service

import (
	"time"

	"github.com/okian/oche/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the throw queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication set. Zero means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSectorOffset rotates the sector table counter-clockwise by deg.
func WithSectorOffset(deg float64) Option {
	return func(s *Service) {
		s.sectorOffset = deg
	}
}

// WithLimitsCacheSize bounds the scorer's per-board limits cache.
func WithLimitsCacheSize(n int) Option {
	return func(s *Service) {
		s.limitsCacheSize = n
	}
}

// WithJournal persists scored throws with the given database/sql driver.
// An empty driver or "none" disables the journal.
func WithJournal(driver, dsn string) Option {
	return func(s *Service) {
		s.journalDriver = driver
		s.journalDSN = dsn
	}
}

// WithMaxHistoryLimit caps how many throws a history query may return.
func WithMaxHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxHistory = limit
		}
	}
}

// WithSnapshotInterval sets how often the leaderboard publishes its snapshot.
func WithSnapshotInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapshotInterval = d
		}
	}
}
