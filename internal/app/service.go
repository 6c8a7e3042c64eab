// Package service wires the scoring pipeline together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/oche/internal/adapters/journal"
	throwqueue "github.com/okian/oche/internal/adapters/mq/queue"
	workerpool "github.com/okian/oche/internal/adapters/mq/worker"
	"github.com/okian/oche/internal/adapters/repository"
	"github.com/okian/oche/internal/domain/board"
	"github.com/okian/oche/internal/domain/dedupe"
	"github.com/okian/oche/internal/domain/model"
	"github.com/okian/oche/internal/domain/polar"
	"github.com/okian/oche/internal/domain/scoring"
	"github.com/okian/oche/internal/domain/types"
	"github.com/okian/oche/pkg/logger"
	"github.com/okian/oche/pkg/metrics"
)

const (
	defaultQueueSize       = 10_000
	defaultDedupeSize      = 100_000
	defaultLimitsCacheSize = 64
	defaultMaxHistory      = 500
	journalNone            = "none"
)

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	leaderboard *repository.TreapStore
	deduper     dedupe.Deduper
	queue       *throwqueue.InMemoryQueue
	scorer      *scoring.InMemoryScorer
	pool        *workerpool.Pool
	journal     *journal.SQLJournal

	// cancel stops the workers and the leaderboard publisher. Only Stop calls it.
	cancel context.CancelFunc

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	limitsCacheSize  int
	sectorOffset     float64
	journalDriver    string
	journalDSN       string
	maxHistory       int
	snapshotInterval time.Duration

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		limitsCacheSize: defaultLimitsCacheSize,
		journalDriver:   journalNone,
		maxHistory:      defaultMaxHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) journalEnabled() bool {
	return s.journalDriver != "" && s.journalDriver != journalNone
}

// Start initializes and starts the service components. The workers and the
// leaderboard publisher keep running after ctx is done, until Stop drains them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoring service...")

	if s.journalEnabled() {
		j, err := journal.Open(ctx, s.journalDriver, s.journalDSN, journal.WithMaxHistory(s.maxHistory))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		s.journal = j
	}

	storeOpts := []repository.Option{}
	if s.snapshotInterval > 0 {
		storeOpts = append(storeOpts, repository.WithSnapshotInterval(s.snapshotInterval))
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.leaderboard = repository.NewTreapStore(runCtx, storeOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = throwqueue.NewInMemoryQueue(throwqueue.WithCapacity(s.queueSize))
	s.scorer = scoring.NewInMemoryScorer(
		scoring.WithSectorTable(board.NewSectorTable(board.WithRotationOffset(s.sectorOffset))),
		scoring.WithLimitsCacheSize(s.limitsCacheSize),
	)

	var workerOpts []workerpool.Option
	if s.journal != nil {
		workerOpts = append(workerOpts, workerpool.WithJournal(s.journal))
	}
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.scorer, s.leaderboard, workerOpts...)
	s.pool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Float64("sector_offset_deg", s.sectorOffset),
		logger.String("journal", s.journalDriver),
	)
	return nil
}

// Stop drains queued throws and shuts the components down. Throws still
// queued when ctx expires are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping scoring service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	s.cancel()
	if err := s.leaderboard.Close(); err != nil {
		errs = append(errs, fmt.Errorf("leaderboard: %w", err))
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped",
		logger.Int("processed", int(s.pool.Processed())),
		logger.Int("failed", int(s.pool.Failed())),
	)
	return errors.Join(errs...)
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// SeenAndRecord atomically checks if a throw id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordThrowDuplicate()
	}
	return seen
}

// Unrecord removes a throw id from the seen set, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of ids in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a throw for asynchronous scoring.
func (s *Service) Enqueue(ctx context.Context, t model.Throw) error { //nolint:gocritic // hugeParam
	if !s.running() {
		return ErrNotStarted
	}

	s.logger.Debug(ctx, "enqueueing throw",
		logger.String("throw_id", t.ThrowID),
		logger.String("player_id", t.PlayerID),
	)
	if err := s.queue.Enqueue(ctx, t); err != nil {
		metrics.RecordThrowRejected("backpressure")
		return fmt.Errorf("enqueue throw %s: %w", t.ThrowID, err)
	}
	return nil
}

// Score scores a single impact synchronously without touching the leaderboard.
func (s *Service) Score(ctx context.Context, boundary polar.Ellipse, impact polar.Point) (types.ScoreResult, error) {
	if !s.running() {
		return types.ScoreResult{}, ErrNotStarted
	}

	start := time.Now()
	res, err := s.scorer.Score(ctx, scoring.Input{Board: boundary, Impact: impact})
	metrics.RecordScoringLatency(metrics.SinceMs(start))
	if err != nil {
		metrics.RecordScoringError(scoring.ErrorKind(err))
		return types.ScoreResult{}, err
	}

	return types.ScoreResult{
		Radius:     res.Polar.Radius,
		Angle:      res.Polar.Angle,
		Value:      res.Score.Value,
		Ring:       res.Score.Ring.String(),
		Multiplier: res.Score.Multiplier(),
		Points:     res.Score.Points(),
		Label:      res.Score.String(),
		Limits:     res.Limits,
	}, nil
}

// Limits returns the ring radii for a board.
func (s *Service) Limits(_ context.Context, boundary polar.Ellipse) (board.RingLimits, error) {
	if !s.running() {
		return board.RingLimits{}, ErrNotStarted
	}
	return s.scorer.Limits(boundary)
}

// Sectors returns the angular ranges of the active sector table.
func (s *Service) Sectors() []board.SectorRange {
	if !s.running() {
		return board.NewSectorTable(board.WithRotationOffset(s.sectorOffset)).Ranges()
	}
	return s.scorer.Table().Ranges()
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	entries, err := s.leaderboard.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Rank returns the rank and total for a given player id.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	if !s.running() {
		return types.Entry{}, ErrNotStarted
	}
	e, err := s.leaderboard.Rank(ctx, playerID)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

// History returns the player's most recent journalled throws, newest first.
func (s *Service) History(ctx context.Context, playerID string, limit int) ([]types.ThrowRecord, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.History(ctx, playerID, limit)
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:     e.Rank,
		PlayerID: e.PlayerID,
		Total:    e.Total,
		Throws:   e.Throws,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":           s.started,
		"worker_count":      s.workerCount,
		"queue_capacity":    s.queueSize,
		"dedupe_size":       s.dedupeSize,
		"sector_offset_deg": s.sectorOffset,
		"journal_driver":    s.journalDriver,
	}
	if s.pool != nil {
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	players := s.leaderboard.Count(ctx)

	stats["uptime_seconds"] = time.Since(s.startedAt).Seconds()
	stats["queue_length"] = queueLen
	stats["dedupe_entries"] = s.deduper.Size()
	stats["players"] = players
	stats["cached_boards"] = s.scorer.CachedBoards()
	if snap := s.leaderboard.Snapshot(ctx); snap != nil {
		stats["total_points"] = snap.TotalPoints
		stats["total_throws"] = snap.TotalThrows
		stats["snapshot_at"] = snap.TakenAt
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateQueueCapacity(s.queue.Capacity())
	metrics.UpdateTotalPlayers(players)
	metrics.UpdateWorkerCount(s.pool.Size())

	return stats
}
