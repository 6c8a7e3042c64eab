package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/oche/internal/domain/model"
	"github.com/okian/oche/internal/domain/scoring"
	"github.com/okian/oche/pkg/logger"
	"github.com/okian/oche/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	journalTimeout          = 5 * time.Second
)

// Throw abstracts what workers read off the queue.
type Throw = model.Throw

// Scorer turns a throw into a score.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input) (scoring.Result, error)
}

// Updater adds points to a player's running total.
type Updater interface {
	AddPoints(ctx context.Context, playerID, throwID string, points int) error
}

// Journal persists processed throws.
type Journal interface {
	Append(ctx context.Context, st model.ScoredThrow) error
}

// Queue defines how workers receive throws.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Throw
}

// Worker processes throws and writes score updates using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// counters are shared by every worker of a pool.
type counters struct {
	processed atomic.Int64
	failed    atomic.Int64
}

// InMemoryWorker implements Worker for processing throws.
type InMemoryWorker struct {
	queue   Queue
	scorer  Scorer
	updater Updater
	journal Journal
	name    string
	now     func() time.Time
	stats   *counters

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		scorer:   scorer,
		updater:  updater,
		name:     "worker",
		now:      time.Now,
		stats:    &counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	throws := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-throws:
			if !ok {
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Debug(ctx, "throw not counted", logger.String("throw_id", t.ThrowID), logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// process scores one throw, updates the player's total and journals the result.
func (w *InMemoryWorker) process(ctx context.Context, t Throw) error { //nolint:gocritic // hugeParam: Throw must be passed by value for channel semantics
	start := time.Now()
	metrics.RecordQueueDequeue()
	defer func() {
		metrics.RecordWorkerProcessingLatency(metrics.SinceMs(start))
	}()

	res, err := w.scorer.Score(ctx, scoring.Input{
		ThrowID:  t.ThrowID,
		PlayerID: t.PlayerID,
		Board:    t.Board,
		Impact:   t.Impact,
	})
	metrics.RecordScoringLatency(metrics.SinceMs(start))

	scored := model.ScoredThrow{
		Throw:    t,
		Polar:    res.Polar,
		Score:    res.Score,
		ScoredAt: w.now(),
	}

	if err != nil {
		kind := scoring.ErrorKind(err)
		scored.ErrorKind = kind
		metrics.RecordScoringError(kind)
		w.stats.failed.Add(1)
		w.logger.Warn(ctx, "scoring failed",
			logger.String("throw_id", t.ThrowID),
			logger.String("player_id", t.PlayerID),
			logger.String("kind", kind),
			logger.Error(err),
		)
		w.record(ctx, scored)
		return fmt.Errorf("score throw %s: %w", t.ThrowID, err)
	}

	points := res.Score.Points()
	metrics.RecordThrowScored(res.Score.Ring.String(), points)

	if err := w.updater.AddPoints(ctx, t.PlayerID, t.ThrowID, points); err != nil {
		metrics.RecordLeaderboardError()
		w.stats.failed.Add(1)
		w.logger.Error(ctx, "leaderboard update failed",
			logger.String("throw_id", t.ThrowID),
			logger.Error(err),
		)
		return fmt.Errorf("leaderboard update failed: %w", err)
	}
	metrics.RecordLeaderboardUpdate()
	w.stats.processed.Add(1)

	w.record(ctx, scored)
	w.logger.Debug(ctx, "throw scored",
		logger.String("throw_id", t.ThrowID),
		logger.String("player_id", t.PlayerID),
		logger.String("score", res.Score.String()),
		logger.Int("points", points),
	)
	return nil
}

// record writes the throw to the journal, if any. Journal failures never
// undo the leaderboard update.
func (w *InMemoryWorker) record(ctx context.Context, st model.ScoredThrow) { //nolint:gocritic // hugeParam
	if w.journal == nil {
		return
	}
	// Detach from ctx so throws drained during shutdown are still journalled.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	start := time.Now()
	err := w.journal.Append(jctx, st)
	metrics.RecordJournalLatency(metrics.SinceMs(start))
	if err != nil {
		metrics.RecordJournalError("append")
		w.logger.Error(ctx, "journal append failed", logger.String("throw_id", st.ThrowID), logger.Error(err))
		return
	}
	metrics.RecordJournalWrite()
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *counters

	logger logger.Logger
}

// NewPool creates a new worker pool. opts are applied to every worker.
func NewPool(workerCount int, queue Queue, scorer Scorer, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		stats:   &counters{},
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := range workerCount {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, scorer, updater, workerOpts...)
		w.stats = pool.stats
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns how many throws were scored and counted.
func (p *Pool) Processed() int64 {
	return p.stats.processed.Load()
}

// Failed returns how many throws could not be scored or counted.
func (p *Pool) Failed() int64 {
	return p.stats.failed.Load()
}

// Shutdown closes the queue and lets the workers drain it. If ctx expires
// first the workers are stopped and the remaining throws are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}

	if !timedOut {
		return nil
	}

	var errs []error
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	for _, w := range p.workers {
		if err := w.Shutdown(stopCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(append(errs, fmt.Errorf("drain: %w", ctx.Err()))...)
}
