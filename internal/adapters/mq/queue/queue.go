package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/oche/internal/domain/model"
	"github.com/okian/oche/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Throw is the payload type flowing through the queue.
type Throw = model.Throw

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a throw without blocking. It returns ErrFull when the
	// buffer is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, t Throw) error

	// Dequeue returns the channel workers read throws from. The channel is
	// closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Throw

	// Len returns the current number of queued throws.
	Len(ctx context.Context) int

	// Close stops accepting throws. Buffered throws remain readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	throws   chan Throw
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.throws = make(chan Throw, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a throw to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Throw) error { //nolint:gocritic // hugeParam: Throw must be passed by value for channel semantics
	// Holding the read lock keeps Close from closing the channel mid-send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue %s: %w", t.ThrowID, err)
	}

	select {
	case q.throws <- t:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.throws))
		return nil
	default:
		metrics.RecordQueueEnqueueError("full")
		return ErrFull
	}
}

// Dequeue returns the channel throws are delivered on.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Throw {
	return q.throws
}

// Len returns the current number of queued throws.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.throws)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the maximum number of buffered throws.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.throws)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
