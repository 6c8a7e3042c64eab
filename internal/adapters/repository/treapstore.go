package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/oche/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total DESC, then playerID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Subtree sizes give O(log n) rank queries.

const (
	defaultSnapshotInterval = time.Second
	defaultTopCacheSize     = 100
)

// record is what the store keeps per player.
type record struct {
	total       int
	throws      int
	lastThrowID string
}

// treap node
type node struct {
	id    string
	total int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aTotal, aID) should appear before (bTotal, bID).
func less(aTotal int, aID string, bTotal int, bID string) bool {
	if aTotal != bTotal {
		return aTotal > bTotal
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, total int, prio uint64) *node {
	if n == nil {
		return &node{id: id, total: total, prio: prio, size: 1}
	}
	if less(total, id, n.total, n.id) {
		n.left = insert(n.left, id, total, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, total, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, total int) *node {
	if n == nil {
		return nil
	}
	if total == n.total && id == n.id {
		// Rotate the higher priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, total)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, total)
		}
	} else if less(total, id, n.total, n.id) {
		n.left = deleteNode(n.left, id, total)
	} else {
		n.right = deleteNode(n.right, id, total)
	}
	fix(n)
	return n
}

// countAbove returns how many players have a total strictly greater than total.
func countAbove(n *node, total int) int {
	count := 0
	for n != nil {
		if n.total > total {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		rec := records[n.id]
		*out = append(*out, Entry{
			PlayerID:    n.id,
			Total:       rec.total,
			Throws:      rec.throws,
			LastThrowID: rec.lastThrowID,
		})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// assignRanks applies competition ranking ("1224") to a prefix of the
// leaderboard: tied players share the rank of the first of them and the
// next distinct total skips past the tie.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Total == entries[i-1].Total {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// TreapStore is an in-memory Store ranked by running total.
type TreapStore struct {
	mu               sync.RWMutex
	root             *node
	byID             map[string]record
	totalPoints      int64
	totalThrows      int64
	snapshotInterval time.Duration
	topCacheSize     int
	now              func() time.Time

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

var _ Store = (*TreapStore)(nil)

// NewTreapStore constructs a treap store and starts its snapshot publisher,
// which runs until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:             make(map[string]record),
		snapshotInterval: defaultSnapshotInterval,
		topCacheSize:     defaultTopCacheSize,
		now:              time.Now,
		stopChan:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.publishSnapshot()
	s.startPeriodicSnapshots(ctx)
	return s
}

func (s *TreapStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

// publishSnapshot rebuilds and publishes a new snapshot.
func (s *TreapStore) publishSnapshot() {
	start := time.Now()

	s.mu.RLock()
	top := make([]Entry, 0, min(s.topCacheSize, len(s.byID)))
	collectTopN(s.root, s.topCacheSize, s.byID, &top)
	snap := &Snapshot{
		Players:     len(s.byID),
		TotalPoints: s.totalPoints,
		TotalThrows: s.totalThrows,
		Top:         top,
		TakenAt:     s.now(),
	}
	s.mu.RUnlock()

	assignRanks(snap.Top)
	s.snapshot.Store(snap)
	metrics.RecordSnapshotDuration(metrics.SinceMs(start))
}

// Close stops the snapshot publisher. It is safe to call more than once.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// AddPoints implements Store.AddPoints in O(log n) expected time.
func (s *TreapStore) AddPoints(ctx context.Context, playerID, throwID string, points int) error {
	if playerID == "" {
		return ErrInvalidPlayer
	}
	if points < 0 {
		return ErrInvalidPoints
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	old, known := s.byID[playerID]
	if known {
		s.root = deleteNode(s.root, playerID, old.total)
	}
	rec := record{total: old.total + points, throws: old.throws + 1, lastThrowID: throwID}
	s.byID[playerID] = rec
	s.root = insert(s.root, playerID, rec.total, rand.Uint64())
	s.totalPoints += int64(points)
	s.totalThrows++
	players := len(s.byID)
	s.mu.Unlock()

	if !known {
		metrics.UpdateTotalPlayers(players)
	}
	return nil
}

// Rank returns the current rank and total for a player in O(log n).
func (s *TreapStore) Rank(_ context.Context, playerID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[playerID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:        countAbove(s.root, rec.total) + 1,
		PlayerID:    playerID,
		Total:       rec.total,
		Throws:      rec.throws,
		LastThrowID: rec.lastThrowID,
	}, nil
}

// TopN returns the top N entries ordered by total desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	s.mu.RUnlock()

	assignRanks(out)
	return out, nil
}

// Count returns the total number of players.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot returns the latest published snapshot. It lags writes by at most
// one snapshot interval.
func (s *TreapStore) Snapshot(_ context.Context) *Snapshot {
	return s.snapshot.Load()
}
