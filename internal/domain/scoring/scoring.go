// Package scoring turns a throw on a fitted board into a dartboard score.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/oche/internal/domain/board"
	"github.com/okian/oche/internal/domain/polar"
)

const defaultLimitsCacheSize = 256

// Option applies a configuration option to the InMemoryScorer.
type Option func(*InMemoryScorer)

// WithSectorTable sets the table used to resolve angles into face values.
func WithSectorTable(t *board.SectorTable) Option {
	return func(s *InMemoryScorer) {
		if t != nil {
			s.table = t
		}
	}
}

// WithLimitsCacheSize bounds how many boards keep memoised ring limits.
// A size <= 0 disables memoisation.
func WithLimitsCacheSize(n int) Option {
	return func(s *InMemoryScorer) {
		s.cacheSize = n
	}
}

// Input carries the throw fields needed for scoring.
type Input struct {
	ThrowID  string
	PlayerID string
	Board    polar.Ellipse
	Impact   polar.Point
}

// Result is the scored throw.
type Result struct {
	ThrowID  string
	PlayerID string
	Polar    polar.RadiusAngle
	Limits   board.RingLimits
	Score    polar.Score
}

// Scorer computes a score from an input.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// InMemoryScorer implements Scorer on top of the polar resolver.
type InMemoryScorer struct {
	table     *board.SectorTable
	cacheSize int

	mu     sync.Mutex
	limits map[float64]board.RingLimits
	order  []float64 // insertion order for eviction
}

// NewInMemoryScorer creates a scorer using the default sector table.
func NewInMemoryScorer(opts ...Option) *InMemoryScorer {
	s := &InMemoryScorer{
		table:     board.DefaultSectorTable(),
		cacheSize: defaultLimitsCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limits = make(map[float64]board.RingLimits)
	return s
}

// Score scores a single throw.
func (s *InMemoryScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{ThrowID: in.ThrowID, PlayerID: in.PlayerID}

	limits, err := s.Limits(in.Board)
	if err != nil {
		res.Polar = polar.RadiusAngle{Radius: polar.InvalidRadius}
		return res, err
	}
	res.Limits = limits

	res.Polar = polar.Resolve(in.Board.Center, in.Impact)
	score, err := polar.Classify(res.Polar, limits, s.table)
	if err != nil {
		return res, err
	}
	res.Score = score
	return res, nil
}

// Limits validates the board and returns its ring radii.
func (s *InMemoryScorer) Limits(e polar.Ellipse) (board.RingLimits, error) {
	if err := e.Validate(); err != nil {
		return board.RingLimits{}, fmt.Errorf("%w: %w", ErrInvalidBoard, err)
	}
	extent := e.HorizontalExtent()
	if !(extent >= board.MinBoardWidth) {
		return board.RingLimits{}, fmt.Errorf("%w: %.1fpx < %dpx", ErrBoardTooSmall, extent, board.MinBoardWidth)
	}
	if s.cacheSize <= 0 {
		return board.ComputeLimits(extent), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.limits[extent]; ok {
		return l, nil
	}
	l := board.ComputeLimits(extent)
	if len(s.order) >= s.cacheSize {
		delete(s.limits, s.order[0])
		s.order = s.order[1:]
	}
	s.limits[extent] = l
	s.order = append(s.order, extent)
	return l, nil
}

// Table returns the sector table used by the scorer.
func (s *InMemoryScorer) Table() *board.SectorTable {
	return s.table
}

// CachedBoards returns how many boards currently have memoised limits.
func (s *InMemoryScorer) CachedBoards() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limits)
}

// Error kinds reported in metrics, the journal and API responses.
const (
	KindInvalidPoint    = "invalid_point"
	KindAngleOutOfRange = "angle_out_of_range"
	KindBoardTooSmall   = "board_too_small"
	KindInvalidBoard    = "invalid_board"
	KindCanceled        = "canceled"
	KindUnknown         = "unknown"
)

// ErrorKind classifies a scoring error. It returns "" for a nil error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, polar.ErrInvalidPoint):
		return KindInvalidPoint
	case errors.Is(err, polar.ErrAngleOutOfRange):
		return KindAngleOutOfRange
	case errors.Is(err, ErrBoardTooSmall):
		return KindBoardTooSmall
	case errors.Is(err, ErrInvalidBoard):
		return KindInvalidBoard
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
