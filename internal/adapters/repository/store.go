// Package repository keeps per-player running totals ranked in a treap.
package repository

import (
	"context"
	"time"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank        int
	PlayerID    string
	Total       int
	Throws      int
	LastThrowID string
}

// Snapshot is an immutable view of the leaderboard published periodically.
type Snapshot struct {
	Players     int
	TotalPoints int64
	TotalThrows int64
	Top         []Entry // rank order, at most the configured top cache size
	TakenAt     time.Time
}

// Store provides read/write access to the ranking state.
type Store interface {
	// AddPoints adds points to the player's running total, creating the player
	// on first sight. A zero-point throw still counts as a throw.
	AddPoints(ctx context.Context, playerID, throwID string, points int) error

	// Rank returns the current rank and total for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (Entry, error)

	// TopN returns the top-N entries ordered by total desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players tracked in the leaderboard.
	Count(ctx context.Context) int

	// Snapshot returns the most recently published snapshot.
	Snapshot(ctx context.Context) *Snapshot
}
