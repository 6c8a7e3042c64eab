// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/oche/internal/domain/board"
)

// Entry represents a leaderboard entry
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Total    int    `json:"total"`
	Throws   int    `json:"throws"`
}

// ThrowRecord is one journalled throw as returned by the history endpoint.
type ThrowRecord struct {
	ThrowID    string    `json:"throw_id"`
	PlayerID   string    `json:"player_id"`
	ImpactX    float64   `json:"impact_x"`
	ImpactY    float64   `json:"impact_y"`
	Radius     float64   `json:"radius"`
	Angle      float64   `json:"angle"`
	Value      int       `json:"value"`
	Ring       string    `json:"ring"`
	Multiplier int       `json:"multiplier"`
	Points     int       `json:"points"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	ThrownAt   time.Time `json:"thrown_at"`
	ScoredAt   time.Time `json:"scored_at"`
}

// ScoreResult is the synchronous scoring response.
type ScoreResult struct {
	Radius     float64          `json:"radius"`
	Angle      float64          `json:"angle"`
	Value      int              `json:"value"`
	Ring       string           `json:"ring"`
	Multiplier int              `json:"multiplier"`
	Points     int              `json:"points"`
	Label      string           `json:"label"`
	Limits     board.RingLimits `json:"limits"`
}
