// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/oche/internal/domain/polar"
)

// Throw is a dart impact reported by the vision pipeline.
// Fields mirror the OpenAPI schema for /throws.
type Throw struct {
	ThrowID  string        // unique id for idempotency
	PlayerID string        // player who threw the dart
	Board    polar.Ellipse // fitted outer boundary of the scoring face
	Impact   polar.Point   // detected impact point in the same pixel space
	TS       time.Time     // detection timestamp
}

// ScoredThrow is a throw after scoring. ErrorKind is set when scoring failed.
type ScoredThrow struct {
	Throw
	Polar     polar.RadiusAngle
	Score     polar.Score
	ErrorKind string
	ScoredAt  time.Time
}

// Failed reports whether the throw could not be scored.
func (s ScoredThrow) Failed() bool {
	return s.ErrorKind != ""
}

// PlayerTotal is a player's running total used for ranking.
type PlayerTotal struct {
	PlayerID string
	Total    int
	Throws   int
}
