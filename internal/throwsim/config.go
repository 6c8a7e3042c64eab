package throwsim

import (
	"time"

	"github.com/okian/oche/internal/domain/polar"
	"github.com/okian/oche/internal/domain/types"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Players         int           // Number of distinct players
	Throws          int           // Number of throws to generate
	TopN            int           // Number of top entries to fetch
	Workers         int           // Number of concurrent HTTP workers
	Timeout         time.Duration // HTTP request timeout
	Settle          time.Duration // How long to wait for the queue to drain
	BoardWidth      float64       // Board width in pixels
	SectorOffset    float64       // Sector rotation the service runs with, in degrees
	NoDetectionRate float64       // Fraction of throws sent with no detected impact
	DuplicateRate   float64       // Fraction of throws resent with the same id
	Seed            uint64        // Random seed; zero picks one from the clock
	OutputFile      string        // Output file for generated throws
	Verbose         bool          // Enable verbose logging
}

// Throw is the request body for POST /throws.
type Throw struct {
	ThrowID  string        `json:"throw_id"`
	PlayerID string        `json:"player_id"`
	Board    polar.Ellipse `json:"board"`
	Impact   polar.Point   `json:"impact"`
	TS       string        `json:"ts"`
}

// Planned is a generated throw together with the score the simulator expects.
type Planned struct {
	Throw    Throw  `json:"throw"`
	Label    string `json:"expected_label"`
	Points   int    `json:"expected_points"`
	Scorable bool   `json:"scorable"`
}

// Expected is a player's running total as computed locally.
type Expected struct {
	Total  int
	Throws int
}

// Entry represents a leaderboard entry.
type Entry = types.Entry

// AckResponse represents the response from throw submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ThrowID   string `json:"throw_id"`
}

// Stats holds run statistics.
type Stats struct {
	ThrowsGenerated    int
	ThrowsSubmitted    int
	ThrowsAccepted     int
	ThrowsDuplicate    int
	ThrowsFailed       int
	ThrowsRetried      int
	PlayersRetrieved   int
	LeaderboardEntries int
	Mismatches         int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
