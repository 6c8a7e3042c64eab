package throwsim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/oche/internal/domain/board"
	"github.com/okian/oche/internal/domain/polar"
	"github.com/okian/oche/internal/domain/scoring"
	"github.com/okian/oche/pkg/logger"
)

// Generator produces throws and the totals the service should arrive at.
type Generator struct {
	cfg    *Config
	rng    *rand.Rand
	scorer *scoring.InMemoryScorer
	board  polar.Ellipse
	limits board.RingLimits
}

// NewGenerator creates a generator for cfg. The scorer uses the same sector
// table as the service so expected totals match exactly.
func NewGenerator(cfg *Config) (*Generator, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	g := &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed>>1|1)),
		scorer: scoring.NewInMemoryScorer(
			scoring.WithSectorTable(board.NewSectorTable(board.WithRotationOffset(cfg.SectorOffset))),
		),
		board: polar.Ellipse{
			Center: polar.Point{X: cfg.BoardWidth / 2, Y: cfg.BoardWidth / 2},
			Width:  cfg.BoardWidth,
			Height: cfg.BoardWidth * boardAspect,
		},
	}
	limits, err := g.scorer.Limits(g.board)
	if err != nil {
		return nil, fmt.Errorf("board of width %.0f: %w", cfg.BoardWidth, err)
	}
	g.limits = limits
	return g, nil
}

// Generate creates cfg.Throws throws spread over cfg.Players players.
func (g *Generator) Generate(ctx context.Context) ([]Planned, map[string]Expected, error) {
	logger.Get().Info(ctx, "generating throws",
		logger.Int("throws", g.cfg.Throws),
		logger.Int("players", g.cfg.Players))

	players := make([]string, g.cfg.Players)
	for i := range players {
		players[i] = uuid.NewString()
	}

	planned := make([]Planned, 0, g.cfg.Throws)
	expected := make(map[string]Expected, len(players))
	for i := range g.cfg.Throws {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("context cancelled during throw generation: %w", err)
		}
		p, err := g.plan(ctx, players[i%len(players)])
		if err != nil {
			return nil, nil, err
		}
		if p.Scorable {
			e := expected[p.Throw.PlayerID]
			e.Total += p.Points
			e.Throws++
			expected[p.Throw.PlayerID] = e
		}
		planned = append(planned, p)
	}

	logger.Get().Info(ctx, "generated throws successfully",
		logger.Int("count", len(planned)),
		logger.Int("scoring_players", len(expected)))
	return planned, expected, nil
}

// plan aims one throw at a random point on or just off the board.
func (g *Generator) plan(ctx context.Context, playerID string) (Planned, error) {
	t := Throw{
		ThrowID:  uuid.NewString(),
		PlayerID: playerID,
		Board:    g.board,
		Impact:   g.aim(),
		TS:       time.Now().UTC().Format(time.RFC3339),
	}
	if g.rng.Float64() < g.cfg.NoDetectionRate {
		t.Impact = polar.Point{X: -1, Y: -1}
	}

	res, err := g.scorer.Score(ctx, scoring.Input{ThrowID: t.ThrowID, PlayerID: playerID, Board: t.Board, Impact: t.Impact})
	switch kind := scoring.ErrorKind(err); kind {
	case "":
		return Planned{Throw: t, Label: res.Score.String(), Points: res.Score.Points(), Scorable: true}, nil
	case scoring.KindInvalidPoint, scoring.KindAngleOutOfRange:
		return Planned{Throw: t, Label: kind}, nil
	default:
		return Planned{}, fmt.Errorf("score planned throw: %w", err)
	}
}

// aim picks a point uniformly over a disc slightly larger than the board.
func (g *Generator) aim() polar.Point {
	maxR := float64(g.limits.OuterDouble) * overshootFactor
	r := maxR * math.Sqrt(g.rng.Float64())
	theta := g.rng.Float64() * 2 * math.Pi
	return polar.Point{
		X: g.board.Center.X + r*math.Cos(theta),
		Y: g.board.Center.Y - r*math.Sin(theta),
	}
}

// duplicates picks throws to resend with the same id.
func (g *Generator) duplicates(planned []Planned) []Planned {
	var out []Planned
	for _, p := range planned {
		if g.rng.Float64() < g.cfg.DuplicateRate {
			out = append(out, p)
		}
	}
	return out
}
