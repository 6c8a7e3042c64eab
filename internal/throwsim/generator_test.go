package throwsim

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/oche/internal/domain/scoring"
	"github.com/okian/oche/pkg/logger"
)

func genConfig() *Config {
	return &Config{Players: 4, Throws: 200, BoardWidth: 400, Seed: 7, DuplicateRate: 0.1}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator on a 400px board", t, func() {
		_ = logger.Init()
		ctx := context.Background()
		cfg := genConfig()
		gen, err := NewGenerator(cfg)
		So(err, ShouldBeNil)

		Convey("When throws are generated", func() {
			planned, expected, err := gen.Generate(ctx)
			So(err, ShouldBeNil)

			Convey("Then every throw should be planned with a unique id", func() {
				So(planned, ShouldHaveLength, 200)
				ids := map[string]bool{}
				for _, p := range planned {
					ids[p.Throw.ThrowID] = true
					So(p.Throw.Impact.X, ShouldBeGreaterThanOrEqualTo, 0.0)
					So(p.Throw.Impact.Y, ShouldBeGreaterThanOrEqualTo, 0.0)
				}
				So(ids, ShouldHaveLength, 200)
			})

			Convey("Then expected totals should add up the planned points", func() {
				So(expected, ShouldHaveLength, 4)
				sums := map[string]Expected{}
				for _, p := range planned {
					So(p.Scorable, ShouldBeTrue)
					e := sums[p.Throw.PlayerID]
					e.Total += p.Points
					e.Throws++
					sums[p.Throw.PlayerID] = e
				}
				So(sums, ShouldResemble, expected)
			})

			Convey("Then some throws should miss the board", func() {
				misses := 0
				for _, p := range planned {
					if p.Label == "miss" {
						misses++
						So(p.Points, ShouldEqual, 0)
					}
				}
				So(misses, ShouldBeGreaterThan, 0)
			})

			Convey("Then duplicates should be drawn from the planned throws", func() {
				dups := gen.duplicates(planned)
				So(len(dups), ShouldBeLessThan, len(planned))
				for _, d := range dups {
					So(d.Throw.ThrowID, ShouldNotBeEmpty)
				}
			})
		})

		Convey("When the same seed is reused", func() {
			other, err := NewGenerator(genConfig())
			So(err, ShouldBeNil)
			So(other.aim(), ShouldResemble, gen.aim())
		})
	})

	Convey("Given every impact goes undetected", t, func() {
		_ = logger.Init()
		cfg := genConfig()
		cfg.NoDetectionRate = 1
		gen, err := NewGenerator(cfg)
		So(err, ShouldBeNil)

		Convey("Then no throw should be scorable", func() {
			planned, expected, err := gen.Generate(context.Background())
			So(err, ShouldBeNil)
			So(expected, ShouldBeEmpty)
			for _, p := range planned {
				So(p.Scorable, ShouldBeFalse)
				So(p.Label, ShouldEqual, scoring.KindInvalidPoint)
			}
		})
	})

	Convey("Given a board too small to score", t, func() {
		cfg := genConfig()
		cfg.BoardWidth = 40

		Convey("Then the generator should refuse it", func() {
			_, err := NewGenerator(cfg)
			So(errors.Is(err, scoring.ErrBoardTooSmall), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		_ = logger.Init()
		gen, err := NewGenerator(genConfig())
		So(err, ShouldBeNil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then generation should stop", func() {
			_, _, err := gen.Generate(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
