package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/oche/internal/domain/model"
	"github.com/okian/oche/internal/domain/polar"
	"github.com/okian/oche/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id, player string, at time.Time, s polar.Score) model.ScoredThrow {
	return model.ScoredThrow{
		Throw: model.Throw{
			ThrowID:  id,
			PlayerID: player,
			Board:    polar.Ellipse{Center: polar.Point{X: 200, Y: 200}, Width: 400, Height: 380, Rotation: 3},
			Impact:   polar.Point{X: 200, Y: 110},
			TS:       at.Add(-time.Millisecond),
		},
		Polar:    polar.RadiusAngle{Radius: 90, Angle: 90},
		Score:    s,
		ScoredAt: at,
	}
}

func TestSQLJournal(t *testing.T) {
	Convey("Given a journal on an in-memory SQLite database", t, func() {
		_ = logger.Init()
		ctx := context.Background()

		j, err := Open(ctx, DriverSQLite, ":memory:", WithMaxHistory(50))
		So(err, ShouldBeNil)
		Reset(func() { _ = j.Close() })

		base := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

		Convey("When throws are appended", func() {
			So(j.Append(ctx, scored("t1", "p1", base, polar.Score{Value: 20, Ring: polar.RingTriple})), ShouldBeNil)
			So(j.Append(ctx, scored("t2", "p1", base.Add(time.Second), polar.Score{Value: 25, Ring: polar.RingBull})), ShouldBeNil)
			So(j.Append(ctx, scored("t3", "p2", base, polar.Score{Ring: polar.RingMiss})), ShouldBeNil)

			Convey("Then history should list the player's throws newest first", func() {
				records, err := j.History(ctx, "p1", 10)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)

				So(records[0].ThrowID, ShouldEqual, "t2")
				So(records[0].Ring, ShouldEqual, "bull")
				So(records[0].Points, ShouldEqual, 25)

				So(records[1].ThrowID, ShouldEqual, "t1")
				So(records[1].Ring, ShouldEqual, "triple")
				So(records[1].Multiplier, ShouldEqual, 3)
				So(records[1].Points, ShouldEqual, 60)
				So(records[1].Radius, ShouldEqual, 90.0)
				So(records[1].ImpactY, ShouldEqual, 110.0)
				So(records[1].ScoredAt.Equal(base), ShouldBeTrue)
				So(records[1].ThrownAt.Equal(base.Add(-time.Millisecond)), ShouldBeTrue)
			})

			Convey("Then the limit should be applied", func() {
				records, err := j.History(ctx, "p1", 1)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].ThrowID, ShouldEqual, "t2")
			})

			Convey("Then counts should be per player", func() {
				n, err := j.Count(ctx, "p1")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				n, err = j.Count(ctx, "nobody")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When the same throw id is appended twice", func() {
			So(j.Append(ctx, scored("dup", "p1", base, polar.Score{Value: 20, Ring: polar.RingTriple})), ShouldBeNil)
			So(j.Append(ctx, scored("dup", "p1", base, polar.Score{Value: 1, Ring: polar.RingDouble})), ShouldBeNil)

			Convey("Then only the first should be kept", func() {
				records, err := j.History(ctx, "p1", 10)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].Points, ShouldEqual, 60)
			})
		})

		Convey("When a failed throw is appended", func() {
			st := scored("bad", "p3", base, polar.Score{})
			st.Polar = polar.RadiusAngle{Radius: polar.InvalidRadius}
			st.ErrorKind = "invalid_point"
			So(j.Append(ctx, st), ShouldBeNil)

			Convey("Then its error kind should be returned", func() {
				records, err := j.History(ctx, "p3", 10)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].ErrorKind, ShouldEqual, "invalid_point")
				So(records[0].Radius, ShouldEqual, float64(polar.InvalidRadius))
			})
		})

		Convey("When the history limit is out of range", func() {
			_, err := j.History(ctx, "p1", 0)
			So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)

			_, err = j.History(ctx, "p1", 51)
			So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When many throws are appended concurrently", func() {
			errs := make(chan error, 40)
			for i := range 40 {
				go func(i int) {
					errs <- j.Append(ctx, scored(fmt.Sprintf("c%d", i), "busy", base.Add(time.Duration(i)), polar.Score{Value: 5, Ring: polar.RingInnerSingle}))
				}(i)
			}
			for range 40 {
				So(<-errs, ShouldBeNil)
			}

			Convey("Then all of them should be stored", func() {
				n, err := j.Count(ctx, "busy")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 40)
			})
		})

		Convey("When the journal is closed", func() {
			So(j.Close(), ShouldBeNil)
			So(j.Close(), ShouldBeNil)

			Convey("Then further use should fail with ErrClosed", func() {
				So(errors.Is(j.Append(ctx, scored("late", "p1", base, polar.Score{})), ErrClosed), ShouldBeTrue)
				_, err := j.History(ctx, "p1", 1)
				So(errors.Is(err, ErrClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unknown driver", t, func() {
		_ = logger.Init()

		Convey("Then Open should refuse it", func() {
			_, err := Open(context.Background(), "mysql", "dsn")
			So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
		})

		Convey("Then New should refuse it too", func() {
			db, err := sql.Open(DriverSQLite, ":memory:")
			So(err, ShouldBeNil)
			defer db.Close()

			_, err = New(context.Background(), db, "oracle")
			So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
		})
	})
}

func TestRebindDollar(t *testing.T) {
	Convey("Given a query with question mark placeholders", t, func() {
		q := "SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?"

		Convey("Then they should be numbered for postgres", func() {
			So(rebindDollar(q), ShouldEqual, "SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3")
		})

		Convey("And sqlite queries should be left alone", func() {
			j := &SQLJournal{driver: DriverSQLite}
			So(j.rebind(q), ShouldEqual, q)

			j.driver = DriverPostgres
			So(j.rebind(insertQuery), ShouldContainSubstring, "$18")
		})
	})
}
