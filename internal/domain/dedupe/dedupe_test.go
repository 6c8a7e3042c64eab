package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/oche/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a throw id is new", func() {
			seen := d.SeenAndRecord(ctx, "throw-1")

			Convey("Then it should return false and record the id", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When a throw id is submitted twice", func() {
			d.SeenAndRecord(ctx, "throw-1")
			seen := d.SeenAndRecord(ctx, "throw-1")

			Convey("Then the second call should report it as seen", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "throw-1")
			d.Unrecord(ctx, "throw-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, int64(0))
				So(d.SeenAndRecord(ctx, "throw-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "nonexistent")

			Convey("Then nothing should change", func() {
				So(d.Size(), ShouldEqual, int64(0))
			})
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"throw-1", "throw-2", "throw-3"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("When a fourth id arrives", func() {
			So(d.SeenAndRecord(ctx, "throw-4"), ShouldBeFalse)

			Convey("Then the oldest id should be forgotten", func() {
				So(d.Size(), ShouldEqual, int64(3))
				So(d.SeenAndRecord(ctx, "throw-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "throw-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "throw-1"), ShouldBeFalse)
			})
		})

		Convey("When an id in the middle is unrecorded", func() {
			d.Unrecord(ctx, "throw-2")
			d.SeenAndRecord(ctx, "throw-4")
			d.SeenAndRecord(ctx, "throw-5")

			Convey("Then eviction should continue from the oldest remaining id", func() {
				So(d.Size(), ShouldEqual, int64(3))
				So(d.SeenAndRecord(ctx, "throw-5"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "throw-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "throw-3"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		for _, size := range []int{0, -1} {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(size))
			const n = 1000
			for i := range n {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("throw-%d", i)), ShouldBeFalse)
			}

			Convey(fmt.Sprintf("Then max size %d should keep every id", size), func() {
				So(d.Size(), ShouldEqual, int64(n))
				So(d.SeenAndRecord(ctx, "throw-0"), ShouldBeTrue)
				d.Unrecord(ctx, "throw-0")
				So(d.Size(), ShouldEqual, int64(n-1))
			})
		}
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const numGoroutines = 10
		const idsPerGoroutine = 100

		Convey("When multiple goroutines record the same ids", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0

			for range numGoroutines {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := range idsPerGoroutine {
						if !d.SeenAndRecord(context.Background(), fmt.Sprintf("throw-%d", j)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id should be reported new exactly once", func() {
				So(fresh, ShouldEqual, idsPerGoroutine)
				So(d.Size(), ShouldEqual, int64(idsPerGoroutine))
			})
		})

		Convey("When goroutines record and unrecord distinct ids", func() {
			var wg sync.WaitGroup
			for g := range numGoroutines {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := range idsPerGoroutine {
						id := fmt.Sprintf("throw-%d-%d", g, j)
						d.SeenAndRecord(context.Background(), id)
						d.Unrecord(context.Background(), id)
					}
				}(g)
			}
			wg.Wait()

			Convey("Then the set should end empty", func() {
				So(d.Size(), ShouldEqual, int64(0))
			})
		})
	})
}
