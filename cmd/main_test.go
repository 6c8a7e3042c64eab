package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/oche/internal/config"
	"github.com/okian/oche/pkg/logger"
)

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Addr = "127.0.0.1:0"
	cfg.WorkerCount = 2
	cfg.QueueSize = 16
	cfg.JournalDriver = config.JournalSQLite
	cfg.JournalDSN = ":memory:"
	return cfg
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service behind the full mux", t, func() {
		_ = logger.Init()
		ctx, cancel := context.WithCancel(context.Background())
		cfg := testConfig()

		svc := newService(cfg)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() {
			_ = svc.Stop(context.Background())
			cancel()
		})
		mux := newMux(cfg, svc)

		convey.Convey("Then every surface should be routed", func() {
			for path, want := range map[string]int{
				"/":               http.StatusOK,
				"/api-docs":       http.StatusOK,
				"/openapi.yaml":   http.StatusOK,
				"/healthz":        http.StatusOK,
				"/stats":          http.StatusOK,
				"/sectors":        http.StatusOK,
				"/leaderboard":    http.StatusOK,
				"/players/nobody": http.StatusNotFound,
			} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(path+" "+http.StatusText(w.Code), convey.ShouldEqual, path+" "+http.StatusText(want))
			}
		})

		convey.Convey("Then a posted throw should reach the leaderboard", func() {
			body := `{"throw_id": "m-1", "player_id": "alice",
				"board": {"center": {"x": 200, "y": 200}, "width": 400, "height": 400},
				"impact": {"x": 200, "y": 110}}`
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/throws", strings.NewReader(body)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)

			deadline := time.Now().Add(2 * time.Second)
			code := 0
			for time.Now().Before(deadline) {
				w = httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/players/alice", nil))
				if code = w.Code; code == http.StatusOK {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			convey.So(code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"total":60`)

			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/players/alice/throws", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"throw_id":"m-1"`)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration listening on a free port", t, func() {
		_ = logger.Init()
		cfg := testConfig()

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then run should shut down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the address is unusable", func() {
			cfg.Addr = "256.0.0.1:99999"

			convey.Convey("Then run should report the listen error", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				convey.So(run(ctx, cfg), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestConfigureLogging(t *testing.T) {
	convey.Convey("Given invalid logging settings", t, func() {
		_ = logger.Init()
		cfg := config.New()
		cfg.LogLevel = "loud"
		cfg.LogFormat = "xml"

		convey.Convey("Then configureLogging should fall back without panicking", func() {
			convey.So(func() { configureLogging(context.Background(), cfg) }, convey.ShouldNotPanic)
		})
	})
}
