// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New builds a Config with defaults; Load layers file and env on top.
// - Validate reports every bad field wrapped in ErrInvalidConfig.
package config

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"
)

// Journal drivers accepted by JournalDriver.
const (
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
	JournalNone     = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory throw queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the throw id deduplication set. Zero means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxHistoryLimit caps GET /players/{id}/throws?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`

	// SectorOffsetDeg rotates the sector table counter-clockwise, in degrees.
	SectorOffsetDeg float64 `koanf:"sector_offset_deg"`

	// LimitsCacheSize bounds how many board widths have memoised ring limits.
	LimitsCacheSize int `koanf:"limits_cache_size"`

	// JournalDriver is sqlite, postgres or none.
	JournalDriver string `koanf:"journal_driver"`

	// JournalDSN is passed to the journal driver.
	JournalDSN string `koanf:"journal_dsn"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		MaxHistoryLimit:     500,
		SectorOffsetDeg:     0,
		LimitsCacheSize:     64,
		JournalDriver:       JournalSQLite,
		JournalDSN:          "file:oche.db?_pragma=busy_timeout(5000)",
	}
}

// Validate checks every field and joins all problems into one error.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Addr == "" {
		bad("addr must not be empty")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		bad("log_level %q", c.LogLevel)
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.LogFormat)) {
		bad("log_format %q", c.LogFormat)
	}
	if c.QueueSize < 1 {
		bad("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.WorkerCount < 1 {
		bad("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.DedupeSize < 0 {
		bad("dedupe_size must not be negative, got %d", c.DedupeSize)
	}
	if c.MaxLeaderboardLimit < 1 {
		bad("max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit)
	}
	if c.MaxHistoryLimit < 1 {
		bad("max_history_limit must be positive, got %d", c.MaxHistoryLimit)
	}
	if math.IsNaN(c.SectorOffsetDeg) || math.IsInf(c.SectorOffsetDeg, 0) {
		bad("sector_offset_deg must be finite")
	}
	if c.LimitsCacheSize < 0 {
		bad("limits_cache_size must not be negative, got %d", c.LimitsCacheSize)
	}
	switch c.JournalDriver {
	case JournalSQLite, JournalPostgres:
		if c.JournalDSN == "" {
			bad("journal_dsn is required for driver %s", c.JournalDriver)
		}
	case JournalNone:
	default:
		bad("journal_driver %q", c.JournalDriver)
	}

	return errors.Join(errs...)
}

// JournalEnabled reports whether throws should be persisted.
func (c *Config) JournalEnabled() bool {
	return c.JournalDriver != JournalNone
}
