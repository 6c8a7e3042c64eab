package throwsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/oche/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete simulation: generate, submit, wait, verify.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("throwsim")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting throw simulation",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("throws", cfg.Throws),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Float64("board_width", cfg.BoardWidth))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	gen, err := NewGenerator(cfg)
	if err != nil {
		return stats, fmt.Errorf("throw generation failed: %w", err)
	}
	planned, expected, err := gen.Generate(ctx)
	if err != nil {
		return stats, fmt.Errorf("throw generation failed: %w", err)
	}
	stats.ThrowsGenerated = len(planned)

	before, err := getServiceStats(ctx, cfg)
	if err != nil {
		return stats, fmt.Errorf("read service stats: %w", err)
	}

	throws := make([]Throw, len(planned))
	for i, p := range planned {
		throws[i] = p.Throw
	}
	submitThrows(ctx, cfg, throws, stats)
	accepted := stats.ThrowsAccepted

	if dups := gen.duplicates(planned); len(dups) > 0 {
		resend := make([]Throw, len(dups))
		for i, p := range dups {
			resend[i] = p.Throw
		}
		submitThrows(ctx, cfg, resend, stats)
	}

	if stats.ThrowsFailed > 0 {
		return stats, fmt.Errorf("%d throws could not be submitted", stats.ThrowsFailed)
	}

	if err := waitForDrain(ctx, cfg, before, accepted); err != nil {
		return stats, err
	}

	ids := make([]string, 0, len(expected))
	for id := range expected {
		ids = append(ids, id)
	}
	players := retrievePlayers(ctx, cfg, ids, stats)

	leaderboard, err := getLeaderboard(ctx, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	verifyErr := verifyResults(ctx, cfg, expected, players, leaderboard, stats)

	if cfg.OutputFile != "" {
		if err := savePlanned(ctx, cfg.OutputFile, planned); err != nil {
			log.Warn(ctx, "failed to save throws to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, verifyErr
	}
	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// waitForDrain polls /stats until the service has handled every accepted
// throw or cfg.Settle elapses.
func waitForDrain(ctx context.Context, cfg *Config, before serviceStats, accepted int) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Settle)
	defer cancel()

	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()

	for {
		s, err := getServiceStats(ctx, cfg)
		if err == nil {
			handled := (s.Processed + s.Failed) - (before.Processed + before.Failed)
			if handled >= int64(accepted) && s.QueueLength == 0 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d throws to be scored: %w", accepted, ctx.Err())
		case <-ticker.C:
		}
	}
}

// savePlanned writes the generated throws and their expected scores as JSON.
func savePlanned(ctx context.Context, filename string, planned []Planned) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(planned, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal throws: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "throws saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, throwsPerSecond float64
	if stats.ThrowsSubmitted > 0 {
		acceptRate = float64(stats.ThrowsAccepted) / float64(stats.ThrowsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		throwsPerSecond = float64(stats.ThrowsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("throws_generated", stats.ThrowsGenerated),
		logger.Int("throws_submitted", stats.ThrowsSubmitted),
		logger.Int("throws_accepted", stats.ThrowsAccepted),
		logger.Int("throws_duplicate", stats.ThrowsDuplicate),
		logger.Int("throws_failed", stats.ThrowsFailed),
		logger.Int("throws_retried", stats.ThrowsRetried),
		logger.Int("players_retrieved", stats.PlayersRetrieved),
		logger.Int("leaderboard_entries", stats.LeaderboardEntries),
		logger.Int("mismatches", stats.Mismatches),
		logger.Duration("duration", stats.Duration),
		logger.Float64("accept_rate", acceptRate),
		logger.Float64("throws_per_second", throwsPerSecond))
}
