package throwsim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/oche/pkg/logger"
)

// ErrVerification is returned when the service disagrees with the simulator.
var ErrVerification = errors.New("verification failed")

// verifyResults compares the service's totals with the locally computed ones
// and checks the leaderboard ordering.
func verifyResults(ctx context.Context, cfg *Config, expected map[string]Expected, players map[string]Entry, leaderboard []Entry, stats *Stats) error {
	log := logger.Get().Named("throwsim")
	log.Info(ctx, "verifying results")

	var errs []error
	for id, want := range expected {
		got, ok := players[id]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("player %s missing from service", id))
		case got.Total != want.Total || got.Throws != want.Throws:
			errs = append(errs, fmt.Errorf("player %s: total %d over %d throws, want %d over %d",
				id, got.Total, got.Throws, want.Total, want.Throws))
		}
	}
	stats.Mismatches = len(errs)

	if err := verifyLeaderboard(expected, leaderboard); err != nil {
		errs = append(errs, err)
	}

	if cfg.Verbose {
		for _, err := range errs {
			log.Warn(ctx, "mismatch", logger.Error(err))
		}
	}
	displayTopPlayers(ctx, leaderboard)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
	}
	log.Info(ctx, "result verification completed")
	return nil
}

// verifyLeaderboard checks ordering and competition ranks, and that the top
// entry is at least the best simulated total.
func verifyLeaderboard(expected map[string]Expected, leaderboard []Entry) error {
	if len(expected) == 0 {
		if len(leaderboard) != 0 {
			return fmt.Errorf("leaderboard has %d entries, want none", len(leaderboard))
		}
		return nil
	}
	if len(leaderboard) == 0 {
		return errors.New("empty leaderboard")
	}

	for i := 1; i < len(leaderboard); i++ {
		prev, cur := leaderboard[i-1], leaderboard[i]
		if cur.Total > prev.Total {
			return fmt.Errorf("leaderboard not properly sorted: entry %d has higher total than entry %d", i, i-1)
		}
		wantRank := i + 1
		if cur.Total == prev.Total {
			wantRank = prev.Rank
		}
		if cur.Rank != wantRank {
			return fmt.Errorf("entry %d (%s) has rank %d, want %d", i, cur.PlayerID, cur.Rank, wantRank)
		}
	}
	if leaderboard[0].Rank != 1 {
		return fmt.Errorf("top entry has rank %d", leaderboard[0].Rank)
	}

	totals := make([]int, 0, len(expected))
	for _, e := range expected {
		totals = append(totals, e.Total)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(totals)))
	if leaderboard[0].Total < totals[0] {
		return fmt.Errorf("top leaderboard total %d, want at least %d", leaderboard[0].Total, totals[0])
	}
	return nil
}

// displayTopPlayers logs the head of the leaderboard.
func displayTopPlayers(ctx context.Context, leaderboard []Entry) {
	n := min(len(leaderboard), 10)
	for _, e := range leaderboard[:n] {
		logger.Get().Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("player_id", e.PlayerID),
			logger.Int("total", e.Total),
			logger.Int("throws", e.Throws))
	}
}
