package throwsim

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/okian/oche/pkg/logger"
)

// retrievePlayers fetches GET /players/{id} for every player concurrently.
func retrievePlayers(ctx context.Context, cfg *Config, playerIDs []string, stats *Stats) map[string]Entry {
	log := logger.Get().Named("throwsim")
	log.Info(ctx, "retrieving player entries", logger.Int("players", len(playerIDs)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)

	var (
		mu      sync.Mutex
		entries = make(map[string]Entry, len(playerIDs))
		failed  atomic.Int64
	)

	idChan := make(chan string, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				if ctx.Err() != nil {
					return
				}
				var entry Entry
				if err := client.getJSON(ctx, cfg.BaseURL+"/players/"+url.PathEscape(id), &entry); err != nil {
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "failed to get player", logger.String("player_id", id), logger.Error(err))
					}
					continue
				}
				mu.Lock()
				entries[id] = entry
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, id := range playerIDs {
			select {
			case <-ctx.Done():
				return
			case idChan <- id:
			}
		}
	}()

	wg.Wait()

	stats.PlayersRetrieved = len(entries)
	log.Info(ctx, "player retrieval completed",
		logger.Int("retrieved", len(entries)),
		logger.Int("failed", int(failed.Load())))
	return entries
}

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, cfg *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(cfg.Timeout)

	var leaderboard []Entry
	if err := client.getJSON(ctx, fmt.Sprintf("%s/leaderboard?limit=%d", cfg.BaseURL, cfg.TopN), &leaderboard); err != nil {
		return nil, err
	}

	stats.LeaderboardEntries = len(leaderboard)
	logger.Get().Info(ctx, "retrieved leaderboard", logger.Int("entries", len(leaderboard)))
	return leaderboard, nil
}

// serviceStats is the subset of GET /stats the simulator reads.
type serviceStats struct {
	Processed   int64 `json:"processed"`
	Failed      int64 `json:"failed"`
	QueueLength int   `json:"queue_length"`
}

func getServiceStats(ctx context.Context, cfg *Config) (serviceStats, error) {
	var s serviceStats
	err := newHTTPClient(cfg.Timeout).getJSON(ctx, cfg.BaseURL+"/stats", &s)
	return s, err
}
