package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/oche/internal/throwsim"
)

// Default configuration constants.
const (
	defaultThrows          = 5000
	defaultPlayers         = 100
	defaultTopN            = 50
	defaultWorkers         = 2 // multiplier for runtime.NumCPU()
	defaultBoardWidth      = 400
	defaultNoDetectionRate = 0.02
	defaultDuplicateRate   = 0.05
	defaultTimeout         = 30 * time.Second
	defaultSettle          = time.Minute
	defaultRunTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		throws     = flag.Int("throws", defaultThrows, "Number of throws to generate")
		players    = flag.Int("players", defaultPlayers, "Number of distinct players")
		topN       = flag.Int("top", defaultTopN, "Number of leaderboard entries to check")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		boardWidth = flag.Float64("board", defaultBoardWidth, "Board width in pixels")
		offset     = flag.Float64("offset", 0, "Sector rotation the service runs with, in degrees")
		missRate   = flag.Float64("miss-rate", defaultNoDetectionRate, "Fraction of throws with no detected impact")
		dupRate    = flag.Float64("dup-rate", defaultDuplicateRate, "Fraction of throws resent with the same id")
		seed       = flag.Uint64("seed", 0, "Random seed, 0 for time based")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettle, "Time allowed for the queue to drain")
		outputFile = flag.String("output", "", "Write generated throws and expected scores to this file")
		logFile    = flag.String("log", "", "Log file (default: throwsim_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		throwsim.ShowHelp()
		return
	}

	closer, err := throwsim.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &throwsim.Config{
		BaseURL:         *baseURL,
		Players:         max(*players, 1),
		Throws:          *throws,
		TopN:            *topN,
		Workers:         max(*workers, 1),
		Timeout:         *timeout,
		Settle:          *settle,
		BoardWidth:      *boardWidth,
		SectorOffset:    *offset,
		NoDetectionRate: *missRate,
		DuplicateRate:   *dupRate,
		Seed:            *seed,
		OutputFile:      *outputFile,
		Verbose:         *verbose,
	}

	if _, err := throwsim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		closer.Close()
		os.Exit(1)
	}
}
