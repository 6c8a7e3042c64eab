package throwsim

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/oche/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}

	if logFile == "" {
		logFile = "throwsim_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	logger.Get().Info(context.Background(), "logging to file", logger.String("log_file", logFile))
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`oche throw simulator
====================

Generates dart throws on a synthetic board, posts them to a running oche
service and checks the resulting totals against locally computed scores.

Usage:
  go run ./cmd/throw-sim [options]

Options:
  -url string          Base URL of the service (default "http://localhost:9080")
  -throws int          Number of throws to generate (default 5000)
  -players int         Number of distinct players (default 100)
  -top int             Number of leaderboard entries to check (default 50)
  -workers int         Number of concurrent workers (default CPU cores * 2)
  -board float         Board width in pixels (default 400)
  -offset float        Sector rotation the service runs with, in degrees (default 0)
  -miss-rate float     Fraction of throws with no detected impact (default 0.02)
  -dup-rate float      Fraction of throws resent with the same id (default 0.05)
  -seed uint           Random seed, 0 for time based (default 0)
  -timeout duration    HTTP request timeout (default 30s)
  -settle duration     Time allowed for the queue to drain (default 1m)
  -output string       Write generated throws and expected scores to this file
  -log string          Log file (default: throwsim_TIMESTAMP.log)
  -verbose             Enable verbose logging
  -help                Show this help message

Examples:
  go run ./cmd/throw-sim -throws 50000 -workers 16 -url http://localhost:8080
  go run ./cmd/throw-sim -seed 42 -output throws.json
`)
}
