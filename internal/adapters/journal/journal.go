// Package journal persists scored throws to a SQL database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/oche/internal/domain/model"
	"github.com/okian/oche/internal/domain/types"
	"github.com/okian/oche/pkg/logger"
)

// Supported drivers, as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultMaxOpenConns = 8
	defaultMaxHistory   = 1000
)

// SQLJournal appends scored throws to the throw_journal table.
type SQLJournal struct {
	db           *sql.DB
	driver       string
	maxOpenConns int
	maxHistory   int
	closed       atomic.Bool

	insertSQL  string
	historySQL string
	countSQL   string

	logger logger.Logger
}

// Open connects to the database, creates the schema and returns a ready journal.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLJournal, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	j, err := New(ctx, db, driver, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an already opened database.
func New(ctx context.Context, db *sql.DB, driver string, opts ...Option) (*SQLJournal, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	j := &SQLJournal{
		db:           db,
		driver:       driver,
		maxOpenConns: defaultMaxOpenConns,
		maxHistory:   defaultMaxHistory,
		logger:       logger.Get().Named("journal"),
	}
	for _, opt := range opts {
		opt(j)
	}

	// An in-memory SQLite database lives and dies with its connection.
	if driver == DriverSQLite {
		j.maxOpenConns = 1
	}
	db.SetMaxOpenConns(j.maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}

	j.insertSQL = j.rebind(insertQuery)
	j.historySQL = j.rebind(historyQuery)
	j.countSQL = j.rebind(countQuery)

	j.logger.Info(ctx, "journal ready", logger.String("driver", driver))
	return j, nil
}

const insertQuery = `
INSERT INTO throw_journal (
    throw_id, player_id,
    board_x, board_y, board_width, board_height, board_rotation,
    impact_x, impact_y, radius, angle,
    value, ring, multiplier, points, error_kind,
    thrown_at, scored_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (throw_id) DO NOTHING`

const historyQuery = `
SELECT throw_id, player_id, impact_x, impact_y, radius, angle,
       value, ring, multiplier, points, error_kind, thrown_at, scored_at
FROM throw_journal
WHERE player_id = ?
ORDER BY scored_at DESC, throw_id DESC
LIMIT ?`

const countQuery = `SELECT COUNT(*) FROM throw_journal WHERE player_id = ?`

// Append stores one scored throw. A throw id already journalled is ignored.
func (j *SQLJournal) Append(ctx context.Context, st model.ScoredThrow) error { //nolint:gocritic // hugeParam
	if j.closed.Load() {
		return ErrClosed
	}
	_, err := j.db.ExecContext(ctx, j.insertSQL,
		st.ThrowID, st.PlayerID,
		st.Board.Center.X, st.Board.Center.Y, st.Board.Width, st.Board.Height, st.Board.Rotation,
		st.Impact.X, st.Impact.Y, st.Polar.Radius, st.Polar.Angle,
		st.Score.Value, st.Score.Ring.String(), st.Score.Multiplier(), st.Score.Points(), st.ErrorKind,
		st.TS.UnixNano(), st.ScoredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("append throw %s: %w", st.ThrowID, err)
	}
	return nil
}

// History returns the player's most recent throws, newest first.
func (j *SQLJournal) History(ctx context.Context, playerID string, limit int) ([]types.ThrowRecord, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}
	if limit < 1 || limit > j.maxHistory {
		return nil, fmt.Errorf("%w: %d (1..%d)", ErrInvalidLimit, limit, j.maxHistory)
	}

	rows, err := j.db.QueryContext(ctx, j.historySQL, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]types.ThrowRecord, 0, limit)
	for rows.Next() {
		var (
			r                  types.ThrowRecord
			thrownAt, scoredAt int64
		)
		if err := rows.Scan(
			&r.ThrowID, &r.PlayerID, &r.ImpactX, &r.ImpactY, &r.Radius, &r.Angle,
			&r.Value, &r.Ring, &r.Multiplier, &r.Points, &r.ErrorKind, &thrownAt, &scoredAt,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.ThrownAt = time.Unix(0, thrownAt).UTC()
		r.ScoredAt = time.Unix(0, scoredAt).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Count returns how many throws are journalled for the player.
func (j *SQLJournal) Count(ctx context.Context, playerID string) (int, error) {
	if j.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := j.db.QueryRowContext(ctx, j.countSQL, playerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count throws: %w", err)
	}
	return n, nil
}

// Driver returns the database/sql driver name.
func (j *SQLJournal) Driver() string {
	return j.driver
}

// Close releases the database. It is safe to call more than once.
func (j *SQLJournal) Close() error {
	if !j.closed.CompareAndSwap(false, true) {
		return nil
	}
	return j.db.Close()
}

// rebind rewrites ? placeholders as $N for PostgreSQL.
func (j *SQLJournal) rebind(query string) string {
	if j.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
