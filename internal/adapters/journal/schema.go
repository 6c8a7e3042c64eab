package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates the journal table and its index.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Timestamps are unix nanoseconds so both drivers store them the same way.
const schema = `
CREATE TABLE IF NOT EXISTS throw_journal (
    throw_id TEXT PRIMARY KEY,
    player_id TEXT NOT NULL,
    board_x DOUBLE PRECISION NOT NULL,
    board_y DOUBLE PRECISION NOT NULL,
    board_width DOUBLE PRECISION NOT NULL,
    board_height DOUBLE PRECISION NOT NULL,
    board_rotation DOUBLE PRECISION NOT NULL,
    impact_x DOUBLE PRECISION NOT NULL,
    impact_y DOUBLE PRECISION NOT NULL,
    radius DOUBLE PRECISION NOT NULL,
    angle DOUBLE PRECISION NOT NULL,
    value INTEGER NOT NULL,
    ring TEXT NOT NULL,
    multiplier INTEGER NOT NULL,
    points INTEGER NOT NULL,
    error_kind TEXT NOT NULL DEFAULT '',
    thrown_at BIGINT NOT NULL,
    scored_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_throw_journal_player ON throw_journal(player_id, scored_at);
`
