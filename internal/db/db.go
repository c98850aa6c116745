package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

var sessionSchema = []string{
	`CREATE TABLE IF NOT EXISTS game_sessions (
		id         TEXT PRIMARY KEY,
		snapshot   TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_game_sessions_expires_at ON game_sessions (expires_at)`,
}

// OpenSQLite opens the SQLite database at path and makes sure the session
// schema exists.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps transactions from
	// tripping over SQLITE_BUSY.
	pool.SetMaxOpenConns(1)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to reach sqlite database: %w", err)
	}

	for _, stmt := range sessionSchema {
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("failed to create game_sessions schema: %w", err)
		}
	}

	slog.InfoContext(ctx, "sqlite connection initialized and schema verified", "path", path)
	return pool, nil
}
