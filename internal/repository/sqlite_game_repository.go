package repository

import (
	"context"
	"ctchen222/tictactoe/internal/game"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type sqliteGameRepository struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteGameRepository creates a GameRepository backed by the
// game_sessions table. Expired rows are invisible to reads and removed by
// DeleteExpired.
func NewSQLiteGameRepository(db *sqlx.DB, ttl time.Duration, now func() time.Time) GameRepository {
	if now == nil {
		now = time.Now
	}
	return &sqliteGameRepository{db: db, ttl: ttl, now: now}
}

func (r *sqliteGameRepository) expiry() int64 {
	return r.now().Add(r.ttl).UnixMilli()
}

func (r *sqliteGameRepository) Create(ctx context.Context, id string, g *game.Game) error {
	ctx, span := startSpan(ctx, "GameRepository.Create", id)
	defer span.End()

	data, err := encodeGame(g)
	if err != nil {
		failSpan(span, err, "Failed to marshal game")
		return err
	}

	// An expired row with the same id may linger until the next sweep.
	query := `INSERT INTO game_sessions (id, snapshot, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET snapshot = excluded.snapshot, expires_at = excluded.expires_at
		WHERE game_sessions.expires_at <= ?`
	res, err := r.db.ExecContext(ctx, query, id, string(data), r.expiry(), r.now().UnixMilli())
	if err != nil {
		failSpan(span, err, "Failed to insert game")
		return fmt.Errorf("failed to create game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	if n == 0 {
		return ErrGameAlreadyExists
	}
	return nil
}

func (r *sqliteGameRepository) FindByID(ctx context.Context, id string) (*game.Game, error) {
	ctx, span := startSpan(ctx, "GameRepository.FindByID", id)
	defer span.End()

	return r.find(ctx, r.db, id)
}

func (r *sqliteGameRepository) find(ctx context.Context, q sqlx.QueryerContext, id string) (*game.Game, error) {
	var data string
	query := `SELECT snapshot FROM game_sessions WHERE id = ? AND expires_at > ?`
	err := sqlx.GetContext(ctx, q, &data, query, id, r.now().UnixMilli())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}
	return decodeGame([]byte(data))
}

func (r *sqliteGameRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*game.Game, error) {
	ctx, span := startSpan(ctx, "GameRepository.Update", id)
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		failSpan(span, err, "Failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	g, err := r.find(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}

	data, err := encodeGame(g)
	if err != nil {
		return nil, err
	}
	query := `UPDATE game_sessions SET snapshot = ?, expires_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, string(data), r.expiry(), id); err != nil {
		failSpan(span, err, "Failed to update game")
		return nil, fmt.Errorf("failed to update game: %w", err)
	}
	if err := tx.Commit(); err != nil {
		failSpan(span, err, "Failed to commit game update")
		return nil, fmt.Errorf("failed to commit game update: %w", err)
	}
	return g, nil
}

func (r *sqliteGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "GameRepository.Delete", id)
	defer span.End()

	query := `DELETE FROM game_sessions WHERE id = ? AND expires_at > ?`
	res, err := r.db.ExecContext(ctx, query, id, r.now().UnixMilli())
	if err != nil {
		failSpan(span, err, "Failed to delete game")
		return fmt.Errorf("failed to delete game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if n == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (r *sqliteGameRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.DeleteExpired")
	defer span.End()

	res, err := r.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE expires_at <= ?`, r.now().UnixMilli())
	if err != nil {
		failSpan(span, err, "Failed to delete expired games")
		return 0, fmt.Errorf("failed to delete expired games: %w", err)
	}
	return res.RowsAffected()
}
