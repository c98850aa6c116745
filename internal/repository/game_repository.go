package repository

import (
	"context"
	"ctchen222/tictactoe/internal/game"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.game")

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
	ErrConflict          = errors.New("game was modified concurrently")
)

// maxUpdateRetries bounds optimistic retries when another writer touches the
// same key between WATCH and EXEC.
const maxUpdateRetries = 5

//go:generate mockgen -source=game_repository.go -destination=mocks/mock_game_repository.go -package=mocks

// UpdateFunc mutates a game inside GameRepository.Update. Returning an error
// aborts the update and nothing is written.
type UpdateFunc func(g *game.Game) error

// GameRepository stores one game per session id. Entries expire after the
// repository's TTL; every successful Update pushes the expiry forward.
//
// Update is the only way to mutate a stored game and runs fn with exclusive
// access to that session's game, so callers never need their own locking.
type GameRepository interface {
	Create(ctx context.Context, id string, g *game.Game) error
	FindByID(ctx context.Context, id string) (*game.Game, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*game.Game, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes entries whose TTL has passed and reports how many
	// were removed. Backends with native expiry return zero.
	DeleteExpired(ctx context.Context) (int64, error)
}

type redisGameRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisGameRepository creates a new Redis-based GameRepository.
func NewRedisGameRepository(rdb *redis.Client, ttl time.Duration) GameRepository {
	return &redisGameRepository{rdb: rdb, ttl: ttl}
}

func gameKey(id string) string {
	return fmt.Sprintf("game:%s", id)
}

func startSpan(ctx context.Context, name, id string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("session.id", id)))
}

func failSpan(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

func encodeGame(g *game.Game) ([]byte, error) {
	data, err := json.Marshal(g.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game: %w", err)
	}
	return data, nil
}

func decodeGame(data []byte) (*game.Game, error) {
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}
	return game.Restore(snap)
}

// Create stores a new game under id.
func (r *redisGameRepository) Create(ctx context.Context, id string, g *game.Game) error {
	ctx, span := startSpan(ctx, "GameRepository.Create", id)
	defer span.End()

	data, err := encodeGame(g)
	if err != nil {
		failSpan(span, err, "Failed to marshal game")
		return err
	}

	ok, err := r.rdb.SetNX(ctx, gameKey(id), data, r.ttl).Result()
	if err != nil {
		failSpan(span, err, "Failed to create game in redis")
		return fmt.Errorf("failed to create game in redis: %w", err)
	}
	if !ok {
		return ErrGameAlreadyExists
	}
	return nil
}

// FindByID retrieves the current game from Redis.
func (r *redisGameRepository) FindByID(ctx context.Context, id string) (*game.Game, error) {
	ctx, span := startSpan(ctx, "GameRepository.FindByID", id)
	defer span.End()

	data, err := r.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		failSpan(span, err, "Failed to get game from redis")
		return nil, fmt.Errorf("failed to get game from redis: %w", err)
	}

	g, err := decodeGame(data)
	if err != nil {
		failSpan(span, err, "Failed to decode game")
		return nil, err
	}
	return g, nil
}

// Update applies fn to the stored game inside a WATCH/MULTI transaction and
// writes the result back with a fresh TTL.
func (r *redisGameRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*game.Game, error) {
	ctx, span := startSpan(ctx, "GameRepository.Update", id)
	defer span.End()

	key := gameKey(id)
	var updated *game.Game

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}

		g, err := decodeGame(data)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}

		newData, err := encodeGame(g)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = g
		return nil
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			span.AddEvent("transaction retry", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
			continue
		}
		if !errors.Is(err, ErrGameNotFound) {
			failSpan(span, err, "Failed to update game in redis")
		}
		return nil, err
	}

	failSpan(span, ErrConflict, "Retries exhausted")
	return nil, ErrConflict
}

// Delete removes the game for id.
func (r *redisGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "GameRepository.Delete", id)
	defer span.End()

	n, err := r.rdb.Del(ctx, gameKey(id)).Result()
	if err != nil {
		failSpan(span, err, "Failed to delete game in redis")
		return fmt.Errorf("failed to delete game in redis: %w", err)
	}
	if n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires keys on its own.
func (r *redisGameRepository) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}
