package repository

import (
	"context"
	"ctchen222/tictactoe/internal/game"
	"sync"
	"time"
)

type memoryEntry struct {
	snapshot  game.Snapshot
	expiresAt time.Time
}

type memoryGameRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption configures the in-memory repository.
type MemoryOption func(*memoryGameRepository)

// WithClock replaces time.Now, for tests that need to move time forward.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *memoryGameRepository) {
		r.now = now
	}
}

// NewMemoryGameRepository creates a process-local GameRepository. A single
// mutex guards every entry.
func NewMemoryGameRepository(ttl time.Duration, opts ...MemoryOption) GameRepository {
	r := &memoryGameRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// lookup returns the live entry for id. Expired entries are dropped on sight.
// Callers must hold r.mu.
func (r *memoryGameRepository) lookup(id string) (memoryEntry, bool) {
	entry, ok := r.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !r.now().Before(entry.expiresAt) {
		delete(r.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (r *memoryGameRepository) Create(ctx context.Context, id string, g *game.Game) error {
	_, span := startSpan(ctx, "GameRepository.Create", id)
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup(id); ok {
		return ErrGameAlreadyExists
	}
	r.entries[id] = memoryEntry{snapshot: g.Snapshot(), expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *memoryGameRepository) FindByID(ctx context.Context, id string) (*game.Game, error) {
	_, span := startSpan(ctx, "GameRepository.FindByID", id)
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id)
	if !ok {
		return nil, ErrGameNotFound
	}
	return game.Restore(entry.snapshot)
}

func (r *memoryGameRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*game.Game, error) {
	_, span := startSpan(ctx, "GameRepository.Update", id)
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id)
	if !ok {
		return nil, ErrGameNotFound
	}
	g, err := game.Restore(entry.snapshot)
	if err != nil {
		failSpan(span, err, "Failed to restore game")
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}

	r.entries[id] = memoryEntry{snapshot: g.Snapshot(), expiresAt: r.now().Add(r.ttl)}
	return g, nil
}

func (r *memoryGameRepository) Delete(ctx context.Context, id string) error {
	_, span := startSpan(ctx, "GameRepository.Delete", id)
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup(id); !ok {
		return ErrGameNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memoryGameRepository) DeleteExpired(ctx context.Context) (int64, error) {
	_, span := tracer.Start(ctx, "GameRepository.DeleteExpired")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed int64
	for id, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed, nil
}
