package repository

import (
	"context"
	"ctchen222/tictactoe/internal/game"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runGameRepositoryContract exercises behaviour every backend must share.
func runGameRepositoryContract(t *testing.T, newRepo func(t *testing.T) GameRepository) {
	t.Run("Create then FindByID returns the game", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		// Given: a game with one move stored under an id
		g := game.NewGame()
		g.Move(4)
		require.NoError(t, repo.Create(ctx, "s1", g))

		// When: it is read back
		found, err := repo.FindByID(ctx, "s1")

		// Then: the state matches
		require.NoError(t, err)
		assert.Equal(t, g.Snapshot(), found.Snapshot())
	})

	t.Run("Create twice fails", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "dup", game.NewGame()))

		err := repo.Create(ctx, "dup", game.NewGame())

		assert.ErrorIs(t, err, ErrGameAlreadyExists)
	})

	t.Run("FindByID on unknown id", func(t *testing.T) {
		_, err := newRepo(t).FindByID(context.Background(), "nope")

		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("Update persists the mutation", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s2", game.NewGame()))

		updated, err := repo.Update(ctx, "s2", func(g *game.Game) error {
			g.Move(0)
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, game.PlayerO, updated.CurrentPlayer())
		found, err := repo.FindByID(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, updated.Snapshot(), found.Snapshot())
	})

	t.Run("Update error aborts the write", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s3", game.NewGame()))
		boom := errors.New("boom")

		_, err := repo.Update(ctx, "s3", func(g *game.Game) error {
			g.Move(0)
			return boom
		})

		assert.ErrorIs(t, err, boom)
		found, err := repo.FindByID(ctx, "s3")
		require.NoError(t, err)
		assert.Equal(t, game.Board{}, found.Board())
	})

	t.Run("Update on unknown id", func(t *testing.T) {
		_, err := newRepo(t).Update(context.Background(), "nope", func(*game.Game) error { return nil })

		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("Concurrent updates are serialized", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "race", game.NewGame()))

		// Every goroutine targets a different cell; without serialization
		// lost updates would leave fewer marks than accepted moves.
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for idx := 0; idx < 4; idx++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				_, err := repo.Update(ctx, "race", func(g *game.Game) error {
					if g.Move(idx).Accepted {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
					return nil
				})
				if errors.Is(err, ErrConflict) {
					return
				}
				assert.NoError(t, err)
			}(idx)
		}
		wg.Wait()

		found, err := repo.FindByID(ctx, "race")
		require.NoError(t, err)
		marks := 0
		for _, c := range found.Board() {
			if c != game.None {
				marks++
			}
		}
		assert.LessOrEqual(t, marks, accepted)
		assert.Positive(t, marks)
	})

	t.Run("Delete removes the game", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s4", game.NewGame()))

		require.NoError(t, repo.Delete(ctx, "s4"))

		_, err := repo.FindByID(ctx, "s4")
		assert.ErrorIs(t, err, ErrGameNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "s4"), ErrGameNotFound)
	})
}
