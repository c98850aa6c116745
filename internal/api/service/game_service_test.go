package service

import (
	"context"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/repository/mocks"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T) (GameService, *events.LocalBus) {
	t.Helper()
	bus := events.NewLocalBus()
	svc, err := NewGameService(repository.NewMemoryGameRepository(time.Hour), bus)
	require.NoError(t, err)
	return svc, bus
}

func nextEvent(t *testing.T, sub *events.Subscription) events.Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func TestGameService_Start(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	id, state, err := svc.Start(ctx)

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, game.PlayerX, state.CurrentPlayer)
	assert.Equal(t, game.InProgress, state.Status)
	assert.False(t, state.Announcement.Visible)

	other, _, err := svc.Start(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepted move is stored and published", func(t *testing.T) {
		// Given: a session with a subscriber
		svc, bus := newTestService(t)
		id, _, err := svc.Start(ctx)
		require.NoError(t, err)
		sub, err := bus.Subscribe(ctx, id)
		require.NoError(t, err)
		defer sub.Close()

		// When: X plays the centre
		resp, err := svc.Move(ctx, id, 4)

		// Then: the move is accepted, stored and broadcast
		require.NoError(t, err)
		assert.True(t, resp.Accepted)
		assert.Equal(t, game.PlayerX, resp.Cell)
		assert.Equal(t, "X", resp.State.Board[4])
		assert.Equal(t, game.PlayerO, resp.State.CurrentPlayer)

		state, err := svc.State(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, resp.State, state)

		ev := nextEvent(t, sub)
		assert.Equal(t, events.TypeGameUpdated, ev.Type)
		var payload events.GameUpdatedPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, id, payload.SessionID)
		assert.Equal(t, resp.State, payload.State)
	})

	t.Run("Rejected move is not an error and not published", func(t *testing.T) {
		svc, bus := newTestService(t)
		id, _, err := svc.Start(ctx)
		require.NoError(t, err)
		_, err = svc.Move(ctx, id, 3)
		require.NoError(t, err)
		sub, err := bus.Subscribe(ctx, id)
		require.NoError(t, err)
		defer sub.Close()

		resp, err := svc.Move(ctx, id, 3)

		require.NoError(t, err)
		assert.False(t, resp.Accepted)
		assert.Equal(t, "cell_occupied", resp.Reason)
		assert.Equal(t, game.PlayerX, resp.Cell)
		assert.Equal(t, game.PlayerO, resp.State.CurrentPlayer)
		assert.Len(t, sub.C, 0)
	})

	t.Run("Winning move announces the winner", func(t *testing.T) {
		svc, _ := newTestService(t)
		id, _, err := svc.Start(ctx)
		require.NoError(t, err)

		var last string
		for _, idx := range []int{0, 1, 4, 2, 8} {
			resp, err := svc.Move(ctx, id, idx)
			require.NoError(t, err)
			require.True(t, resp.Accepted)
			last = resp.State.Announcement.Text
		}

		assert.Equal(t, "Player X Won", last)

		resp, err := svc.Move(ctx, id, 5)
		require.NoError(t, err)
		assert.Equal(t, "game_over", resp.Reason)
	})

	t.Run("Unknown session", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Move(ctx, "missing", 0)

		assert.ErrorIs(t, err, repository.ErrGameNotFound)
	})
}

func TestGameService_ResetAndEnd(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTestService(t)
	id, _, err := svc.Start(ctx)
	require.NoError(t, err)
	for _, idx := range []int{0, 2, 1, 4, 8, 6} {
		_, err := svc.Move(ctx, id, idx)
		require.NoError(t, err)
	}

	state, err := svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.InProgress, state.Status)
	assert.Equal(t, game.PlayerX, state.CurrentPlayer)
	assert.Equal(t, [game.CellCount]string{}, state.Board)

	sub, err := bus.Subscribe(ctx, id)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.End(ctx, id))
	assert.Equal(t, events.TypeGameEnded, nextEvent(t, sub).Type)

	_, err = svc.State(ctx, id)
	assert.ErrorIs(t, err, repository.ErrGameNotFound)
	assert.ErrorIs(t, svc.End(ctx, id), repository.ErrGameNotFound)
}

func TestGameService_WithMockRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Start propagates store failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockGameRepository(ctrl)
		storeErr := errors.New("store down")
		repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(storeErr)

		svc, err := NewGameService(repo, events.NewLocalBus())
		require.NoError(t, err)

		_, _, err = svc.Start(ctx)

		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("Move runs inside Update", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockGameRepository(ctrl)
		stored := game.NewGame()
		repo.EXPECT().
			Update(gomock.Any(), "s1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn repository.UpdateFunc) (*game.Game, error) {
				if err := fn(stored); err != nil {
					return nil, err
				}
				return stored, nil
			})

		svc, err := NewGameService(repo, events.NewLocalBus())
		require.NoError(t, err)

		resp, err := svc.Move(ctx, "s1", 7)

		require.NoError(t, err)
		assert.True(t, resp.Accepted)
		cell, err := stored.Cell(7)
		require.NoError(t, err)
		assert.Equal(t, game.PlayerX, cell)
	})

	t.Run("Update conflict surfaces as an error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockGameRepository(ctrl)
		repo.EXPECT().Update(gomock.Any(), "s1", gomock.Any()).Return(nil, repository.ErrConflict)

		svc, err := NewGameService(repo, events.NewLocalBus())
		require.NoError(t, err)

		_, err = svc.Move(ctx, "s1", 0)

		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("SweepExpired reports the removed count", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockGameRepository(ctrl)
		repo.EXPECT().DeleteExpired(gomock.Any()).Return(int64(3), nil)

		svc, err := NewGameService(repo, events.NewLocalBus())
		require.NoError(t, err)

		n, err := svc.SweepExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}
