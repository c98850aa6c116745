package service

import (
	"context"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/view"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("service.game")
	meter  = otel.Meter("service.game")
)

// GameService defines the session-scoped game operations exposed over HTTP
// and WebSocket. A rejected move is reported in the MoveResponse, not as an
// error.
type GameService interface {
	Start(ctx context.Context) (string, view.State, error)
	State(ctx context.Context, sessionID string) (view.State, error)
	Move(ctx context.Context, sessionID string, index int) (view.MoveResponse, error)
	Reset(ctx context.Context, sessionID string) (view.State, error)
	End(ctx context.Context, sessionID string) error
	SweepExpired(ctx context.Context) (int64, error)
}

type gameService struct {
	repo     repository.GameRepository
	bus      events.Bus
	moves    metric.Int64Counter
	finished metric.Int64Counter
}

// NewGameService creates a new GameService.
func NewGameService(repo repository.GameRepository, bus events.Bus) (GameService, error) {
	moves, err := meter.Int64Counter("game.moves",
		metric.WithDescription("Moves submitted, by outcome"),
		metric.WithUnit("{move}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create game.moves counter: %w", err)
	}
	finished, err := meter.Int64Counter("game.finished",
		metric.WithDescription("Games that reached a terminal status"),
		metric.WithUnit("{game}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create game.finished counter: %w", err)
	}

	return &gameService{
		repo:     repo,
		bus:      bus,
		moves:    moves,
		finished: finished,
	}, nil
}

// Start creates a new session holding a fresh game.
func (s *gameService) Start(ctx context.Context) (string, view.State, error) {
	ctx, span := tracer.Start(ctx, "GameService.Start")
	defer span.End()

	sessionID := uuid.NewString()
	span.SetAttributes(attribute.String("session.id", sessionID))

	g := game.NewGame()
	if err := s.repo.Create(ctx, sessionID, g); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game")
		return "", view.State{}, fmt.Errorf("failed to start session: %w", err)
	}

	slog.InfoContext(ctx, "Game session started", "session.id", sessionID)
	return sessionID, view.NewState(g), nil
}

func (s *gameService) State(ctx context.Context, sessionID string) (view.State, error) {
	ctx, span := startSpan(ctx, "GameService.State", sessionID)
	defer span.End()

	g, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load game")
		return view.State{}, fmt.Errorf("failed to load game: %w", err)
	}
	return view.NewState(g), nil
}

// Move applies index for whoever is to move in the session's game.
func (s *gameService) Move(ctx context.Context, sessionID string, index int) (view.MoveResponse, error) {
	ctx, span := startSpan(ctx, "GameService.Move", sessionID)
	defer span.End()
	span.SetAttributes(attribute.Int("move.index", index))

	var result game.MoveResult
	g, err := s.repo.Update(ctx, sessionID, func(g *game.Game) error {
		result = g.Move(index)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply move")
		return view.MoveResponse{}, fmt.Errorf("failed to apply move: %w", err)
	}

	resp := view.NewMoveResponse(result, g)
	s.recordMove(ctx, resp)

	if !result.Accepted {
		span.SetAttributes(attribute.String("move.rejected", resp.Reason))
		slog.DebugContext(ctx, "Move rejected", "session.id", sessionID, "index", index, "reason", resp.Reason)
		return resp, nil
	}

	if result.Status.IsTerminal() {
		s.finished.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(result.Status))))
		slog.InfoContext(ctx, "Game finished", "session.id", sessionID, "status", result.Status)
	}
	s.publishUpdate(ctx, sessionID, resp.State)
	return resp, nil
}

// Reset clears the session's game; it is accepted in any status.
func (s *gameService) Reset(ctx context.Context, sessionID string) (view.State, error) {
	ctx, span := startSpan(ctx, "GameService.Reset", sessionID)
	defer span.End()

	g, err := s.repo.Update(ctx, sessionID, func(g *game.Game) error {
		g.Reset()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reset game")
		return view.State{}, fmt.Errorf("failed to reset game: %w", err)
	}

	state := view.NewState(g)
	s.publishUpdate(ctx, sessionID, state)
	slog.InfoContext(ctx, "Game reset", "session.id", sessionID)
	return state, nil
}

// End deletes the session and tells any attached clients it is gone.
func (s *gameService) End(ctx context.Context, sessionID string) error {
	ctx, span := startSpan(ctx, "GameService.End", sessionID)
	defer span.End()

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return fmt.Errorf("failed to end session: %w", err)
	}

	ev, err := events.NewEvent(events.TypeGameEnded, events.GameEndedPayload{SessionID: sessionID})
	if err == nil {
		err = s.bus.Publish(ctx, sessionID, ev)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish game end", "session.id", sessionID, "error", err)
	}

	slog.InfoContext(ctx, "Game session ended", "session.id", sessionID)
	return nil
}

// SweepExpired drops sessions whose TTL has passed.
func (s *gameService) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "GameService.SweepExpired")
	defer span.End()

	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to sweep sessions")
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}
	span.SetAttributes(attribute.Int64("sessions.removed", n))
	if n > 0 {
		slog.InfoContext(ctx, "Expired game sessions removed", "count", n)
	}
	return n, nil
}

func (s *gameService) recordMove(ctx context.Context, resp view.MoveResponse) {
	attrs := []attribute.KeyValue{attribute.Bool("accepted", resp.Accepted)}
	if !resp.Accepted {
		attrs = append(attrs, attribute.String("reason", resp.Reason))
	}
	s.moves.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// publishUpdate is best effort; the move is already stored.
func (s *gameService) publishUpdate(ctx context.Context, sessionID string, state view.State) {
	ev, err := events.NewEvent(events.TypeGameUpdated, events.GameUpdatedPayload{
		SessionID: sessionID,
		State:     state,
	})
	if err == nil {
		err = s.bus.Publish(ctx, sessionID, ev)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish game update", "session.id", sessionID, "error", err)
	}
}

func startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("session.id", sessionID)))
}
