package server

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// RunSweeper removes expired sessions every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	slog.InfoContext(ctx, "Session sweeper started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Server) sweep(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "server.sweep")
	defer span.End()

	if _, err := s.gameService.SweepExpired(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to sweep expired sessions", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to sweep expired sessions")
	}
}
