package cli

import (
	"context"
	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/auth"
	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/db"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/logger"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/server"
	"ctchen222/tictactoe/internal/telemetry"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(logLevel *string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if *logLevel != "" {
				cfg.LogLevel = *logLevel
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (environment variables apply on top of defaults when omitted)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger.Init(cfg.LogLevel, cfg.Telemetry.Enabled)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	repo, bus, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := auth.NewTokenIssuer(cfg.Session.Secret, cfg.Store.SessionTTL)
	if err != nil {
		return err
	}
	if cfg.Session.Secret == "" {
		slog.Warn("No session secret configured; sessions will not survive a restart")
	}

	gameService, err := service.NewGameService(repo, bus)
	if err != nil {
		return err
	}
	gameController := controller.NewGameController(gameService, tokens, cfg.Session.CookieName, cfg.Store.SessionTTL)
	srv := server.NewServer(gameService, bus, gameController)

	go srv.RunSweeper(ctx, cfg.Store.SweepInterval)

	slog.Info("Starting tic-tac-toe server", "addr", cfg.HTTP.Addr, "store", cfg.Store.Backend)
	return srv.Run(ctx, cfg.HTTP.Addr, cfg.HTTP.ShutdownTimeout)
}

// openStore builds the session repository and the matching event bus for the
// configured backend.
func openStore(ctx context.Context, cfg *config.Config) (repository.GameRepository, events.Bus, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		rdb, err := db.NewRedisClient(ctx, cfg.Redis.GetRedisAddr())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		closeFn := func() { _ = rdb.Close() }
		return repository.NewRedisGameRepository(rdb, cfg.Store.SessionTTL), events.NewRedisBus(rdb), closeFn, nil

	case config.StoreSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize sqlite db: %w", err)
		}
		closeFn := func() { _ = sqlDB.Close() }
		return repository.NewSQLiteGameRepository(sqlDB, cfg.Store.SessionTTL, time.Now), events.NewLocalBus(), closeFn, nil

	default:
		return repository.NewMemoryGameRepository(cfg.Store.SessionTTL), events.NewLocalBus(), func() {}, nil
	}
}
