package server

import (
	"context"
	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/events"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("server")

//go:embed web/index.html
var webFS embed.FS

type Server struct {
	engine      *gin.Engine
	gameService service.GameService
	bus         events.Bus
	upgrader    websocket.Upgrader
}

func NewServer(gameService service.GameService, bus events.Bus, gameController *controller.GameController) *Server {
	s := &Server{
		engine:      gin.New(),
		gameService: gameService,
		bus:         bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.engine.Use(gin.Recovery())
	s.registerHandlers(gameController)
	return s
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers(gc *controller.GameController) {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", func(c *gin.Context) {
		response.SuccessResponse(c, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api/games")
	api.POST("", gc.Start)

	current := api.Group("/current", gc.RequireSession())
	current.GET("", gc.State)
	current.POST("/moves", gc.Move)
	current.POST("/reset", gc.Reset)
	current.DELETE("", gc.End)

	s.engine.GET("/ws", gc.RequireSession(), s.handleWebSocket)
}

func (s *Server) handleIndex(c *gin.Context) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(s.engine, "tictactoe"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server exiting")
	return nil
}
