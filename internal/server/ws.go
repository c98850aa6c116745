package server

import (
	"context"
	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/validator"
	"ctchen222/tictactoe/pkg/proto"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// client is one WebSocket attached to a game session. Only writePump writes
// to conn.
type client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan *proto.ServerToClientMessage
	done      chan struct{}
}

// deliver queues msg for the writer unless the connection is going away.
func (cl *client) deliver(msg *proto.ServerToClientMessage) {
	select {
	case cl.send <- msg:
	case <-cl.done:
	}
}

// handleWebSocket attaches the connection to the caller's session. Every
// connection on the session receives state updates, whichever transport
// produced them.
func (s *Server) handleWebSocket(c *gin.Context) {
	sessionID := controller.SessionID(c)
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	state, err := s.gameService.State(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load game")
		if errors.Is(err, repository.ErrGameNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, repository.ErrGameNotFound.Error())
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "internal error")
		return
	}

	sub, err := s.bus.Subscribe(ctx, sessionID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to subscribe to session events", "session.id", sessionID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe to session events")
		response.ErrorResponse(c, http.StatusInternalServerError, "internal error")
		return
	}
	defer sub.Close()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	cl := &client{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan *proto.ServerToClientMessage, sendBuffer),
		done:      make(chan struct{}),
	}
	cl.send <- proto.UpdateMessage(state)

	go cl.writePump()
	go forwardEvents(cl, sub)

	slog.InfoContext(ctx, "WebSocket attached", "session.id", sessionID)
	s.readPump(ctx, cl)
	slog.InfoContext(ctx, "WebSocket detached", "session.id", sessionID)
}

// readPump reads client messages until the connection fails, then releases
// the writer.
func (s *Server) readPump(ctx context.Context, cl *client) {
	defer func() {
		close(cl.done)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "Player connection error", "session.id", cl.sessionID, "error", err)
			}
			return
		}

		var msg proto.ClientToServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cl.deliver(proto.ErrorMessage("malformed message"))
			continue
		}
		if err := validator.Struct(msg); err != nil {
			cl.deliver(proto.ErrorMessage(err.Error()))
			continue
		}
		s.handleMessage(ctx, cl, &msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, cl *client, msg *proto.ClientToServerMessage) {
	ctx, span := tracer.Start(ctx, "server.handleMessage", trace.WithAttributes(
		attribute.String("session.id", cl.sessionID),
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	var err error
	switch msg.Type {
	case proto.TypeMove:
		resp, moveErr := s.gameService.Move(ctx, cl.sessionID, *msg.Index)
		if err = moveErr; err == nil && !resp.Accepted {
			cl.deliver(proto.RejectedMessage(resp))
		}
	case proto.TypeReset:
		_, err = s.gameService.Reset(ctx, cl.sessionID)
	case proto.TypeState:
		state, stateErr := s.gameService.State(ctx, cl.sessionID)
		if err = stateErr; err == nil {
			cl.deliver(proto.UpdateMessage(state))
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to handle message")
		if errors.Is(err, repository.ErrGameNotFound) {
			cl.deliver(proto.ErrorMessage(repository.ErrGameNotFound.Error()))
			return
		}
		slog.ErrorContext(ctx, "Failed to handle message", "session.id", cl.sessionID, "type", msg.Type, "error", err)
		cl.deliver(proto.ErrorMessage("internal error"))
	}
}

// forwardEvents turns session events into client messages.
func forwardEvents(cl *client, sub *events.Subscription) {
	for {
		select {
		case <-cl.done:
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			switch ev.Type {
			case events.TypeGameUpdated:
				var payload events.GameUpdatedPayload
				if err := json.Unmarshal(ev.Payload, &payload); err != nil {
					slog.Error("Could not unmarshal game_updated payload", "session.id", cl.sessionID, "error", err)
					continue
				}
				cl.deliver(proto.UpdateMessage(payload.State))
			case events.TypeGameEnded:
				cl.deliver(&proto.ServerToClientMessage{Type: proto.TypeEnded})
			}
		}
	}
}

// writePump is the only writer to the connection. It closes the socket after
// an "ended" message.
func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case <-cl.done:
			return
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteJSON(msg); err != nil {
				slog.Warn("error writing message to player", "session.id", cl.sessionID, "error", err)
				return
			}
			if msg.Type == proto.TypeEnded {
				_ = cl.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game session ended"))
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
