package controller

import (
	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/auth"
	"ctchen222/tictactoe/internal/repository"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// sessionKey is the gin context key holding the authenticated session id.
const sessionKey = "session.id"

var errMissingToken = errors.New("missing session token")

// GameController handles the game session HTTP endpoints.
type GameController struct {
	gameService service.GameService
	tokens      *auth.TokenIssuer
	cookieName  string
	cookieTTL   time.Duration
}

// NewGameController creates a new GameController.
func NewGameController(gameService service.GameService, tokens *auth.TokenIssuer, cookieName string, cookieTTL time.Duration) *GameController {
	return &GameController{
		gameService: gameService,
		tokens:      tokens,
		cookieName:  cookieName,
		cookieTTL:   cookieTTL,
	}
}

// RequireSession resolves the session token from the cookie, an
// "Authorization: Bearer" header or a "token" query parameter, in that order.
func (gc *GameController) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := gc.tokenFromRequest(c)
		if token == "" {
			response.AbortResponse(c, http.StatusUnauthorized, errMissingToken.Error())
			return
		}
		sessionID, err := gc.tokens.Parse(token)
		if err != nil {
			slog.DebugContext(c.Request.Context(), "Rejected session token", "error", err)
			response.AbortResponse(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}
		c.Set(sessionKey, sessionID)
		c.Next()
	}
}

// SessionID returns the id stored by RequireSession.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// Start handles creating a new game session.
func (gc *GameController) Start(c *gin.Context) {
	sessionID, state, err := gc.gameService.Start(c.Request.Context())
	if err != nil {
		gc.serviceError(c, err)
		return
	}

	token, err := gc.tokens.Issue(sessionID)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(gc.cookieName, token, int(gc.cookieTTL.Seconds()), "/", "", false, true)
	response.CreatedResponse(c, models.StartResponse{Token: token, State: state})
}

// State handles reading the current board.
func (gc *GameController) State(c *gin.Context) {
	state, err := gc.gameService.State(c.Request.Context(), SessionID(c))
	if err != nil {
		gc.serviceError(c, err)
		return
	}
	response.SuccessResponse(c, state)
}

// Move handles a move request. Rejected moves are still a 200 with
// accepted=false.
func (gc *GameController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := gc.gameService.Move(c.Request.Context(), SessionID(c), *req.Index)
	if err != nil {
		gc.serviceError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

// Reset handles starting the session's game over.
func (gc *GameController) Reset(c *gin.Context) {
	state, err := gc.gameService.Reset(c.Request.Context(), SessionID(c))
	if err != nil {
		gc.serviceError(c, err)
		return
	}
	response.SuccessResponse(c, state)
}

// End handles deleting the session.
func (gc *GameController) End(c *gin.Context) {
	if err := gc.gameService.End(c.Request.Context(), SessionID(c)); err != nil {
		gc.serviceError(c, err)
		return
	}
	c.SetCookie(gc.cookieName, "", -1, "/", "", false, true)
	response.SuccessResponse(c, gin.H{"message": "Game session ended"})
}

func (gc *GameController) tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(gc.cookieName); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Query("token")
}

func (gc *GameController) serviceError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrGameNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, repository.ErrGameNotFound.Error())
		return
	}
	slog.ErrorContext(c.Request.Context(), "Game request failed", "session.id", SessionID(c), "error", err)
	response.ErrorResponse(c, http.StatusInternalServerError, "internal error")
}
