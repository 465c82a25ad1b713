package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/monitoring"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/replay"
)

// queryTimeout bounds a status query against a busy runner
const queryTimeout = 5 * time.Second

// ReplayStore is the read side of the replay store
type ReplayStore interface {
	List(ctx context.Context) ([]protocol.ListItem, error)
	Load(id string) (*protocol.ReplayData, error)
}

// RouterDeps are the collaborators served over HTTP. Replays and Monitor
// may be nil.
type RouterDeps struct {
	Games   *GameManager
	Hub     *Hub
	Replays ReplayStore
	Monitor *monitoring.GoroutineMonitor
	Logger  zerolog.Logger
}

// NewRouter wires the HTTP and websocket endpoints
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger.With().Str("component", "HTTP").Logger()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", healthHandler(deps))

	api := r.Group("/api")
	api.POST("/games", createGameHandler(deps.Games))
	api.GET("/games/:id", gameStatusHandler(deps.Games))
	if deps.Replays != nil {
		api.GET("/replays", listReplaysHandler(deps.Replays, logger))
		api.GET("/replays/:id", replayHandler(deps.Replays, logger))
		api.GET("/replays/:id/binary", replayBinaryHandler(deps.Replays, logger))
	}

	r.GET("/ws", deps.Hub.Handler(deps.Games))
	return r
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		event := logger.Debug()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("Handled request")
	}
}

func healthHandler(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":       "ok",
			"active_games": deps.Games.ActiveGames(),
			"sessions":     deps.Hub.Sessions(),
		}
		if deps.Monitor != nil {
			body["goroutines"] = deps.Monitor.GetMetrics()
		}
		c.JSON(http.StatusOK, body)
	}
}

func createGameHandler(games *GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateGameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := games.CreateGame(req)
		switch {
		case errors.Is(err, ErrUnknownPreset), errors.Is(err, ErrInvalidRoster):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrServerAtCapacity):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusCreated, created)
		}
	}
}

func gameStatusHandler(games *GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
		defer cancel()
		status, err := games.Status(ctx, c.Param("id"))
		switch {
		case errors.Is(err, ErrGameNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, status)
		}
	}
}

func listReplaysHandler(store ReplayStore, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := store.List(c.Request.Context())
		if err != nil {
			replayError(c, logger, err)
			return
		}
		if items == nil {
			items = []protocol.ListItem{}
		}
		c.JSON(http.StatusOK, items)
	}
}

func replayHandler(store ReplayStore, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := store.Load(c.Param("id"))
		if err != nil {
			replayError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, data)
	}
}

func replayBinaryHandler(store ReplayStore, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := store.Load(c.Param("id"))
		if err != nil {
			replayError(c, logger, err)
			return
		}
		raw, err := replay.Encode(data)
		if err != nil {
			replayError(c, logger, err)
			return
		}
		c.Data(http.StatusOK, "application/octet-stream", raw)
	}
}

func replayError(c *gin.Context, logger zerolog.Logger, err error) {
	if errors.Is(err, replay.ErrReplayNotFound) || errors.Is(err, replay.ErrInvalidReplayID) {
		c.JSON(http.StatusNotFound, gin.H{"error": replay.ErrReplayNotFound.Error()})
		return
	}
	logger.Error().Err(err).Str("replay_id", c.Param("id")).Msg("Replay request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
