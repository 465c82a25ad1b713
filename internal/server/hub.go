package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// Events sent to clients.
const (
	EventUpdate  = "update"
	EventInitMap = "init_map"
	EventChat    = "chat"
	EventGameEnd = "game_end"
)

// Events accepted from clients.
const (
	EventMove        = "move"
	EventClearQueue  = "clear_queue"
	EventPopQueue    = "pop_queue"
	EventSurrender   = "surrender"
	EventLeave       = "leave"
	EventSendMessage = "send_message"
)

const maxMessageSize = 4096

type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type serverMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type moveRequest struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	DX   int  `json:"dx"`
	DY   int  `json:"dy"`
	Half bool `json:"half"`
}

type chatRequest struct {
	Text string `json:"text"`
	Team bool   `json:"team"`
}

type gameEndMessage struct {
	GameID string `json:"game_id"`
}

// GameLookup finds the runner of a live game
type GameLookup interface {
	Runner(gameID string) (*game.Runner, bool)
}

// HubOptions configure a Hub. Zero values take the defaults.
type HubOptions struct {
	// AllowedOrigins lists the accepted Origin headers. Empty accepts any.
	AllowedOrigins []string
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
}

func (o HubOptions) withDefaults() HubOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	return o
}

// Hub tracks websocket sessions by sid and by game room. It implements
// game.Emitter: engine output is encoded once and queued on the session's
// send buffer, so a slow client never stalls a tick.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]*client

	upgrader websocket.Upgrader
	opts     HubOptions
	logger   zerolog.Logger
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	sid    string
	gameID string
	seated bool

	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

// NewHub creates an empty hub
func NewHub(opts HubOptions, logger zerolog.Logger) *Hub {
	opts = opts.withDefaults()
	h := &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]*client),
		opts:    opts,
		logger:  logger.With().Str("component", "WebsocketHub").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	h.logger.Warn().Str("origin", origin).Msg("Rejected websocket origin")
	return false
}

// Update implements game.Emitter
func (h *Hub) Update(sid string, payload *protocol.UpdatePayload) {
	h.sendTo(sid, EventUpdate, payload)
}

// InitMap implements game.Emitter
func (h *Hub) InitMap(sid string, payload protocol.InitMapPayload) {
	h.sendTo(sid, EventInitMap, payload)
}

// Chat implements game.Emitter
func (h *Hub) Chat(target string, scope protocol.ChatScope, msg protocol.ChatMessage) {
	if scope == protocol.ChatRoom {
		h.broadcast(target, EventChat, msg)
		return
	}
	h.sendTo(target, EventChat, msg)
}

// GameEnded implements game.Emitter
func (h *Hub) GameEnded(gameID string) {
	h.broadcast(gameID, EventGameEnd, gameEndMessage{GameID: gameID})
}

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(serverMessage{Event: event, Data: data})
}

func (h *Hub) sendTo(sid, event string, data any) {
	h.mu.RLock()
	c, ok := h.clients[sid]
	h.mu.RUnlock()
	if !ok {
		return
	}
	raw, err := encode(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode message")
		return
	}
	c.enqueue(raw)
}

func (h *Hub) broadcast(gameID, event string, data any) {
	h.mu.RLock()
	room := make([]*client, 0, len(h.rooms[gameID]))
	for _, c := range h.rooms[gameID] {
		room = append(room, c)
	}
	h.mu.RUnlock()
	if len(room) == 0 {
		return
	}
	raw, err := encode(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode message")
		return
	}
	for _, c := range room {
		c.enqueue(raw)
	}
}

// register adds c, closing any older session with the same sid
func (h *Hub) register(c *client) {
	h.mu.Lock()
	old := h.clients[c.sid]
	h.clients[c.sid] = c
	room, ok := h.rooms[c.gameID]
	if !ok {
		room = make(map[string]*client)
		h.rooms[c.gameID] = room
	}
	room[c.sid] = c
	h.mu.Unlock()

	if old != nil {
		old.close()
	}
}

// unregister removes c. It reports false when a newer session took over
// the sid.
func (h *Hub) unregister(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.sid] != c {
		return false
	}
	delete(h.clients, c.sid)
	if room, ok := h.rooms[c.gameID]; ok {
		delete(room, c.sid)
		if len(room) == 0 {
			delete(h.rooms, c.gameID)
		}
	}
	return true
}

// Sessions returns the number of connected sessions
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every session
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.Unlock()
	for _, c := range all {
		c.close()
	}
}

// Handler upgrades GET /ws?game=<id>&sid=<sid>. A sid holding a seat plays;
// any other sid, or none, spectates.
func (h *Hub) Handler(games GameLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID := c.Query("game")
		runner, ok := games.Runner(gameID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrGameNotFound.Error()})
			return
		}
		select {
		case <-runner.Done():
			c.JSON(http.StatusGone, gin.H{"error": game.ErrRunnerStopped.Error()})
			return
		default:
		}
		sid := c.Query("sid")
		if sid == "" {
			sid = uuid.New().String()
		}

		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Debug().Err(err).Msg("Websocket upgrade failed")
			return
		}
		cl := &client{
			hub:    h,
			conn:   conn,
			sid:    sid,
			gameID: gameID,
			send:   make(chan []byte, h.opts.SendBuffer),
			closed: make(chan struct{}),
		}
		go cl.writePump()

		// Registering on the game loop orders the init map ahead of every
		// update the engine sends this session.
		err = runner.Query(c.Request.Context(), func(e *game.Engine) {
			_, cl.seated = e.Player(sid)
			h.register(cl)
			if !cl.seated {
				e.AddSpectator(sid)
				return
			}
			if raw, err := encode(EventInitMap, e.InitMapFor(sid)); err == nil {
				cl.enqueue(raw)
			}
			e.Resync(sid)
			e.Reconnect(sid)
		})
		if err != nil {
			h.unregister(cl)
			cl.close()
			return
		}
		h.logger.Debug().Str("game_id", gameID).Str("sid", sid).Bool("seated", cl.seated).Msg("Session connected")

		cl.readPump(runner)

		if h.unregister(cl) {
			if cl.seated {
				h.ignoreStopped(runner.Disconnect(sid))
			} else {
				h.ignoreStopped(runner.RemoveSpectator(sid))
			}
		}
		cl.close()
		h.logger.Debug().Str("game_id", gameID).Str("sid", sid).Msg("Session closed")
	}
}

func (h *Hub) ignoreStopped(err error) {
	if err != nil && !errors.Is(err, game.ErrRunnerStopped) {
		h.logger.Warn().Err(err).Msg("Failed to reach game runner")
	}
}

func (c *client) enqueue(raw []byte) {
	select {
	case <-c.closed:
	case c.send <- raw:
	default:
		// a client that cannot keep up would desync on diffs anyway
		c.hub.logger.Warn().Str("sid", c.sid).Msg("Send buffer full, dropping session")
		c.close()
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

func (c *client) readPump(runner *game.Runner) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.logger.Debug().Err(err).Str("sid", c.sid).Msg("Ignoring malformed message")
			continue
		}
		if err := c.dispatch(runner, msg); err != nil {
			if errors.Is(err, game.ErrRunnerStopped) {
				continue
			}
			c.hub.logger.Debug().Err(err).Str("sid", c.sid).Str("event", msg.Event).Msg("Ignoring message")
		}
	}
}

var errUnknownEvent = errors.New("unknown event")

// dispatch forwards one client message to the game
func (c *client) dispatch(runner *game.Runner, msg clientMessage) error {
	switch msg.Event {
	case EventMove:
		var m moveRequest
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return err
		}
		return runner.AddMove(c.sid, m.X, m.Y, m.DX, m.DY, m.Half)
	case EventClearQueue:
		return runner.ClearQueue(c.sid)
	case EventPopQueue:
		return runner.PopQueue(c.sid)
	case EventSurrender:
		return runner.Surrender(c.sid)
	case EventLeave:
		return runner.LeaveGame(c.sid)
	case EventSendMessage:
		var m chatRequest
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return err
		}
		return runner.SendMessage(c.sid, m.Text, m.Team)
	default:
		return errUnknownEvent
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.opts.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case raw := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

var _ game.Emitter = (*Hub)(nil)
