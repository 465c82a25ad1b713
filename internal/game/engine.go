package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/common"
	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/mapgen"
	"github.com/oimasterkafuu/checkmate/internal/game/processor"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
	"github.com/oimasterkafuu/checkmate/internal/game/states"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/replay"
)

// Emitter delivers engine output to clients. Calls come from the goroutine
// driving the engine, one at a time.
type Emitter interface {
	Update(sid string, payload *protocol.UpdatePayload)
	InitMap(sid string, payload protocol.InitMapPayload)
	// Chat sends to a game room or to a single session, depending on scope.
	Chat(target string, scope protocol.ChatScope, msg protocol.ChatMessage)
	GameEnded(gameID string)
}

// NopEmitter discards everything.
type NopEmitter struct{}

func (NopEmitter) Update(string, *protocol.UpdatePayload)                {}
func (NopEmitter) InitMap(string, protocol.InitMapPayload)               {}
func (NopEmitter) Chat(string, protocol.ChatScope, protocol.ChatMessage) {}
func (NopEmitter) GameEnded(string)                                      {}

// ReplaySaver persists the op stream of a finished game and returns the
// replay id.
type ReplaySaver interface {
	Save(ctx context.Context, data *protocol.ActionData, summary protocol.Summary) (string, error)
}

// GameConfig describes a game to create
type GameConfig struct {
	GameID string

	// Meta holds the lobby settings and the roster: names and teams, in
	// seat order. Team 0 seats only spectate.
	Meta       protocol.ReplayMeta
	PlayerSids []string

	// PlayerIDs are the account ids sent with the init map. They default
	// to the player names.
	PlayerIDs []string

	Emitter  Emitter
	Replays  ReplaySaver
	EventBus *events.EventBus
	Logger   zerolog.Logger

	Settings *Settings
	Clock    func() time.Time

	// Rand decides the random full snapshots; it never touches the board.
	Rand *rand.Rand

	replayBuild bool
}

// Engine is the authoritative state of one game. It is not safe for
// concurrent use: a Runner owns it and serializes every call.
type Engine struct {
	gameID string
	meta   protocol.ReplayMeta
	mode   mapgen.Mode
	speed  float64

	board     *core.Board
	players   []*Player
	bySid     map[string]*Player
	playerIDs []string
	teams     []int
	surrender []rules.SurrenderState

	turn      int
	deadCount int
	kills     map[string]string
	finished  bool
	replayID  string

	spectators   []string
	spectatorSet map[string]struct{}

	startAt    time.Time
	lastTickAt time.Time

	replayBuild bool

	// pendingAFK holds, per turn, the players whose AFK surrender a
	// replay rebuild must apply during that tick.
	pendingAFK map[int][]int

	settings Settings
	now      func() time.Time
	rand     *rand.Rand

	emitter    Emitter
	replays    ReplaySaver
	recorder   *replay.Recorder
	eventBus   *events.EventBus
	sm         *states.Machine
	actions    *processor.ActionProcessor
	production *ProductionManager
	turnProc   *TurnProcessor
	winCheck   *rules.WinConditionChecker
	logger     zerolog.Logger
}

// NewEngine generates the map, places the generals and sends every player
// the init map. The game waits in PhaseStarting until the first tick.
func NewEngine(ctx context.Context, cfg GameConfig) (*Engine, error) {
	return NewEngineInitializer(cfg).Initialize(ctx)
}

// GameID returns the game id
func (e *Engine) GameID() string { return e.gameID }

// Turn returns the number of ticks played
func (e *Engine) Turn() int { return e.turn }

// Dimensions returns the rows and columns of the board
func (e *Engine) Dimensions() (n, m int) { return e.board.N, e.board.M }

// Meta returns the replay meta the game was created with
func (e *Engine) Meta() protocol.ReplayMeta { return e.meta }

// Settings returns the constants the game runs with
func (e *Engine) Settings() Settings { return e.settings }

// Speed returns the tick speed multiplier
func (e *Engine) Speed() float64 { return e.speed }

// Phase returns the lifecycle phase
func (e *Engine) Phase() states.GamePhase { return e.sm.Phase() }

// Machine exposes the lifecycle machine
func (e *Engine) Machine() *states.Machine { return e.sm }

// IsFinished reports whether the game is over
func (e *Engine) IsFinished() bool { return e.finished }

// ReplayID returns the id of the saved replay, or "" before the game ends
func (e *Engine) ReplayID() string { return e.replayID }

// Board returns a copy of the board
func (e *Engine) Board() *core.Board { return e.board.Clone() }

// Players returns the roster. The returned players must not be modified.
func (e *Engine) Players() []*Player { return e.players }

// Player looks up a seat by session id
func (e *Engine) Player(sid string) (*Player, bool) {
	p, ok := e.bySid[sid]
	return p, ok
}

// Spectators returns the external spectator sessions
func (e *Engine) Spectators() []string {
	return append([]string(nil), e.spectators...)
}

func (e *Engine) acceptsInput() bool {
	return !e.finished && e.sm.Phase().CanReceiveActions()
}

// lookup resolves sid to a seat that may act
func (e *Engine) lookup(sid string) (*Player, bool) {
	if !e.acceptsInput() {
		return nil, false
	}
	p, ok := e.bySid[sid]
	if !ok {
		e.logger.Debug().Str("sid", sid).Msg("Ignoring input from unknown session")
	}
	return p, ok
}

// AddMove queues a move for the next ticks. Moves are validated only when
// they reach the head of the queue.
func (e *Engine) AddMove(sid string, x, y, dx, dy int, half bool) {
	p, ok := e.lookup(sid)
	if !ok || !p.IsAlive() {
		return
	}
	p.enqueue(core.NewMove(x, y, dx, dy, half))
}

// ClearQueue drops every queued move of the player
func (e *Engine) ClearQueue(sid string) {
	if p, ok := e.lookup(sid); ok {
		p.clearQueue()
	}
}

// PopQueue drops the most recently queued move
func (e *Engine) PopQueue(sid string) {
	if p, ok := e.lookup(sid); ok {
		p.popQueue()
	}
}

// InitMapFor returns the init map for sid. Sessions without a seat get the
// spectator variant. Transports use it to resend the map on reconnect.
func (e *Engine) InitMapFor(sid string) protocol.InitMapPayload {
	general := [2]int{-1, -1}
	if p, ok := e.bySid[sid]; ok && !p.General.IsNone() {
		general = [2]int{p.General.X, p.General.Y}
	}
	return e.initMapPayload(general)
}

// Resync makes the next frame sent to the seat of sid a full one
func (e *Engine) Resync(sid string) {
	if p, ok := e.bySid[sid]; ok {
		p.lastGrid, p.lastArmy = nil, nil
	}
}

func (e *Engine) initMapPayload(general [2]int) protocol.InitMapPayload {
	return protocol.InitMapPayload{
		N:         e.board.N,
		M:         e.board.M,
		PlayerIDs: append([]string(nil), e.playerIDs...),
		General:   general,
	}
}

// AddSpectator registers an external spectator and sends it the map and a
// full-vision frame. Repeated calls are ignored.
func (e *Engine) AddSpectator(sid string) {
	if e.finished {
		return
	}
	if _, ok := e.spectatorSet[sid]; ok {
		return
	}
	e.spectatorSet[sid] = struct{}{}
	e.spectators = append(e.spectators, sid)
	e.emitter.InitMap(sid, e.initMapPayload([2]int{-1, -1}))
	e.emitter.Update(sid, e.fullVisionPayload(false))
	e.logger.Debug().Str("sid", sid).Int("spectators", len(e.spectators)).Msg("Spectator joined")
}

// RemoveSpectator stops sending updates to sid
func (e *Engine) RemoveSpectator(sid string) {
	if _, ok := e.spectatorSet[sid]; !ok {
		return
	}
	delete(e.spectatorSet, sid)
	for i, s := range e.spectators {
		if s == sid {
			e.spectators = append(e.spectators[:i], e.spectators[i+1:]...)
			break
		}
	}
}

// SendMessage relays chat from a seated player. Team chat goes to every
// seat on the sender's team, other chat to the game room.
func (e *Engine) SendMessage(sid, text string, team bool) {
	p, ok := e.bySid[sid]
	if !ok {
		return
	}
	text = common.NormalizeChat(text)
	if text == "" {
		return
	}
	msg := protocol.ChatMessage{Sender: p.Name, Color: p.OwnerID(), Text: text}
	if team {
		msg.Team = true
		for _, q := range e.players {
			if q.Team == p.Team {
				e.emitter.Chat(q.Sid, protocol.ChatSid, msg)
			}
		}
		return
	}
	e.emitter.Chat(e.gameID, protocol.ChatRoom, msg)
}

func (e *Engine) systemMessage(text string) {
	e.emitter.Chat(e.gameID, protocol.ChatRoom, protocol.ChatMessage{Text: text})
}

func (e *Engine) publish(ev events.Event) {
	e.eventBus.Publish(ev)
}
