package events

import (
	"time"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
)

// Event type constants
const (
	TypeGameStarted        = "game.started"
	TypeGameEnded          = "game.ended"
	TypeTurnStarted        = "turn.started"
	TypeTurnEnded          = "turn.ended"
	TypeMoveExecuted       = "move.executed"
	TypeMoveRejected       = "move.rejected"
	TypePlayerEliminated   = "player.eliminated"
	TypePlayerSurrendered  = "player.surrendered"
	TypeSurrenderFinalized = "player.surrender_finalized"
	TypePlayerLeft         = "player.left"
	TypePlayerDisconnected = "player.disconnected"
	TypePlayerReconnected  = "player.reconnected"
	TypeReplaySaved        = "replay.saved"
	TypeStateTransition    = "state.transition"
)

func newBase(eventType, gameID string) BaseEvent {
	return BaseEvent{EventType: eventType, Time: time.Now(), Game: gameID}
}

// GameStartedEvent is published when the first tick is scheduled
type GameStartedEvent struct {
	BaseEvent
	NumPlayers int
	Rows       int
	Cols       int
	MapMode    string
}

func NewGameStartedEvent(gameID string, numPlayers, rows, cols int, mapMode string) *GameStartedEvent {
	return &GameStartedEvent{
		BaseEvent:  newBase(TypeGameStarted, gameID),
		NumPlayers: numPlayers,
		Rows:       rows,
		Cols:       cols,
		MapMode:    mapMode,
	}
}

// GameEndedEvent is published after the final payload went out
type GameEndedEvent struct {
	BaseEvent
	Winners   []string
	FinalTurn int
	Duration  time.Duration
	ReplayID  string
}

func NewGameEndedEvent(gameID string, winners []string, finalTurn int, duration time.Duration, replayID string) *GameEndedEvent {
	return &GameEndedEvent{
		BaseEvent: newBase(TypeGameEnded, gameID),
		Winners:   winners,
		FinalTurn: finalTurn,
		Duration:  duration,
		ReplayID:  replayID,
	}
}

// TurnStartedEvent is published at the beginning of each tick
type TurnStartedEvent struct {
	BaseEvent
	Metadata   EventMetadata
	TurnNumber int
}

func NewTurnStartedEvent(gameID string, turn int) *TurnStartedEvent {
	return &TurnStartedEvent{
		BaseEvent:  newBase(TypeTurnStarted, gameID),
		Metadata:   EventMetadata{Turn: turn},
		TurnNumber: turn,
	}
}

// TurnEndedEvent is published once a tick has been resolved
type TurnEndedEvent struct {
	BaseEvent
	Metadata      EventMetadata
	TurnNumber    int
	MovesApplied  int
	ProcessedTime time.Duration
}

func NewTurnEndedEvent(gameID string, turn, movesApplied int, processedTime time.Duration) *TurnEndedEvent {
	return &TurnEndedEvent{
		BaseEvent:     newBase(TypeTurnEnded, gameID),
		Metadata:      EventMetadata{Turn: turn},
		TurnNumber:    turn,
		MovesApplied:  movesApplied,
		ProcessedTime: processedTime,
	}
}

// MoveExecutedEvent is published for every move applied to the board
type MoveExecutedEvent struct {
	BaseEvent
	Metadata    EventMetadata
	PlayerID    int
	Move        core.Move
	ArmiesMoved int
	Captured    int
}

func NewMoveExecutedEvent(gameID string, playerID int, m core.Move, armies, captured, turn int) *MoveExecutedEvent {
	return &MoveExecutedEvent{
		BaseEvent:   newBase(TypeMoveExecuted, gameID),
		Metadata:    EventMetadata{PlayerID: playerID, Turn: turn},
		PlayerID:    playerID,
		Move:        m,
		ArmiesMoved: armies,
		Captured:    captured,
	}
}

// MoveRejectedEvent is published when a queued move is dropped
type MoveRejectedEvent struct {
	BaseEvent
	Metadata EventMetadata
	PlayerID int
	Move     core.Move
	Reason   string
}

func NewMoveRejectedEvent(gameID string, playerID int, m core.Move, reason error, turn int) *MoveRejectedEvent {
	return &MoveRejectedEvent{
		BaseEvent: newBase(TypeMoveRejected, gameID),
		Metadata:  EventMetadata{PlayerID: playerID, Turn: turn},
		PlayerID:  playerID,
		Move:      m,
		Reason:    reason.Error(),
	}
}

// PlayerEliminatedEvent is published when a player leaves play. EliminatedBy
// is the attacker's owner id, 0 for neutral causes.
type PlayerEliminatedEvent struct {
	BaseEvent
	Metadata     EventMetadata
	PlayerID     int
	EliminatedBy int
	Reason       string
	DeadOrder    int
}

func NewPlayerEliminatedEvent(gameID string, playerID, eliminatedBy int, reason string, deadOrder, turn int) *PlayerEliminatedEvent {
	return &PlayerEliminatedEvent{
		BaseEvent:    newBase(TypePlayerEliminated, gameID),
		Metadata:     EventMetadata{PlayerID: playerID, Turn: turn},
		PlayerID:     playerID,
		EliminatedBy: eliminatedBy,
		Reason:       reason,
		DeadOrder:    deadOrder,
	}
}

// PlayerEvent covers player lifecycle changes that carry no extra data:
// surrender, surrender finalize, leave, disconnect and reconnect.
type PlayerEvent struct {
	BaseEvent
	Metadata EventMetadata
	PlayerID int
}

func NewPlayerEvent(eventType, gameID string, playerID, turn int) *PlayerEvent {
	return &PlayerEvent{
		BaseEvent: newBase(eventType, gameID),
		Metadata:  EventMetadata{PlayerID: playerID, Turn: turn},
		PlayerID:  playerID,
	}
}

// ReplaySavedEvent is published when a finished game's replay is stored
type ReplaySavedEvent struct {
	BaseEvent
	ReplayID   string
	TotalTurns int
}

func NewReplaySavedEvent(gameID, replayID string, totalTurns int) *ReplaySavedEvent {
	return &ReplaySavedEvent{
		BaseEvent:  newBase(TypeReplaySaved, gameID),
		ReplayID:   replayID,
		TotalTurns: totalTurns,
	}
}

// StateTransitionEvent is published when the game state machine transitions between phases
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(gameID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, gameID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
