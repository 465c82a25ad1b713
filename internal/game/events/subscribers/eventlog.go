// Package subscribers holds event bus consumers that live outside the engine.
package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/events"
)

// EventLogOptions tunes an EventLog. The zero Level is debug.
type EventLogOptions struct {
	// Types limits logging to these event types; empty logs everything
	Types []string
	Level zerolog.Level
	// Raw attaches the JSON encoding of the event
	Raw bool
}

// EventLog writes game events as structured log lines. Per-turn and
// per-move events are logged one level below Level so a busy game does not
// drown out its lifecycle.
type EventLog struct {
	id     string
	logger zerolog.Logger
	types  map[string]struct{}
	level  zerolog.Level
	raw    bool
}

func NewEventLog(id string, logger zerolog.Logger, opts EventLogOptions) *EventLog {
	l := &EventLog{
		id:     id,
		logger: logger.With().Str("component", "EventLog").Logger(),
		level:  opts.Level,
		raw:    opts.Raw,
	}
	if l.level == zerolog.NoLevel || l.level == zerolog.Disabled {
		l.level = zerolog.InfoLevel
	}
	if len(opts.Types) > 0 {
		l.types = make(map[string]struct{}, len(opts.Types))
		for _, t := range opts.Types {
			l.types[t] = struct{}{}
		}
	}
	return l
}

func (l *EventLog) ID() string { return l.id }

func (l *EventLog) InterestedIn(eventType string) bool {
	if l.types == nil {
		return true
	}
	_, ok := l.types[eventType]
	return ok
}

func (l *EventLog) levelFor(eventType string) zerolog.Level {
	switch eventType {
	case events.TypeTurnStarted, events.TypeTurnEnded, events.TypeMoveExecuted, events.TypeMoveRejected:
		if l.level > zerolog.TraceLevel {
			return l.level - 1
		}
	}
	return l.level
}

func (l *EventLog) HandleEvent(event events.Event) {
	ev := l.logger.WithLevel(l.levelFor(event.Type())).
		Str("event_type", event.Type()).
		Str("game_id", event.GameID())

	switch e := event.(type) {
	case *events.GameStartedEvent:
		ev = ev.Int("num_players", e.NumPlayers).
			Int("rows", e.Rows).
			Int("cols", e.Cols).
			Str("map_mode", e.MapMode)
	case *events.GameEndedEvent:
		ev = ev.Strs("winners", e.Winners).
			Int("final_turn", e.FinalTurn).
			Dur("duration", e.Duration).
			Str("replay_id", e.ReplayID)
	case *events.TurnStartedEvent:
		ev = ev.Int("turn", e.TurnNumber)
	case *events.TurnEndedEvent:
		ev = ev.Int("turn", e.TurnNumber).
			Int("moves_applied", e.MovesApplied).
			Dur("process_time", e.ProcessedTime)
	case *events.MoveExecutedEvent:
		ev = ev.Int("player_id", e.PlayerID).
			Stringer("move", e.Move).
			Bool("half", e.Move.Half).
			Int("armies_moved", e.ArmiesMoved).
			Int("captured", e.Captured)
	case *events.MoveRejectedEvent:
		ev = ev.Int("player_id", e.PlayerID).
			Stringer("move", e.Move).
			Str("reason", e.Reason)
	case *events.PlayerEliminatedEvent:
		ev = ev.Int("player_id", e.PlayerID).
			Int("eliminated_by", e.EliminatedBy).
			Str("reason", e.Reason).
			Int("dead_order", e.DeadOrder)
	case *events.PlayerEvent:
		ev = ev.Int("player_id", e.PlayerID).Int("turn", e.Metadata.Turn)
	case *events.ReplaySavedEvent:
		ev = ev.Str("replay_id", e.ReplayID).Int("total_turns", e.TotalTurns)
	case *events.StateTransitionEvent:
		ev = ev.Str("from", e.FromPhase).Str("to", e.ToPhase).Str("reason", e.Reason)
	}

	if l.raw {
		if data, err := json.Marshal(event); err == nil {
			ev = ev.RawJSON("event", data)
		}
	}
	ev.Msg("Game event")
}
