package game

import (
	"fmt"
	"strings"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
	"github.com/oimasterkafuu/checkmate/internal/game/states"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// markEliminated takes p out of play and turns it into a spectator. The
// death order is only assigned once.
func (e *Engine) markEliminated(p *Player) {
	if p.IsAlive() {
		p.Status = e.settings.LeftGame
		e.deadCount++
		p.DeadOrder = e.deadCount
	}
	p.Spectating = true
}

// kill hands the victim's territory to attacker (0 for neutral) at half
// army and eliminates the victim. When a move captured the general the
// board transfer already happened.
func (e *Engine) kill(attacker int, victim *Player, boardDone bool) {
	if !boardDone {
		rules.CaptureTerritory(e.board, attacker, victim.OwnerID())
	}
	e.markEliminated(victim)
	e.surrender[victim.Index] = rules.SurrenderState{Start: -1, Finalized: true}

	reason := ReasonSystem
	if attacker > 0 {
		winner := e.players[attacker-1]
		reason = winner.Name
		e.systemMessage(fmt.Sprintf("%s defeated and took over %s.", winner.Name, victim.Name))
	}
	e.kills[protocol.HashSid(victim.Sid)] = reason

	e.publish(events.NewPlayerEliminatedEvent(e.gameID, victim.Index, attacker, reason, victim.DeadOrder, e.turn))
	e.logger.Info().
		Int("player", victim.Index).
		Int("eliminated_by", attacker).
		Int("dead_order", victim.DeadOrder).
		Int("turn", e.turn).
		Msg("Player eliminated")
}

// surrenderPlayer starts the fade of p. It reports false when p was
// already out. Manual surrenders take effect before the next tick, AFK
// surrenders during the current one.
func (e *Engine) surrenderPlayer(p *Player, reason string) bool {
	if !p.IsAlive() {
		return false
	}
	if e.recorder != nil {
		if reason == ReasonAFK {
			e.recorder.RecordEvent(e.turn, p.Index, protocol.OpAFK)
		} else {
			e.recorder.RecordEvent(e.turn+1, p.Index, protocol.OpSurrender)
		}
	}
	e.markEliminated(p)
	e.surrender[p.Index] = rules.SurrenderState{Start: e.turn + 1}
	e.kills[protocol.HashSid(p.Sid)] = reason
	p.clearQueue()

	e.publish(events.NewPlayerEvent(events.TypePlayerSurrendered, e.gameID, p.Index, e.turn))
	e.logger.Info().Int("player", p.Index).Str("reason", reason).Int("turn", e.turn).Msg("Player surrendered")
	return true
}

// Surrender turns the player into a spectator whose territory fades to
// neutral. It reports whether the next tick should run right away.
func (e *Engine) Surrender(sid string) bool {
	p, ok := e.lookup(sid)
	if !ok || !e.surrenderPlayer(p, ReasonSurrender) {
		return false
	}
	e.systemMessage(fmt.Sprintf("%s surrendered and is now spectating.", p.Name))
	return true
}

// LeaveGame removes the player from play and stops its updates. It
// reports whether the next tick should run right away.
func (e *Engine) LeaveGame(sid string) bool {
	p, ok := e.lookup(sid)
	if !ok {
		return false
	}
	if p.IsAlive() {
		if e.recorder != nil {
			e.recorder.RecordEvent(e.turn+1, p.Index, protocol.OpLeave)
		}
		e.kill(core.NeutralID, p, false)
	}
	p.clearQueue()
	p.Watching = false
	e.publish(events.NewPlayerEvent(events.TypePlayerLeft, e.gameID, p.Index, e.turn))
	e.systemMessage(fmt.Sprintf("%s left the game.", p.Name))
	return true
}

// Disconnect starts the countdown after which a silent player is removed.
func (e *Engine) Disconnect(sid string) {
	p, ok := e.lookup(sid)
	if !ok || p.Status != 0 {
		return
	}
	if e.recorder != nil {
		e.recorder.RecordEvent(e.turn+1, p.Index, protocol.OpDisconnect)
	}
	p.Status = 1
	e.publish(events.NewPlayerEvent(events.TypePlayerDisconnected, e.gameID, p.Index, e.turn))
	e.logger.Debug().Int("player", p.Index).Int("turn", e.turn).Msg("Disconnect countdown started")
}

// Reconnect cancels a running disconnect countdown.
func (e *Engine) Reconnect(sid string) {
	p, ok := e.lookup(sid)
	if !ok || !p.Disconnected() {
		return
	}
	if e.recorder != nil {
		e.recorder.RecordEvent(e.turn+1, p.Index, protocol.OpReconnect)
	}
	p.Status = 0
	e.publish(events.NewPlayerEvent(events.TypePlayerReconnected, e.gameID, p.Index, e.turn))
	e.logger.Debug().Int("player", p.Index).Int("turn", e.turn).Msg("Disconnect countdown cancelled")
}

// Winners returns the names of the players still in play
func (e *Engine) Winners() []string {
	var names []string
	for _, p := range e.players {
		if p.IsAlive() {
			names = append(names, p.Name)
		}
	}
	return names
}

// Finish announces the result and closes the game. It is called once the
// final tick has been sent.
func (e *Engine) Finish() {
	if e.sm.Phase().IsTerminal() {
		return
	}
	e.finished = true
	winners := e.Winners()
	if len(winners) > 0 {
		e.systemMessage(strings.Join(winners, ",") + " won.")
	} else {
		e.systemMessage("Game over, no winner.")
	}

	gameCtx := e.sm.Context()
	gameCtx.Winners = winners
	gameCtx.Turn = e.turn
	duration := gameCtx.GetElapsedTime()
	if e.sm.Phase() != states.PhaseEnding {
		if err := e.sm.Transition(states.PhaseEnding, "game over"); err != nil {
			e.logger.Error().Err(err).Msg("Failed to enter ending phase")
		}
	}
	if err := e.sm.Transition(states.PhaseEnded, "winners announced"); err != nil {
		e.logger.Error().Err(err).Msg("Failed to enter ended phase")
	}

	e.publish(events.NewGameEndedEvent(e.gameID, winners, e.turn, duration, e.replayID))
	e.emitter.GameEnded(e.gameID)
	e.logger.Info().
		Strs("winners", winners).
		Int("turn", e.turn).
		Str("replay_id", e.replayID).
		Dur("duration", duration).
		Msg("Game finished")
}

// Abort ends a game that failed. The state machine records err and clients
// are told the game is over.
func (e *Engine) Abort(err error) {
	if e.sm.Phase().IsTerminal() {
		return
	}
	e.finished = true
	if ferr := e.sm.Fail(err); ferr != nil {
		e.logger.Error().Err(ferr).Msg("Failed to enter error phase")
	}
	e.logger.Error().Err(core.WrapGameStateError(e.gameID, e.turn, err)).Msg("Game aborted")
	e.systemMessage("Game aborted.")
	e.emitter.GameEnded(e.gameID)
}
