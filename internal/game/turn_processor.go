package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/processor"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
	"github.com/oimasterkafuu/checkmate/internal/game/states"
)

// TurnProcessor handles the orchestration of a single turn
type TurnProcessor struct {
	engine *Engine
	logger zerolog.Logger
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(engine *Engine) *TurnProcessor {
	return &TurnProcessor{
		engine: engine,
		logger: engine.logger,
	}
}

// ProcessTurn advances the board by one tick and reports whether at most
// one team is left. It does not emit anything.
func (tp *TurnProcessor) ProcessTurn(ctx context.Context) (bool, error) {
	e := tp.engine

	// Check context at start
	if err := tp.checkContext(ctx, "before starting"); err != nil {
		return false, err
	}
	if phase := e.sm.Phase(); phase != states.PhaseRunning {
		return false, core.WrapGameStateError(e.gameID, e.turn, fmt.Errorf("%w: phase %s", core.ErrGameOver, phase))
	}

	e.turn++
	turnLogger := tp.logger.With().Int("turn", e.turn).Logger()
	turnStartTime := time.Now()
	e.publish(events.NewTurnStartedEvent(e.gameID, e.turn))

	// Production phase
	e.production.ProcessTurnProduction(e.board, e.players, e.turn)
	for _, p := range e.production.AdvanceCountdowns(e.players, e.settings.LeftGame) {
		turnLogger.Info().Int("player", p.Index).Msg("Disconnect countdown expired")
		e.kill(core.NeutralID, p, false)
	}

	// Actions phase
	applied, err := tp.processActionsPhase(ctx)
	if err != nil {
		return false, err
	}

	// End of turn phase
	tp.applyAFKSurrenders(e.now())
	e.production.FinalizeSurrenders(e.board, e.surrender, e.turn, e.settings.SurrenderFadeTicks)

	over, alive := e.winCheck.CheckGameOver(tp.rulesPlayers())
	e.publish(events.NewTurnEndedEvent(e.gameID, e.turn, applied, time.Since(turnStartTime)))
	turnLogger.Debug().
		Int("moves_applied", applied).
		Ints("alive_players", alive).
		Bool("game_over", over).
		Dur("elapsed", time.Since(turnStartTime)).
		Msg("Game step finished")
	return over, nil
}

// checkContext checks if the context is cancelled
func (tp *TurnProcessor) checkContext(ctx context.Context, phase string) error {
	select {
	case <-ctx.Done():
		tp.logger.Warn().Err(ctx.Err()).Str("phase", phase).Msg("Turn processing cancelled")
		return ctx.Err()
	default:
		return nil
	}
}

// processActionsPhase drains one move per player. Captured generals are
// resolved as soon as they fall so later players see the new owner.
func (tp *TurnProcessor) processActionsPhase(ctx context.Context) (int, error) {
	e := tp.engine
	moved := make([]bool, len(e.players))
	infos := make([]processor.PlayerInfo, len(e.players))
	for i, p := range e.players {
		infos[i] = p
	}

	applied, err := e.actions.ProcessQueues(ctx, e.board, e.teams, infos, e.turn, func(a processor.Applied) {
		p := e.players[a.Player]
		p.LastMove = a.Move
		moved[a.Player] = true
		if e.recorder != nil {
			e.recorder.RecordMove(e.turn, a.Player, a.Move)
		}
		if a.Victim > 0 && a.Victim <= len(e.players) {
			e.kill(p.OwnerID(), e.players[a.Victim-1], true)
		}
	})
	if err != nil {
		return len(applied), fmt.Errorf("processing moves: %w", err)
	}

	now := e.now()
	for i, ok := range moved {
		if ok {
			e.players[i].afkLastTurn = e.turn
			e.players[i].afkLastAt = now
		}
	}
	return len(applied), nil
}

// applyAFKSurrenders surrenders every player idle for long enough in both
// turns and wall time. A replay rebuild applies the recorded surrenders
// instead, since it runs without wall time.
func (tp *TurnProcessor) applyAFKSurrenders(now time.Time) {
	e := tp.engine
	var idle []*Player
	if e.replayBuild {
		for _, idx := range e.pendingAFK[e.turn] {
			idle = append(idle, e.players[idx])
		}
		delete(e.pendingAFK, e.turn)
	} else {
		for _, p := range e.players {
			if p.Team == 0 || !p.IsAlive() {
				continue
			}
			if e.turn-p.afkLastTurn < e.settings.AFKMinTurns || now.Sub(p.afkLastAt) < e.settings.AFKMinDuration {
				continue
			}
			idle = append(idle, p)
		}
	}

	for _, p := range idle {
		if e.surrenderPlayer(p, ReasonAFK) {
			e.systemMessage(fmt.Sprintf("%s was idle too long and is now spectating.", p.Name))
		}
	}
}

func (tp *TurnProcessor) rulesPlayers() []rules.Player {
	out := make([]rules.Player, len(tp.engine.players))
	for i, p := range tp.engine.players {
		out[i] = p
	}
	return out
}

// Begin enters PhaseRunning and sends the opening frame
func (e *Engine) Begin(ctx context.Context) error {
	if err := e.sm.Transition(states.PhaseRunning, "start delay elapsed"); err != nil {
		return err
	}
	e.lastTickAt = e.now()
	for _, p := range e.players {
		if p.Team == 0 || !p.IsAlive() {
			continue
		}
		p.afkLastTurn = e.turn
		p.afkLastAt = e.lastTickAt
	}
	if !e.replayBuild {
		e.sendMap(ctx, false)
	}
	return nil
}

// Tick plays one turn and sends every viewer its update. It reports
// whether the game ended; the caller then runs Finish.
func (e *Engine) Tick(ctx context.Context) (bool, error) {
	e.lastTickAt = e.now()
	over, err := e.turnProc.ProcessTurn(ctx)
	if err != nil {
		return false, err
	}
	if over {
		e.finished = true
		e.sm.Context().Turn = e.turn
		if err := e.sm.Transition(states.PhaseEnding, "at most one team left"); err != nil {
			e.logger.Error().Err(err).Msg("Failed to enter ending phase")
		}
	}
	e.sendMap(ctx, over)
	return over, nil
}

// NextTickDelay is how long the loop waits after the tick that started at
// the last tick time.
func (e *Engine) NextTickDelay() time.Duration {
	elapsed := e.now().Sub(e.lastTickAt)
	return max(e.settings.MinTickDelay, e.settings.TickInterval(e.speed)-elapsed)
}

// StartDelay is how long the loop waits before the first tick.
func (e *Engine) StartDelay() time.Duration {
	return max(e.settings.MinTickDelay, e.startAt.Add(e.settings.StartDelay).Sub(e.now()))
}
