package states

import (
	"errors"
	"fmt"
	"time"
)

// InitializingState covers map generation.
type InitializingState struct{}

func NewInitializingState() State { return &InitializingState{} }

func (s *InitializingState) Phase() GamePhase { return PhaseInitializing }

func (s *InitializingState) Enter(ctx *GameContext) error {
	ctx.Logger.Debug().Msg("Entering Initializing state")
	return nil
}

func (s *InitializingState) Exit(ctx *GameContext) error {
	ctx.Logger.Debug().Msg("Exiting Initializing state")
	return nil
}

func (s *InitializingState) Validate(ctx *GameContext) error { return nil }

// StartingState waits for the start delay before the first tick.
type StartingState struct{}

func NewStartingState() State { return &StartingState{} }

func (s *StartingState) Phase() GamePhase { return PhaseStarting }

func (s *StartingState) Enter(ctx *GameContext) error {
	ctx.Logger.Info().Int("player_count", ctx.PlayerCount).Msg("Map ready, waiting for first tick")
	return nil
}

func (s *StartingState) Exit(ctx *GameContext) error { return nil }

func (s *StartingState) Validate(ctx *GameContext) error {
	if ctx.PlayerCount < 1 {
		return fmt.Errorf("not enough players to start: have %d, need at least 1", ctx.PlayerCount)
	}
	return nil
}

// RunningState represents active gameplay
type RunningState struct{}

func NewRunningState() State { return &RunningState{} }

func (s *RunningState) Phase() GamePhase { return PhaseRunning }

func (s *RunningState) Enter(ctx *GameContext) error {
	ctx.StartTime = time.Now()
	ctx.Logger.Info().Time("start_time", ctx.StartTime).Msg("Game started")
	return nil
}

func (s *RunningState) Exit(ctx *GameContext) error {
	ctx.Logger.Info().
		Dur("elapsed", ctx.GetElapsedTime()).
		Int("turn", ctx.Turn).
		Msg("Exiting running state")
	return nil
}

func (s *RunningState) Validate(ctx *GameContext) error { return nil }

// EndingState sends the final payload and persists the replay.
type EndingState struct{}

func NewEndingState() State { return &EndingState{} }

func (s *EndingState) Phase() GamePhase { return PhaseEnding }

func (s *EndingState) Enter(ctx *GameContext) error {
	ctx.Logger.Info().Strs("winners", ctx.Winners).Msg("Game ending")
	return nil
}

func (s *EndingState) Exit(ctx *GameContext) error { return nil }

func (s *EndingState) Validate(ctx *GameContext) error { return nil }

// EndedState represents a completed game
type EndedState struct{}

func NewEndedState() State { return &EndedState{} }

func (s *EndedState) Phase() GamePhase { return PhaseEnded }

func (s *EndedState) Enter(ctx *GameContext) error {
	ctx.Logger.Info().
		Strs("winners", ctx.Winners).
		Int("turn", ctx.Turn).
		Dur("game_duration", ctx.GetElapsedTime()).
		Msg("Game ended")
	return nil
}

func (s *EndedState) Exit(ctx *GameContext) error { return nil }

func (s *EndedState) Validate(ctx *GameContext) error { return nil }

// ErrorState records a game aborted by a failure.
type ErrorState struct{}

func NewErrorState() State { return &ErrorState{} }

func (s *ErrorState) Phase() GamePhase { return PhaseError }

func (s *ErrorState) Enter(ctx *GameContext) error {
	ctx.Logger.Error().Err(ctx.Error).Int("turn", ctx.Turn).Msg("Game aborted")
	return nil
}

func (s *ErrorState) Exit(ctx *GameContext) error { return nil }

func (s *ErrorState) Validate(ctx *GameContext) error {
	if ctx.Error == nil {
		return errors.New("error state requires an error")
	}
	return nil
}
