package states

import (
	"time"

	"github.com/rs/zerolog"
)

// GameContext provides game-specific information to states for making decisions
type GameContext struct {
	GameID string
	Logger zerolog.Logger

	// PlayerCount counts players on a team, spectators excluded.
	PlayerCount int

	// StartTime is when PhaseRunning was entered
	StartTime time.Time

	Winners []string
	Turn    int

	// Error holds the error that caused transition to PhaseError
	Error error
}

func NewGameContext(gameID string, playerCount int, logger zerolog.Logger) *GameContext {
	return &GameContext{
		GameID:      gameID,
		PlayerCount: playerCount,
		Logger:      logger.With().Str("game_id", gameID).Logger(),
	}
}

// GetElapsedTime returns the time elapsed since the first tick.
func (gc *GameContext) GetElapsedTime() time.Duration {
	if gc.StartTime.IsZero() {
		return 0
	}
	return time.Since(gc.StartTime)
}
