package rules

import "github.com/rs/zerolog"

// Player is the view of a player the win check needs.
type Player interface {
	GetID() int
	GetTeam() int
	IsAlive() bool
}

// WinConditionChecker decides when a game is over.
type WinConditionChecker struct {
	logger zerolog.Logger
}

func NewWinConditionChecker(logger zerolog.Logger) *WinConditionChecker {
	return &WinConditionChecker{
		logger: logger.With().Str("component", "WinConditionChecker").Logger(),
	}
}

// CheckGameOver reports whether at most one team still has a living player,
// and returns the ids of the living players.
func (wc *WinConditionChecker) CheckGameOver(players []Player) (bool, []int) {
	teams := make(map[int]struct{})
	var alive []int
	for _, p := range players {
		if !p.IsAlive() {
			continue
		}
		teams[p.GetTeam()] = struct{}{}
		alive = append(alive, p.GetID())
	}

	gameOver := len(teams) <= 1
	wc.logger.Debug().
		Bool("is_game_over", gameOver).
		Int("alive_teams", len(teams)).
		Ints("alive_players", alive).
		Msg("Game over check complete")
	return gameOver, alive
}
