package game

import (
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// This file contains the player standings of the game engine.

func (e *Engine) standings() []rules.Standing {
	out := make([]rules.Standing, len(e.players))
	for i, p := range e.players {
		out[i] = rules.Standing{
			Name:       p.Name,
			Team:       p.Team,
			Eliminated: !p.IsAlive(),
			AFK:        p.Disconnected(),
			DeadOrder:  p.DeadOrder,
		}
	}
	return out
}

// leaderboard sums army and land of every playing seat
func (e *Engine) leaderboard() []protocol.LeaderboardEntry {
	return rules.BuildLeaderboard(e.board, e.standings())
}

func (e *Engine) surrenderProgress() map[int]float64 {
	return rules.SurrenderProgress(e.turn, e.settings.SurrenderFadeTicks, e.surrender)
}

// Leaderboard returns the current standings
func (e *Engine) Leaderboard() []protocol.LeaderboardEntry {
	return e.leaderboard()
}
