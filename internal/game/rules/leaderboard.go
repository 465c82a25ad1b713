package rules

import (
	"sort"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// Standing is the per-player input of the leaderboard.
type Standing struct {
	Name       string
	Team       int
	Eliminated bool
	// AFK is set while a disconnect countdown runs.
	AFK       bool
	DeadOrder int
}

// BuildLeaderboard sums army and land per owner. Players on team 0 are
// spectators and left out.
func BuildLeaderboard(b *core.Board, standings []Standing) []protocol.LeaderboardEntry {
	army := make([]int, len(standings))
	land := make([]int, len(standings))
	for _, t := range b.T {
		if t.Owner > 0 && t.Owner <= len(standings) {
			army[t.Owner-1] += t.Army
			land[t.Owner-1]++
		}
	}

	entries := make([]protocol.LeaderboardEntry, 0, len(standings))
	for i, s := range standings {
		if s.Team == 0 {
			continue
		}
		class := protocol.ClassNone
		if s.Eliminated {
			class = protocol.ClassDead
		} else if s.AFK {
			class = protocol.ClassAFK
		}
		entries = append(entries, protocol.LeaderboardEntry{
			Team:  s.Team,
			UID:   s.Name,
			Army:  army[i],
			Land:  land[i],
			Class: class,
			Dead:  s.DeadOrder,
			ID:    i + 1,
		})
	}
	return entries
}

// FinalRank orders player names best first by army, then land, then
// elimination order (later is better).
func FinalRank(entries []protocol.LeaderboardEntry) []string {
	sorted := append([]protocol.LeaderboardEntry(nil), entries...)
	score := func(e protocol.LeaderboardEntry) float64 {
		return float64(e.Dead) + float64(e.Land)*100 + float64(e.Army)*1e7
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i]) > score(sorted[j])
	})
	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.UID
	}
	return names
}
