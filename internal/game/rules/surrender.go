package rules

import "github.com/oimasterkafuu/checkmate/internal/game/core"

// SurrenderState tracks a surrendering player's fade. Start is the turn the
// fade began, or -1 when no fade is pending.
type SurrenderState struct {
	Start     int
	Finalized bool
}

// Pending reports whether a fade is still running.
func (s SurrenderState) Pending() bool {
	return !s.Finalized && s.Start >= 0
}

// FinalizeSurrenders releases the territory of every player whose fade has
// lasted fadeTicks turns: cells turn neutral at half army, rounded up, and
// generals become cities. It returns the indices of players finalized.
func FinalizeSurrenders(b *core.Board, turn, fadeTicks int, states []SurrenderState) []int {
	var done []int
	for p := range states {
		s := &states[p]
		if !s.Pending() || turn-s.Start < fadeTicks {
			continue
		}
		CaptureTerritory(b, core.NeutralID, p+1)
		s.Finalized = true
		s.Start = -1
		done = append(done, p)
	}
	return done
}

// SurrenderProgress returns the fade ratio in (0, 1] keyed by owner id for
// every pending fade that has started.
func SurrenderProgress(turn, fadeTicks int, states []SurrenderState) map[int]float64 {
	progress := make(map[int]float64)
	for p, s := range states {
		if !s.Pending() {
			continue
		}
		ratio := float64(turn-s.Start) / float64(fadeTicks)
		if ratio > 1 {
			ratio = 1
		}
		if ratio > 0 {
			progress[p+1] = ratio
		}
	}
	return progress
}
