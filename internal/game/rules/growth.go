package rules

import "github.com/oimasterkafuu/checkmate/internal/game/core"

// UniformGrowthInterval is how often every owned cell gains an army.
const UniformGrowthInterval = 50

// ApplyTickGrowth grows armies for turn. alive[p] reports whether owner
// p+1 is still in the game.
//
// Every even turn cities and generals of living owners gain 1 and owned
// swamps lose 1, turning neutral when they reach 0. Every
// UniformGrowthInterval turns each cell of a living owner gains 1.
func ApplyTickGrowth(b *core.Board, turn int, alive []bool) {
	ownerAlive := func(owner int) bool {
		return owner > 0 && owner <= len(alive) && alive[owner-1]
	}

	if turn%2 == 0 {
		for i := range b.T {
			t := &b.T[i]
			if t.IsStructure() && ownerAlive(t.Owner) {
				t.Army++
			} else if t.IsSwamp() && t.Owner > 0 {
				t.Army--
				if t.Army == 0 {
					t.Owner = core.NeutralID
				}
			}
		}
	}

	if turn%UniformGrowthInterval == 0 {
		for i := range b.T {
			if ownerAlive(b.T[i].Owner) {
				b.T[i].Army++
			}
		}
	}
}
