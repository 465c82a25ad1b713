package vision

import "github.com/oimasterkafuu/checkmate/internal/game/core"

var (
	nearbyDX = [9]int{0, -1, 1, 0, 0, -1, -1, 1, 1}
	nearbyDY = [9]int{0, 0, 0, -1, 1, -1, 1, -1, 1}
)

// Full returns the unmasked tile codes and armies, as seen by spectators.
func Full(b *core.Board) (grid, army []int) {
	grid = make([]int, len(b.T))
	army = make([]int, len(b.T))
	for i, t := range b.T {
		grid[i] = EncodeVisible(t.Kind, t.Owner, t.Army)
		army[i] = t.Army
	}
	return grid, army
}

// Visible marks every cell within one step (diagonals included) of a cell
// owned by a player on viewerTeam. teams[p] is the team of owner p+1.
func Visible(b *core.Board, viewerTeam int, teams []int) []bool {
	seen := make([]bool, len(b.T))
	for i, t := range b.T {
		if t.Owner == core.NeutralID || t.Owner > len(teams) || teams[t.Owner-1] != viewerTeam {
			continue
		}
		x, y := b.XY(i)
		for d := range nearbyDX {
			nx, ny := x+nearbyDX[d], y+nearbyDY[d]
			if b.InBounds(nx, ny) {
				seen[b.Idx(nx, ny)] = true
			}
		}
	}
	return seen
}

// ForViewer returns the arrays a member of viewerTeam receives. Hidden
// cells carry a fog code and zero army. With force set the view is
// unmasked, which is how eliminated players and spectators see the map.
func ForViewer(b *core.Board, viewerTeam int, teams []int, force bool) (grid, army []int) {
	if force {
		return Full(b)
	}
	seen := Visible(b, viewerTeam, teams)
	grid = make([]int, len(b.T))
	army = make([]int, len(b.T))
	for i, t := range b.T {
		grid[i] = EncodeTile(t, seen[i])
		if seen[i] {
			army[i] = t.Army
		}
	}
	return grid, army
}

// Diff returns flat (index, value) pairs for every position where next
// differs from prev. prev must be at least as long as next.
func Diff(next, prev []int) []int {
	out := make([]int, 0)
	for i, v := range next {
		if i >= len(prev) || prev[i] != v {
			out = append(out, i, v)
		}
	}
	return out
}

// Patch applies a Diff result to base in place.
func Patch(base, diff []int) {
	for i := 0; i+1 < len(diff); i += 2 {
		if idx := diff[i]; idx >= 0 && idx < len(base) {
			base[idx] = diff[i+1]
		}
	}
}
