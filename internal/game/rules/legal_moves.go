package rules

import "github.com/oimasterkafuu/checkmate/internal/game/core"

// ValidateMove checks that player (0-based index) may perform m on b.
// Both ends must be in bounds and one step apart, the source must belong to
// the player and hold army, and the target must not be a mountain.
func ValidateMove(b *core.Board, player int, m core.Move) error {
	if !b.InBounds(m.FromX, m.FromY) || !b.InBounds(m.ToX, m.ToY) {
		return core.ErrInvalidCoordinates
	}
	if b.Distance(m.FromX, m.FromY, m.ToX, m.ToY) != 1 {
		return core.ErrNotAdjacent
	}
	from := b.At(m.FromX, m.FromY)
	if from.Owner != player+1 {
		return core.ErrNotOwned
	}
	if from.Army <= 0 {
		return core.ErrInsufficientArmy
	}
	if b.At(m.ToX, m.ToY).IsMountain() {
		return core.ErrTargetIsMountain
	}
	return nil
}

// LegalMoveCalculator lists the moves a player could make, for bots.
type LegalMoveCalculator struct{}

func NewLegalMoveCalculator() *LegalMoveCalculator {
	return &LegalMoveCalculator{}
}

// LegalMoves returns every valid full move of player. Tiles with a single
// army are skipped since moving them sends nothing.
func (lmc *LegalMoveCalculator) LegalMoves(b *core.Board, player int) []core.Move {
	var moves []core.Move
	for idx := range b.T {
		t := &b.T[idx]
		if t.Owner != player+1 || t.Army <= 1 {
			continue
		}
		x, y := b.XY(idx)
		for d := core.Direction(0); d < core.DirectionCount; d++ {
			to := core.NewCoordinate(x, y).Move(d)
			m := core.NewMove(x, y, to.X, to.Y, false)
			if ValidateMove(b, player, m) == nil {
				moves = append(moves, m)
			}
		}
	}
	return moves
}
