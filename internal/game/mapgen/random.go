package mapgen

import "github.com/oimasterkafuu/checkmate/internal/game/core"

// GenerateRandom samples every cell against cumulative city, swamp and
// mountain thresholds until one passable component covers more than 90%
// of the passable cells.
func (g *Generator) GenerateRandom() *core.Board {
	n, m := g.baseDimensions()

	cityThreshold := MaxCityRatio * g.config.CityRatio
	swampThreshold := cityThreshold + MaxSwampRatio*g.config.SwampRatio
	mountainThreshold := swampThreshold + MaxMountainRatio*g.config.MountainRatio

	var board *core.Board
	for {
		candidate := core.NewBoard(n, m)
		for i := range candidate.T {
			chance := g.rng.Next()
			switch {
			case chance < cityThreshold:
				candidate.T[i].Kind = core.KindCity
			case chance < swampThreshold:
				candidate.T[i].Kind = core.KindSwamp
			case chance < mountainThreshold:
				candidate.T[i].Kind = core.KindMountain
			}
		}
		if !core.CheckConnection(candidate).IsNone() {
			board = candidate
			break
		}
	}

	core.MarkLargestComponent(board)

	for i := range board.T {
		if board.T[i].Kind == core.KindCity {
			board.T[i].Army = g.rng.IntInclusive(randomCityArmyMin, randomCityArmyMax)
		}
	}
	return board
}
