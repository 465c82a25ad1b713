package mapgen

import (
	"math"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/rng"
)

// GenerateMaze carves a perfect maze with randomized depth-first search on
// odd-coordinate cell centers, punches a bounded number of extra openings
// to break up dead ends, then sprinkles cities and swamps over the largest
// component.
func (g *Generator) GenerateMaze() *core.Board {
	n, m := g.baseDimensions()
	board := core.NewFilledBoard(n, m, core.KindMountain)

	var rows, cols []int
	for i := 1; i < n; i += 2 {
		rows = append(rows, i)
	}
	for j := 1; j < m; j += 2 {
		cols = append(cols, j)
	}
	if len(rows) == 0 || len(cols) == 0 {
		return g.GenerateRandom()
	}

	g.carveMaze(board, rows, cols)
	g.openExtraPassages(board)
	core.MarkLargestComponent(board)
	g.sprinkleMazeFeatures(board)
	return board
}

type mazeStep struct {
	next, wall core.Coordinate
}

func (g *Generator) carveMaze(b *core.Board, rows, cols []int) {
	visited := make([]bool, b.Size())
	start := core.NewCoordinate(
		rows[g.rng.IntInclusive(0, len(rows)-1)],
		cols[g.rng.IntInclusive(0, len(cols)-1)],
	)
	stack := []core.Coordinate{start}
	visited[start.ToIndex(b.M)] = true
	b.At(start.X, start.Y).Kind = core.KindPlain

	options := make([]mazeStep, 0, 4)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		options = options[:0]
		for d := core.Direction(0); d < core.DirectionCount; d++ {
			nx := cur.X + core.MoveDX[d]*2
			ny := cur.Y + core.MoveDY[d]*2
			if nx <= 0 || nx >= b.N || ny <= 0 || ny >= b.M || visited[b.Idx(nx, ny)] {
				continue
			}
			options = append(options, mazeStep{
				next: core.NewCoordinate(nx, ny),
				wall: cur.Move(d),
			})
		}
		if len(options) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		choice := options[g.rng.IntInclusive(0, len(options)-1)]
		visited[choice.next.ToIndex(b.M)] = true
		b.At(choice.wall.X, choice.wall.Y).Kind = core.KindPlain
		b.At(choice.next.X, choice.next.Y).Kind = core.KindPlain
		stack = append(stack, choice.next)
	}
}

// openExtraPassages removes interior walls that sit between two open cells,
// skipping any that would open a 2x2 block.
func (g *Generator) openExtraPassages(b *core.Board) {
	if b.N <= 2 || b.M <= 2 {
		return
	}
	target := int(math.Floor(float64(b.N*b.M) * mazeExtraOpenRatio))
	opened := 0
	for attempt := 0; attempt < target*mazeOpeningAttempts && opened < target; attempt++ {
		x := g.rng.IntInclusive(1, b.N-2)
		y := g.rng.IntInclusive(1, b.M-2)
		if b.At(x, y).Kind != core.KindMountain {
			continue
		}
		openLR := b.At(x, y-1).Kind != core.KindMountain && b.At(x, y+1).Kind != core.KindMountain
		openUD := b.At(x-1, y).Kind != core.KindMountain && b.At(x+1, y).Kind != core.KindMountain
		if !openLR && !openUD {
			continue
		}
		if createsOpenSquare(b, x, y) {
			continue
		}
		b.At(x, y).Kind = core.KindPlain
		opened++
	}
}

// createsOpenSquare reports whether opening (x, y) would complete a 2x2
// block of plain cells.
func createsOpenSquare(b *core.Board, x, y int) bool {
	for ax := x - 1; ax <= x; ax++ {
		for ay := y - 1; ay <= y; ay++ {
			if ax < 0 || ay < 0 || ax+1 >= b.N || ay+1 >= b.M {
				continue
			}
			allOpen := true
			for dx := 0; dx <= 1 && allOpen; dx++ {
				for dy := 0; dy <= 1; dy++ {
					cx, cy := ax+dx, ay+dy
					if cx == x && cy == y {
						continue
					}
					if b.At(cx, cy).Kind != core.KindPlain {
						allOpen = false
						break
					}
				}
			}
			if allOpen {
				return true
			}
		}
	}
	return false
}

func (g *Generator) sprinkleMazeFeatures(b *core.Board) {
	var passable []core.Coordinate
	for i := range b.T {
		if b.T[i].St && b.T[i].Kind == core.KindPlain {
			passable = append(passable, core.FromIndex(i, b.M))
		}
	}
	rng.Shuffle(passable, g.rng)

	var cityCandidates []core.Coordinate
	for _, c := range passable {
		if c.X%2 == 0 || c.Y%2 == 0 {
			cityCandidates = append(cityCandidates, c)
		}
	}
	rng.Shuffle(cityCandidates, g.rng)

	total := float64(b.N * b.M)
	cityRatio := math.Min(1, MaxCityRatio*g.config.CityRatio*MazeCityRatioBoost)
	cityTarget := min(len(cityCandidates), int(math.Floor(total*cityRatio)))
	isCity := make(map[int]bool, cityTarget)
	for _, c := range cityCandidates[:cityTarget] {
		t := b.At(c.X, c.Y)
		t.Kind = core.KindCity
		t.Army = g.rng.IntInclusive(mazeCityArmyMin, mazeCityArmyMax)
		isCity[c.ToIndex(b.M)] = true
	}

	swampCandidates := make([]core.Coordinate, 0, len(passable))
	for _, c := range passable {
		if !isCity[c.ToIndex(b.M)] {
			swampCandidates = append(swampCandidates, c)
		}
	}
	rng.Shuffle(swampCandidates, g.rng)
	swampTarget := min(len(swampCandidates), int(math.Floor(total*MaxSwampRatio*g.config.SwampRatio)))
	for _, c := range swampCandidates[:swampTarget] {
		b.At(c.X, c.Y).Kind = core.KindSwamp
	}
}
