package mapgen

import (
	"math"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/rng"
)

const (
	archipelagoRetryLimit = 120

	islandMinSide       = 3
	islandMaxSide       = 4
	islandBuildFactor   = 18
	maxIslandCount      = 34
	coastNoiseMax       = 3
	playerCityArmy      = 15
	neutralCityArmyMin  = 40
	neutralCityArmyMax  = 50
	allocationRestarts  = 12
	allocationMaxRounds = 60
)

// island is a rectangle of land plus any coastline extensions.
type island struct {
	id     int
	x, y   int // top-left corner of the rectangle
	h, w   int
	cells  []core.Coordinate
	player bool
}

func (is *island) center() (float64, float64) {
	var cx, cy float64
	for _, c := range is.cells {
		cx += float64(c.X)
		cy += float64(c.Y)
	}
	k := float64(len(is.cells))
	return cx / k, cy / k
}

// archipelagoBuild is the scratch state of a single attempt.
type archipelagoBuild struct {
	board    *core.Board
	islandOf []int
	islands  []*island
}

// GenerateArchipelago scatters rectangular islands over a swamp sea, gives
// each player a well separated island with a general, and falls back to a
// random map when the island budget cannot host every player.
func (g *Generator) GenerateArchipelago() *core.Board {
	n, m := g.baseDimensions()
	required := max(0, g.config.RequiredPlayers)

	for attempt := 0; attempt < g.archipelagoRetries; attempt++ {
		ab := &archipelagoBuild{
			board:    core.NewFilledBoard(n, m, core.KindSwamp),
			islandOf: make([]int, n*m),
		}
		for i := range ab.islandOf {
			ab.islandOf[i] = -1
		}

		target := max(required+4, min(maxIslandCount, n*m/36+g.rng.IntInclusive(0, 4)))
		g.placeIslands(ab, target)
		g.roughenCoastlines(ab)

		minNeutral := max(2, min(8, int(math.Floor(float64(required)*0.6))+2))
		if len(ab.islands) < required+minNeutral {
			continue
		}

		g.allocatePlayerIslands(ab, required)
		ok := true
		for _, is := range ab.islands {
			if is.player {
				ok = g.settlePlayerIsland(ab, is)
			} else {
				ok = g.settleNeutralIsland(ab, is)
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		g.placeReefs(ab)

		for i := range ab.board.T {
			k := ab.board.T[i].Kind
			ab.board.T[i].St = k != core.KindMountain && k != core.KindSwamp
		}
		return ab.board
	}

	g.logger.Debug().
		Int("required_players", required).
		Int("retries", g.archipelagoRetries).
		Msg("Archipelago constraints unsatisfied, falling back to random map")
	return g.GenerateRandom()
}

// placeIslands drops non-overlapping rectangles keeping a one cell moat
// between any two islands and away from the map border.
func (g *Generator) placeIslands(ab *archipelagoBuild, target int) {
	b := ab.board
	for try := 0; try < target*islandBuildFactor && len(ab.islands) < target; try++ {
		h := g.rng.IntInclusive(islandMinSide, islandMaxSide)
		w := g.rng.IntInclusive(islandMinSide, islandMaxSide)
		if b.N-1-h < 1 || b.M-1-w < 1 {
			return
		}
		x := g.rng.IntInclusive(1, b.N-1-h)
		y := g.rng.IntInclusive(1, b.M-1-w)
		if !ab.rectIsClear(x-1, y-1, h+2, w+2) {
			continue
		}

		is := &island{id: len(ab.islands), x: x, y: y, h: h, w: w}
		for i := x; i < x+h; i++ {
			for j := y; j < y+w; j++ {
				ab.claim(is, core.NewCoordinate(i, j))
			}
		}
		ab.islands = append(ab.islands, is)
	}
}

func (ab *archipelagoBuild) rectIsClear(x, y, h, w int) bool {
	for i := x; i < x+h; i++ {
		for j := y; j < y+w; j++ {
			if !ab.board.InBounds(i, j) {
				continue
			}
			if ab.islandOf[ab.board.Idx(i, j)] != -1 {
				return false
			}
		}
	}
	return true
}

func (ab *archipelagoBuild) claim(is *island, c core.Coordinate) {
	idx := c.ToIndex(ab.board.M)
	ab.board.T[idx].Kind = core.KindPlain
	ab.islandOf[idx] = is.id
	is.cells = append(is.cells, c)
}

// roughenCoastlines grows single cell spurs out of each rectangle. A spur
// touches its island through exactly one edge, so it never closes a loop,
// and its whole 8-neighborhood must stay clear of other islands.
func (g *Generator) roughenCoastlines(ab *archipelagoBuild) {
	b := ab.board
	for _, is := range ab.islands {
		spurs := g.rng.IntInclusive(0, coastNoiseMax)
		for s := 0; s < spurs; s++ {
			from := is.cells[g.rng.IntInclusive(0, len(is.cells)-1)]
			to := from.Move(core.Direction(g.rng.IntInclusive(0, int(core.DirectionCount)-1)))
			if to.X <= 0 || to.Y <= 0 || to.X >= b.N-1 || to.Y >= b.M-1 {
				continue
			}
			if ab.islandOf[to.ToIndex(b.M)] != -1 {
				continue
			}
			if !ab.spurAllowed(is, to) {
				continue
			}
			ab.claim(is, to)
		}
	}
}

func (ab *archipelagoBuild) spurAllowed(is *island, c core.Coordinate) bool {
	b := ab.board
	touching := 0
	for d := core.Direction(0); d < core.DirectionCount; d++ {
		nb := c.Move(d)
		if b.InBounds(nb.X, nb.Y) && ab.islandOf[nb.ToIndex(b.M)] == is.id {
			touching++
		}
	}
	if touching != 1 {
		return false
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			x, y := c.X+dx, c.Y+dy
			if !b.InBounds(x, y) {
				continue
			}
			if id := ab.islandOf[b.Idx(x, y)]; id != -1 && id != is.id {
				return false
			}
		}
	}
	return true
}

// allocatePlayerIslands runs a restarted greedy max-min search over island
// centers and marks the best selection as player islands.
func (g *Generator) allocatePlayerIslands(ab *archipelagoBuild, required int) {
	if required == 0 {
		return
	}
	count := len(ab.islands)
	cx := make([]float64, count)
	cy := make([]float64, count)
	for i, is := range ab.islands {
		cx[i], cy[i] = is.center()
	}
	dist := func(a, b int) float64 {
		return math.Abs(cx[a]-cx[b]) + math.Abs(cy[a]-cy[b])
	}

	restarts := min(allocationMaxRounds, max(allocationRestarts, required*6))
	var best []int
	bestScore := math.Inf(-1)
	for r := 0; r < restarts; r++ {
		chosen := []int{g.rng.IntInclusive(0, count-1)}
		used := map[int]bool{chosen[0]: true}
		for len(chosen) < required {
			pick := -1
			pickScore := math.Inf(-1)
			for c := 0; c < count; c++ {
				if used[c] {
					continue
				}
				minD := math.Inf(1)
				for _, o := range chosen {
					minD = math.Min(minD, dist(c, o))
				}
				if minD > pickScore || (minD == pickScore && g.rng.Next() < 0.5) {
					pick, pickScore = c, minD
				}
			}
			chosen = append(chosen, pick)
			used[pick] = true
		}

		minPair := math.Inf(1)
		sumPair := 0.0
		pairs := 0
		for i := 0; i < len(chosen); i++ {
			for j := i + 1; j < len(chosen); j++ {
				d := dist(chosen[i], chosen[j])
				minPair = math.Min(minPair, d)
				sumPair += d
				pairs++
			}
		}
		if pairs == 0 {
			minPair = 0
		}
		avgPair := 0.0
		if pairs > 0 {
			avgPair = sumPair / float64(pairs)
		}
		score := minPair*1e6 + avgPair*1e3 + g.rng.Next()
		if score > bestScore {
			bestScore = score
			best = chosen
		}
	}

	for _, idx := range best {
		ab.islands[idx].player = true
	}
}

// settlePlayerIsland places the general on a cell away from the island
// center, one weak city, then mountains that keep the island connected.
func (g *Generator) settlePlayerIsland(ab *archipelagoBuild, is *island) bool {
	b := ab.board
	cells := append([]core.Coordinate(nil), is.cells...)
	rng.Shuffle(cells, g.rng)

	cx, cy := is.center()
	distances := make([]float64, len(cells))
	minD := math.Inf(1)
	for i, c := range cells {
		distances[i] = math.Abs(float64(c.X)-cx) + math.Abs(float64(c.Y)-cy)
		minD = math.Min(minD, distances[i])
	}
	var far []core.Coordinate
	for i, c := range cells {
		if distances[i] > minD {
			far = append(far, c)
		}
	}
	pool := far
	if len(pool) == 0 {
		pool = cells
	}
	general := pool[g.rng.IntInclusive(0, len(pool)-1)]
	b.At(general.X, general.Y).Kind = core.KindGeneral

	for _, c := range cells {
		if t := b.At(c.X, c.Y); t.Kind == core.KindPlain {
			t.Kind = core.KindCity
			t.Army = playerCityArmy
			break
		}
	}

	want := 0
	if len(is.cells) >= 12 && g.rng.Next() < 0.5 {
		want++
	}
	if len(is.cells) >= 15 && g.rng.Next() < 0.2+g.config.MountainRatio*0.2 {
		want++
	}
	g.raiseMountains(ab, is, cells, want, general)
	return true
}

// settleNeutralIsland places one or two cities and optional mountains.
func (g *Generator) settleNeutralIsland(ab *archipelagoBuild, is *island) bool {
	b := ab.board
	cells := append([]core.Coordinate(nil), is.cells...)
	rng.Shuffle(cells, g.rng)
	if len(cells) < 2 {
		return false
	}

	cities := 1
	if g.rng.Next() < g.config.CityRatio {
		cities = 2
	}
	for _, c := range cells[:cities] {
		t := b.At(c.X, c.Y)
		t.Kind = core.KindCity
		t.Army = g.rng.IntInclusive(neutralCityArmyMin, neutralCityArmyMax)
	}

	want := 0
	if len(is.cells) >= 9 && g.rng.Next() < 0.5*g.config.MountainRatio {
		want++
	}
	g.raiseMountains(ab, is, cells[cities:], want, core.NoCoordinate)
	return true
}

// raiseMountains converts up to want plain cells to mountains, rejecting any
// that would disconnect the remaining island cells. Keeping the island in one
// piece also guarantees the general is never walled in.
func (g *Generator) raiseMountains(ab *archipelagoBuild, is *island, candidates []core.Coordinate, want int, keep core.Coordinate) {
	if want <= 0 {
		return
	}
	b := ab.board
	want = min(want, max(0, len(is.cells)-5))
	raised := 0
	for _, c := range candidates {
		if raised >= want {
			return
		}
		t := b.At(c.X, c.Y)
		if c == keep || t.Kind != core.KindPlain {
			continue
		}
		t.Kind = core.KindMountain
		if !islandConnected(b, is) {
			t.Kind = core.KindPlain
			continue
		}
		raised++
	}
}

// islandConnected checks that the non-mountain cells of an island form one
// orthogonally connected region.
func islandConnected(b *core.Board, is *island) bool {
	member := make(map[int]bool, len(is.cells))
	start := -1
	for _, c := range is.cells {
		idx := c.ToIndex(b.M)
		if b.T[idx].Kind == core.KindMountain {
			continue
		}
		member[idx] = true
		if start == -1 {
			start = idx
		}
	}
	if start == -1 {
		return false
	}

	seen := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur := core.FromIndex(idx, b.M)
		for _, nb := range cur.ValidNeighbors(b.N, b.M) {
			ni := nb.ToIndex(b.M)
			if member[ni] && !seen[ni] {
				seen[ni] = true
				stack = append(stack, ni)
			}
		}
	}
	return len(seen) == len(member)
}

// placeReefs turns isolated sea cells into mountains. A reef never touches
// land or another reef, so it cannot cut a sea lane.
func (g *Generator) placeReefs(ab *archipelagoBuild) {
	b := ab.board
	var sea []core.Coordinate
	for i := range b.T {
		if b.T[i].Kind == core.KindSwamp {
			sea = append(sea, core.FromIndex(i, b.M))
		}
	}
	rng.Shuffle(sea, g.rng)

	target := min(len(sea), int(math.Floor(float64(b.Size())*(0.006+g.config.MountainRatio*0.012))))
	placed := 0
	for _, c := range sea {
		if placed >= target {
			return
		}
		isolated := true
		for dx := -1; dx <= 1 && isolated; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				t := b.At(c.X+dx, c.Y+dy)
				if t != nil && t.Kind != core.KindSwamp {
					isolated = false
					break
				}
			}
		}
		if !isolated {
			continue
		}
		b.At(c.X, c.Y).Kind = core.KindMountain
		placed++
	}
}
