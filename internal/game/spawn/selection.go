// Package spawn chooses general positions on freshly generated terrain.
package spawn

import (
	"math"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/rng"
)

const (
	randomCandidates = 500
	weightScale      = 100000

	// The random-mode weighting is an empirically tuned heuristic: pairs
	// closer than nine steps are penalized linearly on top of a geometric
	// decay, and the inverse is sharpened by the exponent.
	pairDecay    = 0.88
	pairNearby   = 9
	scoreEpsilon = 1e-8
	scoreSharpen = 2.2
)

// candidatePools splits the largest component into designated spawn cells
// and open plains.
func candidatePools(b *core.Board) (fixed, spaces []core.Coordinate) {
	for i := range b.T {
		if !b.T[i].St {
			continue
		}
		switch b.T[i].Kind {
		case core.KindGeneral:
			fixed = append(fixed, core.FromIndex(i, b.M))
		case core.KindPlain:
			spaces = append(spaces, core.FromIndex(i, b.M))
		}
	}
	return fixed, spaces
}

// DistanceMap runs a BFS from start over non-mountain cells. Unreachable
// cells hold -1.
func DistanceMap(b *core.Board, start core.Coordinate) []int32 {
	dist := make([]int32, b.Size())
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]int, 0, b.Size())
	s := start.ToIndex(b.M)
	dist[s] = 0
	queue = append(queue, s)

	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		x, y := b.XY(idx)
		for d := core.Direction(0); d < core.DirectionCount; d++ {
			nx, ny := x+core.MoveDX[d], y+core.MoveDY[d]
			if !b.InBounds(nx, ny) {
				continue
			}
			next := b.Idx(nx, ny)
			if b.T[next].Kind == core.KindMountain || dist[next] != -1 {
				continue
			}
			dist[next] = dist[idx] + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// SelectMaze places generals with a restarted greedy search. Each pick
// maximizes the minimum path distance to earlier picks, then the sum of
// distances, then distance to the map border; restarts are ranked by
// (count, minimum pair distance, average pair distance).
func SelectMaze(b *core.Board, r *rng.Seeded, required int) []core.Coordinate {
	fixed, spaces := candidatePools(b)
	if required <= len(fixed) {
		rng.Shuffle(fixed, r)
		return fixed[:max(0, required)]
	}
	if required <= 0 || len(spaces) == 0 {
		return fixed
	}

	candidateIdx := make([]int, len(spaces))
	for i, c := range spaces {
		candidateIdx[i] = c.ToIndex(b.M)
	}
	restarts := min(80, max(20, required*10))

	var best []core.Coordinate
	bestScore := math.Inf(-1)
	for attempt := 0; attempt < restarts; attempt++ {
		selected := append([]core.Coordinate(nil), fixed...)
		selectedIdx := make([]int, 0, required)
		chosen := make(map[int]bool, required)
		distMaps := make([][]int32, 0, required)
		for _, c := range selected {
			selectedIdx = append(selectedIdx, c.ToIndex(b.M))
			chosen[c.ToIndex(b.M)] = true
			distMaps = append(distMaps, DistanceMap(b, c))
		}

		for len(selected) < required {
			if len(selected) == 0 {
				pick := r.IntInclusive(0, len(spaces)-1)
				selected = append(selected, spaces[pick])
				selectedIdx = append(selectedIdx, candidateIdx[pick])
				chosen[candidateIdx[pick]] = true
				distMaps = append(distMaps, DistanceMap(b, spaces[pick]))
				continue
			}

			bestCandidate := -1
			bestCandidateScore := math.Inf(-1)
			for c, idx := range candidateIdx {
				if chosen[idx] {
					continue
				}
				minDist := math.Inf(1)
				sumDist := 0.0
				reachable := true
				for _, dm := range distMaps {
					d := dm[idx]
					if d < 0 {
						reachable = false
						break
					}
					minDist = math.Min(minDist, float64(d))
					sumDist += float64(d)
				}
				if !reachable {
					continue
				}
				border := float64(b.BorderDistance(spaces[c].X, spaces[c].Y))
				score := minDist*1e6 + sumDist*1e3 + border
				if score > bestCandidateScore || (score == bestCandidateScore && r.Next() < 0.5) {
					bestCandidateScore = score
					bestCandidate = c
				}
			}
			if bestCandidate == -1 {
				break
			}
			selected = append(selected, spaces[bestCandidate])
			selectedIdx = append(selectedIdx, candidateIdx[bestCandidate])
			chosen[candidateIdx[bestCandidate]] = true
			distMaps = append(distMaps, DistanceMap(b, spaces[bestCandidate]))
		}

		minPair := float64(b.N + b.M)
		sumPair := 0.0
		pairs := 0
		for i := range selectedIdx {
			for j := i + 1; j < len(selectedIdx); j++ {
				d := distMaps[i][selectedIdx[j]]
				if d < 0 {
					continue
				}
				minPair = math.Min(minPair, float64(d))
				sumPair += float64(d)
				pairs++
			}
		}
		avgPair := minPair
		if pairs > 0 {
			avgPair = sumPair / float64(pairs)
		}
		score := float64(len(selected))*1e9 + minPair*1e6 + avgPair*1e3 + r.Next()
		if score > bestScore {
			bestScore = score
			best = selected
		}
	}

	if len(best) < required {
		taken := make(map[int]bool, len(best))
		for _, c := range best {
			taken[c.ToIndex(b.M)] = true
		}
		fallback := append([]core.Coordinate(nil), spaces...)
		rng.Shuffle(fallback, r)
		for _, c := range fallback {
			if taken[c.ToIndex(b.M)] {
				continue
			}
			best = append(best, c)
			taken[c.ToIndex(b.M)] = true
			if len(best) >= required {
				break
			}
		}
	}
	return best[:min(len(best), required)]
}

// SelectRandom samples candidate assignments, weights each by how well
// separated its generals are, and draws one proportionally to its weight.
// Missing positions are padded with core.NoCoordinate.
func SelectRandom(b *core.Board, r *rng.Seeded, required int) []core.Coordinate {
	candidates := make([][]core.Coordinate, 0, randomCandidates)
	values := make([]float64, 0, randomCandidates)

	for len(candidates) < randomCandidates {
		ge, spaces := candidatePools(b)
		rng.Shuffle(spaces, r)
		if required > len(ge) {
			needed := min(required-len(ge), len(spaces))
			ge = append(ge, spaces[:needed]...)
		}
		for len(ge) < required {
			ge = append(ge, core.NoCoordinate)
		}
		rng.Shuffle(ge, r)

		candidates = append(candidates, ge)
		values = append(values, SeparationWeight(ge, required))
	}

	maxValue := 0.0
	for _, v := range values {
		maxValue = math.Max(maxValue, v)
	}
	normalized := make([]int, len(values))
	total := 0
	for i, v := range values {
		normalized[i] = int(math.Floor(v / maxValue * weightScale))
		total += normalized[i]
	}

	pick := r.IntInclusive(0, total-1)
	for i, w := range normalized {
		if w > pick {
			return candidates[i]
		}
		pick -= w
	}
	return candidates[0]
}

// SeparationWeight scores the first n positions of ge:
// (1 / (sum over pairs of 0.88^d + max(0, 9-d) + 1e-8)) ^ 2.2.
func SeparationWeight(ge []core.Coordinate, n int) float64 {
	score := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			d := float64(ge[i].DistanceTo(ge[j]))
			score += math.Pow(pairDecay, d) + math.Max(0, pairNearby-d)
		}
	}
	score += scoreEpsilon
	return math.Pow(1/score, scoreSharpen)
}

// ClearAdjacentCities turns cities orthogonally adjacent to (x, y) into
// empty neutral plains.
func ClearAdjacentCities(b *core.Board, at core.Coordinate) {
	for _, nb := range at.ValidNeighbors(b.N, b.M) {
		t := b.At(nb.X, nb.Y)
		if t.Kind != core.KindCity {
			continue
		}
		t.Kind = core.KindPlain
		t.Owner = core.NeutralID
		t.Army = 0
	}
}
