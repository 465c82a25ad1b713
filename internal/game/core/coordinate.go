package core

import "fmt"

// Coordinate is a board position. X indexes rows, Y indexes columns.
type Coordinate struct {
	X, Y int
}

// NoCoordinate marks a missing position, e.g. a spectator's general.
var NoCoordinate = Coordinate{X: -1, Y: -1}

func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

// FromIndex creates a coordinate from a row-major board index
func FromIndex(idx, m int) Coordinate {
	return Coordinate{X: idx / m, Y: idx % m}
}

func (c Coordinate) IsValid(n, m int) bool {
	return c.X >= 0 && c.X < n && c.Y >= 0 && c.Y < m
}

func (c Coordinate) ToIndex(m int) int {
	return c.X*m + c.Y
}

func (c Coordinate) IsNone() bool {
	return c.X == -1 && c.Y == -1
}

// DistanceTo calculates the Manhattan distance to another coordinate
func (c Coordinate) DistanceTo(other Coordinate) int {
	dx := c.X - other.X
	dy := c.Y - other.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// IsAdjacentTo checks if this coordinate is orthogonally adjacent to another
func (c Coordinate) IsAdjacentTo(other Coordinate) bool {
	return c.DistanceTo(other) == 1
}

// Neighbors returns the four orthogonal neighbors in direction order.
func (c Coordinate) Neighbors() []Coordinate {
	out := make([]Coordinate, 0, 4)
	for d := Direction(0); d < DirectionCount; d++ {
		out = append(out, c.Move(d))
	}
	return out
}

// ValidNeighbors returns only the neighbors that are within the given bounds
func (c Coordinate) ValidNeighbors(n, m int) []Coordinate {
	valid := make([]Coordinate, 0, 4)
	for _, nb := range c.Neighbors() {
		if nb.IsValid(n, m) {
			valid = append(valid, nb)
		}
	}
	return valid
}

func (c Coordinate) Add(other Coordinate) Coordinate {
	return Coordinate{X: c.X + other.X, Y: c.Y + other.Y}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is a move direction. The numbering is part of the replay op
// format: 0 up, 1 down, 2 left, 3 right.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	DirectionCount
)

var (
	MoveDX = [DirectionCount]int{-1, 1, 0, 0}
	MoveDY = [DirectionCount]int{0, 0, -1, 1}
)

// Move returns a new coordinate moved one step in the given direction
func (c Coordinate) Move(d Direction) Coordinate {
	if d < 0 || d >= DirectionCount {
		return c
	}
	return Coordinate{X: c.X + MoveDX[d], Y: c.Y + MoveDY[d]}
}

// DirectionTo returns the direction from c to an adjacent coordinate.
// ok is false when the two are not adjacent.
func (c Coordinate) DirectionTo(other Coordinate) (Direction, bool) {
	for d := Direction(0); d < DirectionCount; d++ {
		if c.X+MoveDX[d] == other.X && c.Y+MoveDY[d] == other.Y {
			return d, true
		}
	}
	return -1, false
}
