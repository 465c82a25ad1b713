package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinate_DirectionTables(t *testing.T) {
	origin := NewCoordinate(3, 3)

	assert.Equal(t, Coordinate{2, 3}, origin.Move(Up))
	assert.Equal(t, Coordinate{4, 3}, origin.Move(Down))
	assert.Equal(t, Coordinate{3, 2}, origin.Move(Left))
	assert.Equal(t, Coordinate{3, 4}, origin.Move(Right))
	assert.Equal(t, origin, origin.Move(Direction(7)), "unknown direction is a no-op")
}

func TestCoordinate_DirectionTo(t *testing.T) {
	origin := NewCoordinate(1, 1)
	for d := Direction(0); d < DirectionCount; d++ {
		got, ok := origin.DirectionTo(origin.Move(d))
		assert.True(t, ok)
		assert.Equal(t, d, got)
	}

	_, ok := origin.DirectionTo(NewCoordinate(2, 2))
	assert.False(t, ok, "diagonal is not a direction")
	_, ok = origin.DirectionTo(origin)
	assert.False(t, ok)
}

func TestCoordinate_Neighbors(t *testing.T) {
	corner := NewCoordinate(0, 0)
	assert.Len(t, corner.Neighbors(), 4)
	assert.ElementsMatch(t, []Coordinate{{1, 0}, {0, 1}}, corner.ValidNeighbors(3, 3))
}

func TestCoordinate_IndexRoundTrip(t *testing.T) {
	c := NewCoordinate(4, 6)
	assert.Equal(t, c, FromIndex(c.ToIndex(9), 9))
	assert.True(t, NoCoordinate.IsNone())
	assert.Equal(t, 3, NewCoordinate(0, 0).DistanceTo(NewCoordinate(1, 2)))
	assert.True(t, NewCoordinate(0, 0).IsAdjacentTo(NewCoordinate(0, 1)))
}

func TestMove_Direction(t *testing.T) {
	m := NewMove(2, 2, 2, 3, true)
	d, ok := m.Direction()
	assert.True(t, ok)
	assert.Equal(t, Right, d)
	assert.Equal(t, "(2,2)->(2,3) half", m.String())
	assert.True(t, NoMove.IsNone())
}
