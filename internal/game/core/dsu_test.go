package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSU_MergeAndSize(t *testing.T) {
	d := NewDSU(6)
	d.Merge(0, 1)
	d.Merge(1, 2)
	d.Merge(4, 5)

	assert.Equal(t, d.Find(0), d.Find(2))
	assert.Equal(t, 3, d.ComponentSize(0))
	assert.Equal(t, 1, d.ComponentSize(3))
	assert.Equal(t, 2, d.ComponentSize(5))
	d.Merge(2, 0)
	assert.Equal(t, 3, d.ComponentSize(1), "merging joined sets keeps size")
}

func TestDSU_LongChainDoesNotRecurse(t *testing.T) {
	const n = 1 << 20
	d := NewDSU(n)
	for i := 0; i+1 < n; i++ {
		d.Merge(i, i+1)
	}
	assert.Equal(t, n, d.ComponentSize(0))
}

func TestCheckConnection(t *testing.T) {
	board := NewBoard(3, 3)
	assert.Equal(t, Coordinate{0, 0}, CheckConnection(board))

	// A mountain wall splits the board into 3 and 3 passable cells.
	split := NewBoard(3, 3)
	for x := 0; x < 3; x++ {
		split.At(x, 1).Kind = KindMountain
	}
	assert.Equal(t, NoCoordinate, CheckConnection(split))
}

func TestMarkLargestComponent(t *testing.T) {
	board := NewBoard(3, 4)
	for x := 0; x < 3; x++ {
		board.At(x, 1).Kind = KindMountain
	}
	MarkLargestComponent(board)

	for x := 0; x < 3; x++ {
		assert.False(t, board.At(x, 0).St, "small side is not the largest component")
		assert.False(t, board.At(x, 1).St, "mountains are never marked")
		assert.True(t, board.At(x, 2).St)
		assert.True(t, board.At(x, 3).St)
	}
}

func TestWrapMoveError(t *testing.T) {
	assert.Nil(t, WrapMoveError(1, NoMove, nil))

	err := WrapMoveError(2, NewMove(1, 1, 1, 2, false), ErrNotOwned)
	assert.Equal(t, "player 2: move (1,1)->(1,2): tile not owned by player", err.Error())
	assert.True(t, errors.Is(err, ErrNotOwned))

	err = WrapGameStateError("g1", 7, ErrGameOver)
	assert.Equal(t, "game g1 turn 7: game is over", err.Error())
}
