package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	tests := []struct {
		name string
		n, m int
	}{
		{"small board", 5, 5},
		{"rectangular board", 7, 11},
		{"minimum board", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewBoard(tt.n, tt.m)

			assert.Equal(t, tt.n, board.N)
			assert.Equal(t, tt.m, board.M)
			require.Len(t, board.T, tt.n*tt.m)
			for i, tile := range board.T {
				assert.Equal(t, NeutralID, tile.Owner, "tile %d should be neutral", i)
				assert.Equal(t, KindPlain, tile.Kind, "tile %d should be plain", i)
				assert.Equal(t, 0, tile.Army, "tile %d should have 0 army", i)
			}
		})
	}
}

func TestBoard_IdxRoundTrip(t *testing.T) {
	board := NewBoard(3, 5)

	tests := []struct {
		x, y     int
		expected int
	}{
		{0, 0, 0},
		{0, 4, 4},
		{1, 0, 5},
		{2, 2, 12},
		{2, 4, 14},
	}
	for _, tt := range tests {
		idx := board.Idx(tt.x, tt.y)
		assert.Equal(t, tt.expected, idx, "Idx(%d,%d)", tt.x, tt.y)
		x, y := board.XY(idx)
		assert.Equal(t, tt.x, x)
		assert.Equal(t, tt.y, y)
	}
}

func TestBoard_AtAndInBounds(t *testing.T) {
	board := NewBoard(3, 4)
	assert.True(t, board.InBounds(2, 3))
	assert.False(t, board.InBounds(3, 0))
	assert.False(t, board.InBounds(0, -1))
	assert.Nil(t, board.At(-1, 0))

	tile := board.At(1, 2)
	require.NotNil(t, tile)
	tile.Owner = 2
	tile.Army = 9
	assert.Equal(t, 2, board.T[board.Idx(1, 2)].Owner)
	assert.Equal(t, []int{board.Idx(1, 2)}, board.CellsOwnedBy(2))
}

func TestBoard_CloneIsIndependent(t *testing.T) {
	board := NewFilledBoard(2, 2, KindSwamp)
	clone := board.Clone()
	clone.T[0].Kind = KindMountain

	assert.Equal(t, KindSwamp, board.T[0].Kind)
	assert.Equal(t, KindMountain, clone.T[0].Kind)
}

func TestBoard_BorderDistance(t *testing.T) {
	board := NewBoard(7, 9)
	assert.Equal(t, 0, board.BorderDistance(0, 4))
	assert.Equal(t, 3, board.BorderDistance(3, 4))
	assert.Equal(t, 1, board.BorderDistance(5, 7))
}

func TestTile_Predicates(t *testing.T) {
	general := Tile{Kind: KindGeneral, Owner: 1}
	city := Tile{Kind: KindCity}
	swamp := Tile{Kind: KindSwamp}

	assert.True(t, general.IsStructure())
	assert.True(t, city.IsStructure())
	assert.False(t, swamp.IsStructure())
	assert.True(t, city.IsNeutral())
	assert.False(t, general.IsNeutral())
	assert.Equal(t, "mountain", KindMountain.String())
}
