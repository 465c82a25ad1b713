package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
)

func TestEncodeVisible(t *testing.T) {
	tests := []struct {
		name  string
		kind  core.TileKind
		owner int
		army  int
		want  int
	}{
		{"empty plain", core.KindPlain, 0, 0, CodeEmpty},
		{"neutral plain with army", core.KindPlain, 0, 3, 0},
		{"owned plain", core.KindPlain, 2, 5, 2},
		{"mountain", core.KindMountain, 0, 0, CodeMountain},
		{"neutral city", core.KindCity, 0, 40, 50},
		{"owned city", core.KindCity, 3, 1, 53},
		{"general", core.KindGeneral, 1, 1, 101},
		{"neutral swamp", core.KindSwamp, 0, 0, CodeNeutralSwamp},
		{"owned swamp", core.KindSwamp, 4, 2, 154},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeVisible(tt.kind, tt.owner, tt.army))
		})
	}
}

func TestEncodeHidden(t *testing.T) {
	assert.Equal(t, CodeFog, EncodeHidden(core.KindPlain))
	assert.Equal(t, CodeFog, EncodeHidden(core.KindGeneral))
	assert.Equal(t, CodeFogObstacle, EncodeHidden(core.KindCity))
	assert.Equal(t, CodeFogObstacle, EncodeHidden(core.KindMountain))
	assert.Equal(t, CodeFogSwamp, EncodeHidden(core.KindSwamp))
}

func TestDecodeRoundTrip(t *testing.T) {
	tiles := []core.Tile{
		{Kind: core.KindPlain},
		{Kind: core.KindPlain, Owner: 7, Army: 2},
		{Kind: core.KindCity, Owner: 0, Army: 45},
		{Kind: core.KindCity, Owner: 12, Army: 45},
		{Kind: core.KindGeneral, Owner: 16, Army: 1},
		{Kind: core.KindSwamp},
		{Kind: core.KindSwamp, Owner: 9},
		{Kind: core.KindMountain},
	}
	for _, tile := range tiles {
		v, ok := Decode(EncodeTile(tile, true))
		require.True(t, ok)
		assert.Equal(t, tile.Kind, v.Kind, "kind of %+v", tile)
		assert.Equal(t, tile.Owner, v.Owner, "owner of %+v", tile)
		assert.False(t, v.Hidden)

		h, ok := Decode(EncodeTile(tile, false))
		require.True(t, ok)
		assert.True(t, h.Hidden)
		assert.Equal(t, 0, h.Owner)
	}

	_, ok := Decode(206)
	assert.False(t, ok)
	_, ok = Decode(-1)
	assert.False(t, ok)
}

func TestForViewer_MasksOutsideNeighborhood(t *testing.T) {
	b := core.NewBoard(5, 5)
	b.T[b.Idx(0, 0)] = core.Tile{Kind: core.KindGeneral, Owner: 1, Army: 10}
	b.T[b.Idx(4, 4)] = core.Tile{Kind: core.KindGeneral, Owner: 2, Army: 7}
	b.T[b.Idx(1, 1)] = core.Tile{Kind: core.KindCity, Army: 40}
	b.T[b.Idx(3, 3)] = core.Tile{Kind: core.KindCity, Army: 45}
	teams := []int{1, 2}

	grid, army := ForViewer(b, 1, teams, false)
	require.Len(t, grid, 25)

	assert.Equal(t, 101, grid[b.Idx(0, 0)])
	assert.Equal(t, 10, army[b.Idx(0, 0)])
	assert.Equal(t, 50, grid[b.Idx(1, 1)], "diagonal neighbour is visible")
	assert.Equal(t, 40, army[b.Idx(1, 1)])
	assert.Equal(t, CodeFog, grid[b.Idx(2, 2)])
	assert.Equal(t, CodeFogObstacle, grid[b.Idx(3, 3)])
	assert.Equal(t, 0, army[b.Idx(3, 3)])
	assert.Equal(t, CodeFog, grid[b.Idx(4, 4)], "enemy general hides as plain fog")
	assert.Equal(t, 0, army[b.Idx(4, 4)])
}

func TestForViewer_SharesTeamVision(t *testing.T) {
	b := core.NewBoard(1, 6)
	b.T[0] = core.Tile{Kind: core.KindPlain, Owner: 1, Army: 1}
	b.T[5] = core.Tile{Kind: core.KindPlain, Owner: 2, Army: 3}
	teams := []int{1, 1}

	grid, army := ForViewer(b, 1, teams, false)
	assert.Equal(t, 2, grid[5])
	assert.Equal(t, 3, army[5])
	assert.Equal(t, CodeEmpty, grid[4])
	assert.Equal(t, CodeFog, grid[2])
}

func TestForViewer_ForceIsFull(t *testing.T) {
	b := core.NewBoard(3, 3)
	b.T[4] = core.Tile{Kind: core.KindSwamp, Owner: 2, Army: 1}

	grid, army := ForViewer(b, 1, []int{1, 2}, true)
	fullGrid, fullArmy := Full(b)
	assert.Equal(t, fullGrid, grid)
	assert.Equal(t, fullArmy, army)
	assert.Equal(t, 152, grid[4])
}

func TestDiffPatch(t *testing.T) {
	prev := []int{1, 2, 3, 4}
	next := []int{1, 9, 3, 0}

	d := Diff(next, prev)
	assert.Equal(t, []int{1, 9, 3, 0}, d)

	Patch(prev, d)
	assert.Equal(t, next, prev)

	assert.Empty(t, Diff(next, next))
	assert.NotNil(t, Diff(next, next))
}
