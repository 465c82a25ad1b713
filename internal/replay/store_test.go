package replay

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

func sampleActions(token string) *protocol.ActionData {
	return &protocol.ActionData{
		Version: protocol.ActionDataVersion,
		Meta: protocol.ReplayMeta{
			WidthRatio:  0.5,
			HeightRatio: 0.5,
			Speed:       1,
			MapToken:    token,
			MapMode:     "random",
			PlayerNames: []string{"alice", "bob"},
			PlayerTeams: []int{1, 2},
		},
		TotalTurns: 4,
		PlayerOps: [][]protocol.PlayerOp{
			{protocol.Select(1, 1), protocol.MoveOp(3, false), protocol.Wait(3)},
			{protocol.Wait(2), {Op: protocol.OpSurrender}, protocol.Wait(1)},
		},
	}
}

func newTestStore(t *testing.T, build Builder) *Store {
	t.Helper()
	dir := t.TempDir()
	ix, err := OpenIndex(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return NewStore(filepath.Join(dir, "replays"), ix, build, zerolog.Nop())
}

func TestID(t *testing.T) {
	id := ID([]byte("hello"))
	assert.Len(t, id, 12)
	assert.True(t, ValidID(id))
	assert.NotContains(t, id, "/")
	assert.Equal(t, id, ID([]byte("hello")))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("abc+-09XY"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../etc"))
	assert.False(t, ValidID("a/b"))
	assert.False(t, ValidID("a=b"))
}

func TestStore_SaveLoad(t *testing.T) {
	var built *protocol.ActionData
	s := newTestStore(t, func(d *protocol.ActionData) (*protocol.ReplayData, error) {
		built = d
		return &protocol.ReplayData{N: 1, M: 1, Meta: &d.Meta}, nil
	})
	ctx := context.Background()

	data := sampleActions("seed-a")
	id, err := s.Save(ctx, data, protocol.Summary{Rank: []string{"alice", "bob"}, Turn: 2})
	require.NoError(t, err)
	assert.True(t, ValidID(id))

	again, err := s.Save(ctx, sampleActions("seed-a"), protocol.Summary{Rank: []string{"alice", "bob"}, Turn: 2})
	require.NoError(t, err)
	assert.Equal(t, id, again, "identical content yields the same id")

	actions, err := s.LoadActions(id)
	require.NoError(t, err)
	assert.Equal(t, data, actions)

	replay, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "seed-a", replay.Meta.MapToken)
	require.NotNil(t, built)
	assert.Equal(t, data.PlayerOps, built.PlayerOps)
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }
	first, err := s.Save(ctx, sampleActions("one"), protocol.Summary{Rank: []string{"bob", "alice"}, Turn: 10})
	require.NoError(t, err)
	clock = time.Unix(2000, 0)
	second, err := s.Save(ctx, sampleActions("two"), protocol.Summary{Rank: []string{"alice", "bob"}, Turn: 20})
	require.NoError(t, err)

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, protocol.ListItem{Time: 2000, ID: second, Rank: []string{"alice", "bob"}, Turn: 20}, items[0])
	assert.Equal(t, first, items[1].ID)
	assert.Equal(t, int64(1000), items[1].Time)
}

func TestStore_LoadErrors(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.LoadActions("../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidReplayID)

	_, err = s.LoadActions("AAAAAAAAAAAA")
	assert.ErrorIs(t, err, ErrReplayNotFound)

	id, err := s.Save(context.Background(), sampleActions("x"), protocol.Summary{})
	require.NoError(t, err)
	_, err = s.Load(id)
	assert.Error(t, err, "no builder configured")
}
