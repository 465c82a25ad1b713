package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/testutil"
)

func TestRandomBot_PrefersLeavingTheGeneral(t *testing.T) {
	b := testutil.Board(2, 2, map[core.Coordinate]core.Tile{
		{X: 0, Y: 0}: {Kind: core.KindGeneral, Owner: 1, Army: 20},
		{X: 1, Y: 1}: {Kind: core.KindPlain, Owner: 1, Army: 4},
	})
	bot := NewRandomBot(0, testutil.NewTestRNG(7), testutil.NopLogger())
	bot.Activity = 1

	for i := 0; i < 20; i++ {
		m, ok := bot.NextMove(b)
		require.True(t, ok)
		assert.Equal(t, 0, m.FromX)
		assert.Equal(t, 0, m.FromY)
	}
}

func TestRandomBot_Idle(t *testing.T) {
	b := testutil.Board(1, 2, map[core.Coordinate]core.Tile{
		{X: 0, Y: 0}: {Kind: core.KindGeneral, Owner: 1, Army: 20},
	})

	idle := NewRandomBot(0, testutil.NewTestRNG(1), testutil.NopLogger())
	idle.Activity = 0
	_, ok := idle.NextMove(b)
	assert.False(t, ok)

	// a single army cannot move
	b.At(0, 0).Army = 1
	stuck := NewRandomBot(0, testutil.NewTestRNG(1), testutil.NopLogger())
	stuck.Activity = 1
	_, ok = stuck.NextMove(b)
	assert.False(t, ok)
}

func TestQueueBotMoves(t *testing.T) {
	e, _ := newTestEngine(t, []int{1, 2})
	installBoard(e, testutil.Board(1, 4, map[core.Coordinate]core.Tile{
		{X: 0, Y: 0}: {Kind: core.KindGeneral, Owner: 1, Army: 20},
		{X: 0, Y: 3}: {Kind: core.KindGeneral, Owner: 2, Army: 20},
	}))
	require.NoError(t, e.Begin(context.Background()))

	bots := []*RandomBot{
		NewRandomBot(0, testutil.NewTestRNG(1), testutil.NopLogger()),
		NewRandomBot(1, testutil.NewTestRNG(2), testutil.NopLogger()),
	}
	for _, bot := range bots {
		bot.Activity = 1
	}
	e.players[1].Status = e.settings.LeftGame

	QueueBotMoves(e, bots)
	assert.Equal(t, 1, e.players[0].QueueLen())
	assert.Equal(t, 0, e.players[1].QueueLen())
}
