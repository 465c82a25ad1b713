package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
)

func TestPlayer_InitialState(t *testing.T) {
	player := newPlayer(2, "sid", "alice", 1, 51)

	assert.Equal(t, 2, player.GetID())
	assert.Equal(t, 3, player.OwnerID())
	assert.Equal(t, 1, player.GetTeam())
	assert.True(t, player.IsAlive())
	assert.False(t, player.Disconnected())
	assert.True(t, player.Watching)
	assert.True(t, player.General.IsNone())
	assert.True(t, player.LastMove.IsNone())
	assert.Equal(t, 0, player.QueueLen())
}

func TestPlayer_Status(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		alive        bool
		disconnected bool
	}{
		{"playing", 0, true, false},
		{"countdown started", 1, true, true},
		{"countdown about to expire", 50, true, true},
		{"left", 51, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := newPlayer(0, "sid", "bob", 1, 51)
			player.Status = tt.status
			assert.Equal(t, tt.alive, player.IsAlive())
			assert.Equal(t, tt.disconnected, player.Disconnected())
		})
	}
}

func TestPlayer_QueueIsFIFO(t *testing.T) {
	player := newPlayer(0, "sid", "carol", 1, 51)
	first := core.NewMove(0, 0, 0, 1, false)
	second := core.NewMove(0, 1, 0, 2, true)
	third := core.NewMove(0, 2, 1, 2, false)
	player.enqueue(first)
	player.enqueue(second)
	player.enqueue(third)

	player.popQueue()
	assert.Equal(t, 2, player.QueueLen())

	m, ok := player.NextMove()
	require.True(t, ok)
	assert.Equal(t, first, m)
	m, ok = player.NextMove()
	require.True(t, ok)
	assert.Equal(t, second, m)

	_, ok = player.NextMove()
	assert.False(t, ok)
	player.popQueue()
	assert.Equal(t, 0, player.QueueLen())
}

func TestPlayer_ClearQueue(t *testing.T) {
	player := newPlayer(0, "sid", "dave", 1, 51)
	player.enqueue(core.NewMove(0, 0, 1, 0, false))
	player.clearQueue()
	_, ok := player.NextMove()
	assert.False(t, ok)
}
