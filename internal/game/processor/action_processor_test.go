package processor

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
)

type queuedPlayer struct {
	id    int
	alive bool
	queue []core.Move
}

func (p *queuedPlayer) GetID() int    { return p.id }
func (p *queuedPlayer) IsAlive() bool { return p.alive }
func (p *queuedPlayer) NextMove() (core.Move, bool) {
	if len(p.queue) == 0 {
		return core.Move{}, false
	}
	m := p.queue[0]
	p.queue = p.queue[1:]
	return m, true
}

func TestTurnOrder(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, TurnOrder(3, 2))
	assert.Equal(t, []int{2, 1, 0}, TurnOrder(3, 1))
	assert.Empty(t, TurnOrder(0, 1))
}

func TestProcessQueues_OneMovePerPlayer(t *testing.T) {
	b := core.NewBoard(3, 3)
	b.T[b.Idx(0, 0)] = core.Tile{Kind: core.KindGeneral, Owner: 1, Army: 9}
	p := &queuedPlayer{id: 0, alive: true, queue: []core.Move{
		core.NewMove(2, 2, 2, 1, false), // stale: not owned
		core.NewMove(0, 0, 0, 1, false),
		core.NewMove(0, 1, 0, 2, false),
	}}

	bus := events.NewEventBus(zerolog.Nop())
	var rejected, executed int
	bus.SubscribeFunc(events.TypeMoveRejected, func(events.Event) { rejected++ })
	bus.SubscribeFunc(events.TypeMoveExecuted, func(events.Event) { executed++ })

	ap := NewActionProcessor("g", bus, zerolog.Nop())
	applied, err := ap.ProcessQueues(context.Background(), b, []int{1}, []PlayerInfo{p}, 2, nil)
	require.NoError(t, err)

	require.Len(t, applied, 1)
	assert.Equal(t, core.NewMove(0, 0, 0, 1, false), applied[0].Move)
	assert.Equal(t, 8, applied[0].Armies)
	assert.Equal(t, 8, b.T[b.Idx(0, 1)].Army)
	assert.Len(t, p.queue, 1, "third move stays queued")
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, executed)
}

func TestProcessQueues_EliminationStopsVictim(t *testing.T) {
	b := core.NewBoard(1, 4)
	b.T[0] = core.Tile{Owner: 1, Army: 2}
	b.T[1] = core.Tile{Kind: core.KindGeneral, Owner: 1, Army: 1}
	b.T[2] = core.Tile{Owner: 2, Army: 10}
	b.T[3] = core.Tile{Kind: core.KindGeneral, Owner: 2, Army: 1}
	p0 := &queuedPlayer{id: 0, alive: true, queue: []core.Move{core.NewMove(0, 0, 0, 1, false)}}
	p1 := &queuedPlayer{id: 1, alive: true, queue: []core.Move{core.NewMove(0, 2, 0, 1, false)}}
	players := []PlayerInfo{p0, p1}

	ap := NewActionProcessor("g", nil, zerolog.Nop())
	applied, err := ap.ProcessQueues(context.Background(), b, []int{1, 2}, players, 1, func(a Applied) {
		if a.Victim > 0 {
			players[a.Victim-1].(*queuedPlayer).alive = false
		}
	})
	require.NoError(t, err)

	// Turn 1 runs player 1 first; its capture removes player 0 before it acts.
	require.Len(t, applied, 1)
	assert.Equal(t, 1, applied[0].Player)
	assert.Equal(t, 1, applied[0].Victim)
	assert.False(t, p0.alive)
	assert.Len(t, p0.queue, 1)
	assert.Equal(t, core.Tile{Kind: core.KindCity, Owner: 2, Army: 8}, b.T[1])
	assert.Equal(t, core.Tile{Owner: 2, Army: 1}, b.T[0])
}

func TestProcessQueues_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ap := NewActionProcessor("g", nil, zerolog.Nop())
	p := &queuedPlayer{id: 0, alive: true}
	_, err := ap.ProcessQueues(ctx, core.NewBoard(1, 1), nil, []PlayerInfo{p}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
