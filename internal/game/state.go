package game

import (
	"time"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
)

// Player is one seat of a game. Index is the roster position; the player
// owns board cells under owner id Index+1.
type Player struct {
	Index int
	Sid   string
	Name  string
	Team  int

	// Status is 0 while connected, counts up during a disconnect
	// countdown, and equals Settings.LeftGame once the player is out.
	Status    int
	leftAt    int
	DeadOrder int

	// Spectating players see the whole board.
	Spectating bool
	Watching   bool

	General  core.Coordinate
	LastMove core.Move

	queue []core.Move

	afkLastTurn int
	afkLastAt   time.Time

	lastGrid []int
	lastArmy []int
}

func newPlayer(index int, sid, name string, team, leftAt int) *Player {
	return &Player{
		Index:    index,
		Sid:      sid,
		Name:     name,
		Team:     team,
		leftAt:   leftAt,
		Watching: true,
		General:  core.NoCoordinate,
		LastMove: core.NoMove,
	}
}

// GetID returns the roster index
func (p *Player) GetID() int { return p.Index }

// GetTeam returns the player's team
func (p *Player) GetTeam() int { return p.Team }

// IsAlive reports whether the player is still in play
func (p *Player) IsAlive() bool { return p.Status < p.leftAt }

// OwnerID is the owner id of the player's cells
func (p *Player) OwnerID() int { return p.Index + 1 }

// Disconnected reports whether a disconnect countdown is running
func (p *Player) Disconnected() bool { return p.Status > 0 && p.IsAlive() }

// NextMove pops the oldest queued move
func (p *Player) NextMove() (core.Move, bool) {
	if len(p.queue) == 0 {
		return core.NoMove, false
	}
	m := p.queue[0]
	p.queue = p.queue[1:]
	return m, true
}

// QueueLen returns the number of queued moves
func (p *Player) QueueLen() int { return len(p.queue) }

func (p *Player) enqueue(m core.Move) { p.queue = append(p.queue, m) }

func (p *Player) clearQueue() { p.queue = nil }

// popQueue drops the most recently queued move.
func (p *Player) popQueue() {
	if len(p.queue) > 0 {
		p.queue = p.queue[:len(p.queue)-1]
	}
}
