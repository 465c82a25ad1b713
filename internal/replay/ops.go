// Package replay turns what happened in a live game into a compact per-player
// op stream, schedules that stream back into per-turn actions, diffs frames
// into patches, and persists replays.
package replay

import (
	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// Recorder collects, per player and per turn, the move that reached the
// board and the lifecycle events that took effect before it.
type Recorder struct {
	moves  []map[int]core.Move
	events []map[int][]protocol.OpKind
	last   int
}

func NewRecorder(players int) *Recorder {
	r := &Recorder{
		moves:  make([]map[int]core.Move, players),
		events: make([]map[int][]protocol.OpKind, players),
	}
	for p := 0; p < players; p++ {
		r.moves[p] = make(map[int]core.Move)
		r.events[p] = make(map[int][]protocol.OpKind)
	}
	return r
}

// RecordMove stores the move player executed in turn. NoMove is ignored.
func (r *Recorder) RecordMove(turn, player int, m core.Move) {
	if player < 0 || player >= len(r.moves) || m.IsNone() {
		return
	}
	r.moves[player][turn] = m
	r.touch(turn)
}

// RecordEvent stores a lifecycle op that applies at the start of turn.
// An AFK surrender is recorded on the turn whose tick produced it.
func (r *Recorder) RecordEvent(turn, player int, kind protocol.OpKind) {
	if player < 0 || player >= len(r.events) {
		return
	}
	r.events[player][turn] = append(r.events[player][turn], kind)
	r.touch(turn)
}

func (r *Recorder) touch(turn int) {
	if turn > r.last {
		r.last = turn
	}
}

// LastTurn is the latest turn anything was recorded for.
func (r *Recorder) LastTurn() int { return r.last }

// PlayerOps encodes turns 1..totalTurns of every player. Selections are
// only emitted when a move starts somewhere other than where the previous
// move ended, and idle turns collapse into wait runs.
func (r *Recorder) PlayerOps(totalTurns int) [][]protocol.PlayerOp {
	out := make([][]protocol.PlayerOp, len(r.moves))
	for p := range r.moves {
		out[p] = r.playerOps(p, totalTurns)
	}
	return out
}

func (r *Recorder) playerOps(p, totalTurns int) []protocol.PlayerOp {
	ops := make([]protocol.PlayerOp, 0)
	wait := 0
	selected := core.NoCoordinate
	flush := func() {
		if wait > 0 {
			ops = append(ops, protocol.Wait(wait))
			wait = 0
		}
	}

	for turn := 1; turn <= totalTurns; turn++ {
		evs := r.events[p][turn]
		m, moved := r.moves[p][turn]
		if len(evs) == 0 && !moved {
			wait++
			continue
		}
		flush()

		terminal := false
		for _, kind := range evs {
			ops = append(ops, protocol.PlayerOp{Op: kind})
			if kind.Terminal() {
				selected = core.NoCoordinate
				terminal = true
			}
		}
		if terminal {
			continue
		}
		if !moved {
			wait++
			continue
		}

		dir, ok := m.Direction()
		if !ok {
			wait++
			continue
		}
		if selected != m.From() {
			ops = append(ops, protocol.Select(m.FromX, m.FromY))
		}
		ops = append(ops, protocol.MoveOp(int(dir), m.Half))
		selected = m.To()
	}
	flush()
	return ops
}
