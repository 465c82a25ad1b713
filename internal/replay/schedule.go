package replay

import (
	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// TurnActions is what one player does in one turn of a reconstruction.
// Events apply before the tick, the move is queued for it.
type TurnActions struct {
	Events  []protocol.OpKind
	Move    core.Move
	HasMove bool
}

// Schedule maps turn numbers to a player's actions.
type Schedule map[int]*TurnActions

// At returns the actions for turn, or nil.
func (s Schedule) At(turn int) *TurnActions { return s[turn] }

// BuildSchedules decodes op streams back into per-turn actions. It is the
// inverse of Recorder.PlayerOps: every move and terminal op occupies one
// turn, waits skip turns, and disconnect or reconnect ops attach to the
// current turn without advancing it. A move with nothing selected is
// dropped.
func BuildSchedules(playerOps [][]protocol.PlayerOp) []Schedule {
	out := make([]Schedule, len(playerOps))
	for p, ops := range playerOps {
		sched := make(Schedule)
		at := func(turn int) *TurnActions {
			ta, ok := sched[turn]
			if !ok {
				ta = &TurnActions{}
				sched[turn] = ta
			}
			return ta
		}

		cursor := 1
		selected := core.NoCoordinate
		for _, op := range ops {
			switch {
			case op.Op == protocol.OpWait:
				if op.N > 0 {
					cursor += op.N
				}
			case op.Op == protocol.OpSelect:
				selected = core.NewCoordinate(op.X, op.Y)
			case op.Op == protocol.OpDisconnect || op.Op == protocol.OpReconnect:
				ta := at(cursor)
				ta.Events = append(ta.Events, op.Op)
			case op.Op.Terminal():
				ta := at(cursor)
				ta.Events = append(ta.Events, op.Op)
				selected = core.NoCoordinate
				cursor++
			case op.Op == protocol.OpMove:
				if selected.IsNone() {
					continue
				}
				to := selected.Move(core.Direction(op.D))
				ta := at(cursor)
				ta.Move = core.NewMove(selected.X, selected.Y, to.X, to.Y, op.Half)
				ta.HasMove = true
				selected = to
				cursor++
			}
		}
		out[p] = sched
	}
	return out
}
