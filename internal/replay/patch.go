package replay

import (
	"github.com/oimasterkafuu/checkmate/internal/game/vision"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

func payloadOf(frame *protocol.UpdatePayload, grid, army []int) protocol.PatchPayload {
	c := frame.Clone()
	return protocol.PatchPayload{
		GridType:          grid,
		ArmyCnt:           army,
		LstMove:           c.LstMove,
		Leaderboard:       c.Leaderboard,
		Turn:              c.Turn,
		Kills:             c.Kills,
		SurrenderProgress: c.SurrenderProgress,
		GameEnd:           c.GameEnd,
	}
}

// BuildPatch diffs two consecutive full frames. Forward turns prev into
// next and backward turns next back into prev.
func BuildPatch(prev, next *protocol.UpdatePayload) protocol.Patch {
	return protocol.Patch{
		Forward: payloadOf(next,
			vision.Diff(next.GridType, prev.GridType),
			vision.Diff(next.ArmyCnt, prev.ArmyCnt)),
		Backward: payloadOf(prev,
			vision.Diff(prev.GridType, next.GridType),
			vision.Diff(prev.ArmyCnt, next.ArmyCnt)),
	}
}

// Apply returns the frame produced by applying one side of a patch to
// frame. frame itself is left untouched.
func Apply(frame *protocol.UpdatePayload, p protocol.PatchPayload) *protocol.UpdatePayload {
	out := frame.Clone()
	vision.Patch(out.GridType, p.GridType)
	vision.Patch(out.ArmyCnt, p.ArmyCnt)
	out.LstMove = p.LstMove
	out.Leaderboard = append([]protocol.LeaderboardEntry(nil), p.Leaderboard...)
	out.Turn = p.Turn
	out.Kills = make(map[string]string, len(p.Kills))
	for k, v := range p.Kills {
		out.Kills[k] = v
	}
	out.SurrenderProgress = make(map[int]float64, len(p.SurrenderProgress))
	for k, v := range p.SurrenderProgress {
		out.SurrenderProgress[k] = v
	}
	out.GameEnd = p.GameEnd
	out.IsDiff = false
	return out
}

// Frames expands a replay into every full frame, initial first.
func Frames(data *protocol.ReplayData) []*protocol.UpdatePayload {
	frames := make([]*protocol.UpdatePayload, 0, len(data.Patches)+1)
	cur := data.Initial.Clone()
	frames = append(frames, cur)
	for _, p := range data.Patches {
		cur = Apply(cur, p.Forward)
		frames = append(frames, cur)
	}
	return frames
}
