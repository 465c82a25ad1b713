package game

import (
	"context"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
	"github.com/oimasterkafuu/checkmate/internal/game/vision"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// This file contains the per-viewer frame building of the game engine.

// movePayload converts a move to the wire shape
func movePayload(m core.Move) protocol.MovePayload {
	if m.IsNone() {
		return protocol.NoMovePayload
	}
	return protocol.MovePayload{X: m.FromX, Y: m.FromY, DX: m.ToX, DY: m.ToY, Half: m.Half}
}

// sendMap sends every watching viewer its frame for the current turn.
// Spectators always get a full frame; players get a diff against the last
// frame they received unless a full one is due. With stat set the game is
// over: the replay is saved first and every frame is full.
func (e *Engine) sendMap(ctx context.Context, stat bool) {
	kills := e.kills
	e.kills = make(map[string]string)
	leaderboard := e.leaderboard()
	progress := e.surrenderProgress()

	frame := func(grid, army []int, last protocol.MovePayload) *protocol.UpdatePayload {
		return &protocol.UpdatePayload{
			GridType:          grid,
			ArmyCnt:           army,
			LstMove:           last,
			Leaderboard:       leaderboard,
			Turn:              e.turn,
			Kills:             kills,
			SurrenderProgress: progress,
			GameEnd:           stat,
			Replay:            e.replayID,
		}
	}

	if stat && e.replayID == "" {
		e.replayID = e.saveHistory(ctx, leaderboard)
	}
	grid, army := vision.Full(e.board)
	spectator := frame(grid, army, protocol.NoMovePayload)
	for _, sid := range e.spectators {
		e.emitter.Update(sid, spectator)
	}

	for _, p := range e.players {
		if !p.Watching {
			continue
		}
		force := stat || p.Team == 0 || p.Spectating
		grid, army := vision.ForViewer(e.board, p.Team, e.teams, force)
		payload := frame(grid, army, movePayload(p.LastMove))
		if !stat && !e.fullSnapshotDue() && p.lastGrid != nil {
			payload.GridType = vision.Diff(grid, p.lastGrid)
			payload.ArmyCnt = vision.Diff(army, p.lastArmy)
			payload.IsDiff = true
		}
		p.lastGrid, p.lastArmy = grid, army
		p.LastMove = core.NoMove
		e.emitter.Update(p.Sid, payload)
	}
}

// fullSnapshotDue decides whether a player frame is sent whole. Besides the
// fixed interval a random draw occasionally forces one so a client that
// missed a diff resynchronizes.
func (e *Engine) fullSnapshotDue() bool {
	if e.settings.FullSnapshotInterval > 0 && e.turn%e.settings.FullSnapshotInterval == 0 {
		return true
	}
	return e.settings.RandomFullSnapshotOdds > 0 && e.rand.Intn(e.settings.RandomFullSnapshotOdds) == 0
}

// fullVisionPayload is the unmasked frame for the current turn. It leaves
// the pending kill reports untouched.
func (e *Engine) fullVisionPayload(gameEnd bool) *protocol.UpdatePayload {
	grid, army := vision.Full(e.board)
	return &protocol.UpdatePayload{
		GridType:          grid,
		ArmyCnt:           army,
		LstMove:           protocol.NoMovePayload,
		Leaderboard:       e.leaderboard(),
		Turn:              e.turn,
		Kills:             map[string]string{},
		SurrenderProgress: e.surrenderProgress(),
		GameEnd:           gameEnd,
		Replay:            e.replayID,
	}
}

// replayFrame is the frame a reconstruction stores for the current turn.
// Kill reports are transient and are not part of replays.
func (e *Engine) replayFrame(gameEnd bool) *protocol.UpdatePayload {
	f := e.fullVisionPayload(gameEnd)
	f.Replay = ""
	e.kills = make(map[string]string)
	return f
}

// saveHistory stores the op stream of the finished game and returns the
// replay id, or "" when the game has no saver or saving failed.
func (e *Engine) saveHistory(ctx context.Context, leaderboard []protocol.LeaderboardEntry) string {
	if e.replays == nil || e.recorder == nil {
		return ""
	}
	data := &protocol.ActionData{
		Version:    protocol.ActionDataVersion,
		Meta:       e.meta,
		TotalTurns: e.turn,
		PlayerOps:  e.recorder.PlayerOps(e.turn),
	}
	summary := protocol.Summary{
		Rank: rules.FinalRank(leaderboard),
		Turn: e.turn / 2,
	}
	id, err := e.replays.Save(ctx, data, summary)
	if err != nil {
		e.logger.Error().Err(err).Int("turn", e.turn).Msg("Failed to save replay")
		return ""
	}
	e.publish(events.NewReplaySavedEvent(e.gameID, id, e.turn))
	e.logger.Info().Str("replay_id", id).Int("turn", e.turn).Msg("Replay saved")
	return id
}
