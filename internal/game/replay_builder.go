package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/vision"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/replay"
)

// ReplayBuilder turns a stored op stream back into playable frames by
// running the game again on a private engine.
type ReplayBuilder struct {
	settings Settings
	logger   zerolog.Logger
}

// NewReplayBuilder creates a builder that runs with the given constants
func NewReplayBuilder(settings Settings, logger zerolog.Logger) *ReplayBuilder {
	return &ReplayBuilder{
		settings: settings,
		logger:   logger.With().Str("component", "ReplayBuilder").Logger(),
	}
}

// Build reconstructs every frame of the game described by data. Its
// signature matches replay.Builder.
func (rb *ReplayBuilder) Build(data *protocol.ActionData) (*protocol.ReplayData, error) {
	return rb.BuildContext(context.Background(), data)
}

// BuildContext is Build with cancellation between turns
func (rb *ReplayBuilder) BuildContext(ctx context.Context, data *protocol.ActionData) (*protocol.ReplayData, error) {
	if data == nil {
		return nil, fmt.Errorf("replay build: no action data")
	}
	if len(data.PlayerOps) != len(data.Meta.PlayerNames) {
		return nil, fmt.Errorf("replay build: %d op streams for %d players",
			len(data.PlayerOps), len(data.Meta.PlayerNames))
	}
	start := time.Now()

	e, err := rb.newEngine(ctx, data.Meta)
	if err != nil {
		return nil, err
	}
	if err := e.Begin(ctx); err != nil {
		return nil, fmt.Errorf("replay build: %w", err)
	}

	total := data.TotalTurns
	schedules := replay.BuildSchedules(data.PlayerOps)
	initial := e.replayFrame(total <= 0)
	patches := make([]protocol.Patch, 0, max(total, 0))

	prev := initial
	for turn := 1; turn <= total; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, sched := range schedules {
			ta := sched.At(turn)
			if ta == nil {
				continue
			}
			e.applyRecorded(i, turn, ta)
		}

		over, err := e.turnProc.ProcessTurn(ctx)
		if err != nil {
			return nil, fmt.Errorf("replay build at turn %d: %w", turn, err)
		}
		next := e.replayFrame(over || turn >= total)
		patches = append(patches, replay.BuildPatch(prev, next))
		prev = next
		if over {
			break
		}
	}

	meta := e.meta
	rb.logger.Debug().
		Int("turns", total).
		Int("patches", len(patches)).
		Dur("elapsed", time.Since(start)).
		Msg("Replay rebuilt")
	return &protocol.ReplayData{
		N:       e.board.N,
		M:       e.board.M,
		Initial: *initial,
		Patches: patches,
		Meta:    &meta,
	}, nil
}

func (rb *ReplayBuilder) newEngine(ctx context.Context, meta protocol.ReplayMeta) (*Engine, error) {
	n := len(meta.PlayerNames)
	sids := make([]string, n)
	ids := make([]string, n)
	for i := range sids {
		sids[i] = fmt.Sprintf("replay_sid_%d", i)
		ids[i] = fmt.Sprintf("replay_id_%d", i)
	}
	settings := rb.settings
	e, err := NewEngine(ctx, GameConfig{
		GameID:      replayBuildID,
		Meta:        meta,
		PlayerSids:  sids,
		PlayerIDs:   ids,
		Logger:      rb.logger,
		Settings:    &settings,
		Clock:       func() time.Time { return time.Unix(0, 0) },
		Rand:        rand.New(rand.NewSource(0)),
		replayBuild: true,
	})
	if err != nil {
		return nil, fmt.Errorf("replay build: %w", err)
	}
	return e, nil
}

// applyRecorded feeds one player's recorded actions for turn into the
// engine, events first.
func (e *Engine) applyRecorded(player, turn int, ta *replay.TurnActions) {
	sid := e.players[player].Sid
	for _, ev := range ta.Events {
		switch ev {
		case protocol.OpSurrender:
			e.Surrender(sid)
		case protocol.OpLeave:
			e.LeaveGame(sid)
		case protocol.OpDisconnect:
			e.Disconnect(sid)
		case protocol.OpReconnect:
			e.Reconnect(sid)
		case protocol.OpAFK:
			e.pendingAFK[turn] = append(e.pendingAFK[turn], player)
		}
	}
	if ta.HasMove {
		m := ta.Move
		e.AddMove(sid, m.FromX, m.FromY, m.ToX, m.ToY, m.Half)
	}
}

// BuildReplayFromActions reconstructs a replay with the configured
// constants
func BuildReplayFromActions(data *protocol.ActionData) (*protocol.ReplayData, error) {
	return NewReplayBuilder(DefaultSettings(), zerolog.Nop()).Build(data)
}

// BuildReplayBaseMap generates the map of meta with the generals placed
// and returns it in full vision.
func BuildReplayBaseMap(meta protocol.ReplayMeta) (n, m int, grid, army []int, err error) {
	rb := NewReplayBuilder(DefaultSettings(), zerolog.Nop())
	e, err := rb.newEngine(context.Background(), meta)
	if err != nil {
		return 0, 0, nil, nil, err
	}
	grid, army = vision.Full(e.board)
	return e.board.N, e.board.M, grid, army, nil
}
