package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game/vision"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/replay"
	"github.com/oimasterkafuu/checkmate/internal/testutil"
)

// recordedSettings shortens the AFK and disconnect thresholds so a short
// bot game exercises them
func recordedSettings() Settings {
	s := testSettings()
	s.AFKMinTurns = 30
	s.AFKMinDuration = 0
	s.LeftGame = 20
	return s
}

// playGame runs random bots for maxTurns and then ends the game by
// surrendering every living seat but the first. Along the way one seat
// idles into an AFK surrender, one drops its connection for a while and
// one leaves. It returns the saved op stream and the live full-vision
// frame of every turn, the opening frame first.
func playGame(tb testing.TB, cfg GameConfig, maxTurns int) (*protocol.ActionData, []*protocol.UpdatePayload) {
	tb.Helper()
	saver, ok := cfg.Replays.(*memorySaver)
	require.True(tb, ok, "playGame needs a memorySaver")

	clock := &fakeClock{now: time.Unix(1000, 0)}
	cfg.Clock = clock.Now
	settings := recordedSettings()
	cfg.Settings = &settings

	ctx := context.Background()
	e, err := NewEngine(ctx, cfg)
	require.NoError(tb, err)
	require.NoError(tb, e.Begin(ctx))

	bots := make([]*RandomBot, len(e.players))
	for i := range bots {
		bots[i] = NewRandomBot(i, testutil.NewTestRNG(int64(100+i)), testutil.NopLogger())
	}
	last := len(bots) - 1
	bots[last].Activity = 0

	frames := []*protocol.UpdatePayload{e.fullVisionPayload(false)}
	over := false
	for turn := 1; !over; turn++ {
		switch turn {
		case 10:
			e.Disconnect(e.players[0].Sid)
		case 14:
			e.Reconnect(e.players[0].Sid)
		case 40:
			if len(e.players) > 2 {
				e.LeaveGame(e.players[1].Sid)
			}
		}
		if turn > maxTurns {
			kept := false
			for _, p := range e.players {
				if !p.IsAlive() {
					continue
				}
				if kept {
					e.Surrender(p.Sid)
				}
				kept = true
			}
		} else {
			QueueBotMoves(e, bots)
		}

		clock.Advance(time.Second)
		over, err = e.Tick(ctx)
		require.NoError(tb, err)
		frames = append(frames, e.fullVisionPayload(over))
	}
	e.Finish()

	require.NotNil(tb, saver.data, "replay was not saved")
	return saver.data, frames
}

func playRecordedGame(tb testing.TB, cfg GameConfig, maxTurns int) *protocol.ActionData {
	data, _ := playGame(tb, cfg, maxTurns)
	return data
}

func assertSameFrame(t *testing.T, want, got *protocol.UpdatePayload) {
	t.Helper()
	assert.Equal(t, want.Turn, got.Turn)
	assert.Equal(t, want.GridType, got.GridType, "grid at turn %d", want.Turn)
	assert.Equal(t, want.ArmyCnt, got.ArmyCnt, "army at turn %d", want.Turn)
	assert.Equal(t, want.Leaderboard, got.Leaderboard, "leaderboard at turn %d", want.Turn)
	assert.Equal(t, want.SurrenderProgress, got.SurrenderProgress, "surrender progress at turn %d", want.Turn)
	assert.Equal(t, want.GameEnd, got.GameEnd, "game end at turn %d", want.Turn)
}

func TestReplayBuilder_RoundTrip(t *testing.T) {
	modes := []string{"random", "maze", "archipelago"}
	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig([]int{1, 2, 3, 4})
			cfg.Meta.MapMode = mode
			cfg.Meta.MapToken = "round-trip-" + mode
			cfg.Meta.WidthRatio = 0.6
			cfg.Meta.HeightRatio = 0.6
			cfg.Replays = &memorySaver{id: "rt"}

			data, live := playGame(t, cfg, 120)
			assert.Equal(t, len(live)-1, data.TotalTurns)

			rebuilt, err := NewReplayBuilder(recordedSettings(), testutil.NopLogger()).Build(data)
			require.NoError(t, err)

			frames := replay.Frames(rebuilt)
			require.Len(t, frames, len(live))
			for i := range live {
				assertSameFrame(t, live[i], frames[i])
			}
			assert.True(t, frames[len(frames)-1].GameEnd)

			n, m := rebuilt.N, rebuilt.M
			assert.Len(t, rebuilt.Initial.GridType, n*m)
			require.NotNil(t, rebuilt.Meta)
			assert.Equal(t, data.Meta, *rebuilt.Meta)
		})
	}
}

func TestReplayBuilder_BackwardPatchesUndo(t *testing.T) {
	cfg := testConfig([]int{1, 2, 3})
	cfg.Replays = &memorySaver{id: "bw"}
	data := playRecordedGame(t, cfg, 60)

	rebuilt, err := NewReplayBuilder(recordedSettings(), testutil.NopLogger()).Build(data)
	require.NoError(t, err)
	frames := replay.Frames(rebuilt)
	for i, p := range rebuilt.Patches {
		back := replay.Apply(frames[i+1], p.Backward)
		assert.Equal(t, frames[i].GridType, back.GridType, "patch %d", i)
		assert.Equal(t, frames[i].ArmyCnt, back.ArmyCnt, "patch %d", i)
		assert.Equal(t, frames[i].Turn, back.Turn, "patch %d", i)
	}
}

func TestReplayBuilder_ThroughStore(t *testing.T) {
	builder := NewReplayBuilder(testSettings(), testutil.NopLogger())
	store := replay.NewStore(t.TempDir(), nil, builder.Build, testutil.NopLogger())

	cfg := testConfig([]int{1, 2})
	cfg.Replays = store
	ctx := context.Background()
	e, err := NewEngine(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, e.Begin(ctx))
	tickN(t, e, 5)
	require.True(t, e.Surrender("sid1"))
	over, err := e.Tick(ctx)
	require.NoError(t, err)
	require.True(t, over)
	e.Finish()

	id := e.ReplayID()
	require.NotEmpty(t, id)
	rebuilt, err := store.Load(id)
	require.NoError(t, err)
	frames := replay.Frames(rebuilt)
	require.Len(t, frames, 7)
	last := frames[6]
	assert.True(t, last.GameEnd)
	grid, army := vision.Full(e.board)
	assert.Equal(t, grid, last.GridType)
	assert.Equal(t, army, last.ArmyCnt)
}

func TestReplayBuilder_EmptyGame(t *testing.T) {
	cfg := testConfig([]int{1, 2})
	data := &protocol.ActionData{
		Version:   protocol.ActionDataVersion,
		Meta:      cfg.Meta,
		PlayerOps: [][]protocol.PlayerOp{{}, {}},
	}
	rebuilt, err := NewReplayBuilder(testSettings(), testutil.NopLogger()).Build(data)
	require.NoError(t, err)
	assert.Empty(t, rebuilt.Patches)
	assert.True(t, rebuilt.Initial.GameEnd)
	assert.Equal(t, 0, rebuilt.Initial.Turn)
	assert.Equal(t, protocol.NoMovePayload, rebuilt.Initial.LstMove)
	// meta without a size version is read as version 1
	assert.Equal(t, 1, rebuilt.Meta.MapSizeVersion)
}

func TestReplayBuilder_Errors(t *testing.T) {
	builder := NewReplayBuilder(testSettings(), testutil.NopLogger())

	_, err := builder.Build(nil)
	assert.Error(t, err)

	cfg := testConfig([]int{1, 2})
	_, err = builder.Build(&protocol.ActionData{Meta: cfg.Meta, PlayerOps: [][]protocol.PlayerOp{{}}})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = builder.BuildContext(ctx, &protocol.ActionData{
		Meta:       cfg.Meta,
		TotalTurns: 3,
		PlayerOps:  [][]protocol.PlayerOp{{}, {}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildReplayBaseMap(t *testing.T) {
	e, _ := newTestEngine(t, []int{1, 2})
	n, m, grid, army, err := BuildReplayBaseMap(e.Meta())
	require.NoError(t, err)

	wantN, wantM := e.Dimensions()
	assert.Equal(t, wantN, n)
	assert.Equal(t, wantM, m)
	wantGrid, wantArmy := vision.Full(e.board)
	assert.Equal(t, wantGrid, grid)
	assert.Equal(t, wantArmy, army)
}
