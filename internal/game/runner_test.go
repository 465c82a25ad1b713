package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game/states"
	"github.com/oimasterkafuu/checkmate/internal/testutil"
)

const runnerTimeout = 5 * time.Second

func startRunner(t *testing.T, ctx context.Context, teams []int) (*Runner, *recordingEmitter) {
	t.Helper()
	e, em := newTestEngine(t, teams)
	r := NewRunner(e, testutil.NopLogger())
	r.Start(ctx)
	return r, em
}

func waitDone(t *testing.T, r *Runner) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(runnerTimeout):
		t.Fatal("runner did not stop")
	}
}

// waitTurn blocks until the game has played at least turn ticks
func waitTurn(t *testing.T, r *Runner, turn int) {
	t.Helper()
	require.Eventually(t, func() bool {
		var current int
		if err := r.Query(context.Background(), func(e *Engine) { current = e.Turn() }); err != nil {
			return false
		}
		return current >= turn
	}, runnerTimeout, 5*time.Millisecond)
}

func TestRunner_SurrenderEndsGame(t *testing.T) {
	r, em := startRunner(t, context.Background(), []int{1, 2})
	waitTurn(t, r, 2)

	require.NoError(t, r.Surrender("sid1"))
	waitDone(t, r)

	assert.Equal(t, states.PhaseEnded, r.engine.Phase())
	assert.Equal(t, []string{"test-game"}, em.ended)
	assert.Contains(t, em.systemTexts(), "p0 won.")
	last := em.lastUpdate("sid0")
	require.NotNil(t, last)
	assert.True(t, last.GameEnd)
}

func TestRunner_QueuedMovesReachTheEngine(t *testing.T) {
	r, _ := startRunner(t, context.Background(), []int{1, 2})
	defer func() {
		_ = r.Surrender("sid1")
		waitDone(t, r)
	}()

	// park the loop: the tick after this one is an hour away
	var turn int
	require.NoError(t, r.Query(context.Background(), func(e *Engine) {
		e.settings.BaseTick = time.Hour
		turn = e.Turn()
	}))
	waitTurn(t, r, turn+1)

	var queued int
	require.NoError(t, r.AddMove("sid0", 0, 0, 0, 1, false))
	require.NoError(t, r.AddMove("sid0", 0, 1, 0, 2, false))
	require.NoError(t, r.PopQueue("sid0"))
	require.NoError(t, r.Query(context.Background(), func(e *Engine) {
		p, _ := e.Player("sid0")
		queued = p.QueueLen()
	}))
	assert.Equal(t, 1, queued)

	require.NoError(t, r.ClearQueue("sid0"))
	require.NoError(t, r.Query(context.Background(), func(e *Engine) {
		p, _ := e.Player("sid0")
		queued = p.QueueLen()
	}))
	assert.Equal(t, 0, queued)
}

func TestRunner_SpectatorsAndChat(t *testing.T) {
	r, em := startRunner(t, context.Background(), []int{1, 2})
	waitTurn(t, r, 1)

	require.NoError(t, r.AddSpectator("watcher"))
	waitTurn(t, r, 3)
	require.NotEmpty(t, em.updatesFor("watcher"))

	require.NoError(t, r.RemoveSpectator("watcher"))
	require.NoError(t, r.SendMessage("sid0", "gl hf", false))
	require.NoError(t, r.Disconnect("sid1"))
	require.NoError(t, r.Reconnect("sid1"))

	var spectators []string
	var status int
	require.NoError(t, r.Query(context.Background(), func(e *Engine) {
		spectators = e.Spectators()
		p, _ := e.Player("sid1")
		status = p.Status
	}))
	assert.Empty(t, spectators)
	assert.Equal(t, 0, status)

	require.NoError(t, r.LeaveGame("sid1"))
	waitDone(t, r)
	assert.Equal(t, states.PhaseEnded, r.engine.Phase())
}

func TestRunner_StoppedRunnerRejectsCommands(t *testing.T) {
	r, _ := startRunner(t, context.Background(), []int{1, 2})
	waitTurn(t, r, 1)
	require.NoError(t, r.Surrender("sid0"))
	waitDone(t, r)

	assert.ErrorIs(t, r.AddMove("sid1", 0, 0, 0, 1, false), ErrRunnerStopped)
	assert.ErrorIs(t, r.Surrender("sid1"), ErrRunnerStopped)
	assert.ErrorIs(t, r.Query(context.Background(), func(*Engine) {}), ErrRunnerStopped)
}

func TestRunner_CancelAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, em := startRunner(t, ctx, []int{1, 2})
	waitTurn(t, r, 1)

	cancel()
	waitDone(t, r)

	assert.Equal(t, states.PhaseError, r.engine.Phase())
	assert.Contains(t, em.systemTexts(), "Game aborted.")
	assert.Equal(t, []string{"test-game"}, em.ended)
}

func TestRunner_PanicAborts(t *testing.T) {
	r, em := startRunner(t, context.Background(), []int{1, 2})
	waitTurn(t, r, 1)

	require.NoError(t, r.submit(func(*Engine) bool { panic("boom") }))
	waitDone(t, r)

	assert.Equal(t, states.PhaseError, r.engine.Phase())
	assert.Equal(t, []string{"test-game"}, em.ended)
}

func TestRunner_StartIsIdempotent(t *testing.T) {
	r, _ := startRunner(t, context.Background(), []int{1, 2})
	r.Start(context.Background())
	waitTurn(t, r, 1)
	assert.Equal(t, "test-game", r.GameID())

	require.NoError(t, r.Surrender("sid1"))
	waitDone(t, r)
}
