package main

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/testutil"
)

type memorySaver struct {
	mu      sync.Mutex
	calls   int
	summary protocol.Summary
}

func (s *memorySaver) Save(_ context.Context, _ *protocol.ActionData, summary protocol.Summary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.summary = summary
	return "saved", nil
}

func matchSettings() game.Settings {
	return game.Settings{
		BaseTick:               time.Millisecond,
		MinTickDelay:           time.Millisecond,
		ImmediateTickDelay:     time.Millisecond,
		FullSnapshotInterval:   50,
		RandomFullSnapshotOdds: 0,
		LeftGame:               51,
		AFKMinTurns:            100,
		AFKMinDuration:         time.Hour,
		SurrenderFadeTicks:     16,
		ArchipelagoRetries:     120,
	}
}

func TestPlayMatch_EndsAtTurnLimit(t *testing.T) {
	saver := &memorySaver{}
	var out bytes.Buffer
	m := Match{Name: "limit", Players: 2, MaxTurns: 40, MapMode: "random", MapToken: "cmd-test", Seed: 3}

	e, err := playMatch(context.Background(), m, matchSettings(), saver, 20, &out, testutil.NopLogger())
	require.NoError(t, err)

	assert.True(t, e.IsFinished())
	assert.Equal(t, "Ended", e.Phase().String())
	assert.Len(t, e.Winners(), 1)
	assert.Equal(t, "saved", e.ReplayID())
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, e.Turn(), saver.summary.Turn)
	assert.Contains(t, out.String(), "turn 20\n")
}

func TestPlayMatch_SameSeedSameGame(t *testing.T) {
	m := Match{Name: "seeded", Players: 3, MaxTurns: 30, MapMode: "random", Seed: 11}
	var a, b bytes.Buffer

	first, err := playMatch(context.Background(), m, matchSettings(), nil, 10, &a, testutil.NopLogger())
	require.NoError(t, err)
	second, err := playMatch(context.Background(), m, matchSettings(), nil, 10, &b, testutil.NopLogger())
	require.NoError(t, err)

	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, first.Turn(), second.Turn())
	assert.Empty(t, first.ReplayID())
}
