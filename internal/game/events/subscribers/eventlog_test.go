package subscribers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/events/subscribers"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		out = append(out, line)
	}
	return out
}

func TestEventLog_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := subscribers.NewEventLog("fields", zerolog.New(&buf), subscribers.EventLogOptions{Level: zerolog.InfoLevel})
	assert.Equal(t, "fields", log.ID())

	tests := []struct {
		name  string
		event events.Event
		level string
		check func(t *testing.T, line map[string]any)
	}{
		{
			name:  "game started",
			event: events.NewGameStartedEvent("g1", 4, 21, 25, "archipelago"),
			level: "info",
			check: func(t *testing.T, line map[string]any) {
				assert.Equal(t, float64(4), line["num_players"])
				assert.Equal(t, float64(21), line["rows"])
				assert.Equal(t, "archipelago", line["map_mode"])
			},
		},
		{
			name:  "game ended",
			event: events.NewGameEndedEvent("g1", []string{"alice", "bob"}, 240, time.Minute, "Zm9v"),
			level: "info",
			check: func(t *testing.T, line map[string]any) {
				assert.Equal(t, []any{"alice", "bob"}, line["winners"])
				assert.Equal(t, float64(240), line["final_turn"])
				assert.Equal(t, "Zm9v", line["replay_id"])
			},
		},
		{
			name:  "move executed",
			event: events.NewMoveExecutedEvent("g1", 1, core.NewMove(2, 2, 2, 3, true), 4, 0, 9),
			level: "debug",
			check: func(t *testing.T, line map[string]any) {
				assert.Equal(t, float64(1), line["player_id"])
				assert.Equal(t, true, line["half"])
				assert.Equal(t, float64(4), line["armies_moved"])
			},
		},
		{
			name:  "move rejected",
			event: events.NewMoveRejectedEvent("g1", 0, core.NewMove(0, 0, 1, 1, false), errors.New("tiles are not adjacent"), 3),
			level: "debug",
			check: func(t *testing.T, line map[string]any) {
				assert.Equal(t, "(0,0)->(1,1)", line["move"])
				assert.Equal(t, "tiles are not adjacent", line["reason"])
			},
		},
		{
			name:  "player eliminated",
			event: events.NewPlayerEliminatedEvent("g1", 2, 1, "capture", 1, 40),
			level: "info",
			check: func(t *testing.T, line map[string]any) {
				assert.Equal(t, float64(1), line["eliminated_by"])
				assert.Equal(t, float64(1), line["dead_order"])
			},
		},
		{
			name:  "player left",
			event: events.NewPlayerEvent(events.TypePlayerLeft, "g1", 3, 12),
			level: "info",
			check: func(t *testing.T, line map[string]any) {
				assert.Equal(t, float64(3), line["player_id"])
				assert.Equal(t, float64(12), line["turn"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			log.HandleEvent(tt.event)
			got := lines(t, &buf)
			require.Len(t, got, 1)
			line := got[0]
			assert.Equal(t, "Game event", line["message"])
			assert.Equal(t, "EventLog", line["component"])
			assert.Equal(t, "g1", line["game_id"])
			assert.Equal(t, tt.event.Type(), line["event_type"])
			assert.Equal(t, tt.level, line["level"])
			tt.check(t, line)
		})
	}
}

func TestEventLog_TypeFilter(t *testing.T) {
	var buf bytes.Buffer
	log := subscribers.NewEventLog("filtered", zerolog.New(&buf), subscribers.EventLogOptions{
		Types: []string{events.TypeGameEnded},
	})
	assert.False(t, log.InterestedIn(events.TypeTurnStarted))
	assert.True(t, log.InterestedIn(events.TypeGameEnded))

	bus := events.NewEventBus(zerolog.Nop())
	bus.Subscribe(log)
	bus.Publish(events.NewTurnStartedEvent("g", 1))
	assert.Empty(t, buf.String())

	bus.Publish(events.NewGameEndedEvent("g", nil, 10, time.Second, ""))
	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, events.TypeGameEnded, got[0]["event_type"])
	assert.Equal(t, "debug", got[0]["level"], "the zero level is debug")

	unfiltered := subscribers.NewEventLog("all", zerolog.Nop(), subscribers.EventLogOptions{})
	assert.True(t, unfiltered.InterestedIn("any.event.type"))
}

func TestEventLog_Levels(t *testing.T) {
	tests := []struct {
		level     zerolog.Level
		lifecycle string
		turn      string
	}{
		{zerolog.WarnLevel, "warn", "info"},
		{zerolog.InfoLevel, "info", "debug"},
		{zerolog.NoLevel, "info", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			log := subscribers.NewEventLog("lvl", zerolog.New(&buf), subscribers.EventLogOptions{Level: tt.level})
			log.HandleEvent(events.NewStateTransitionEvent("g", "Starting", "Running", "first tick"))
			log.HandleEvent(events.NewTurnStartedEvent("g", 1))

			got := lines(t, &buf)
			require.Len(t, got, 2)
			assert.Equal(t, tt.lifecycle, got[0]["level"])
			assert.Equal(t, tt.turn, got[1]["level"])
		})
	}
}

func TestEventLog_Raw(t *testing.T) {
	var buf bytes.Buffer
	log := subscribers.NewEventLog("raw", zerolog.New(&buf), subscribers.EventLogOptions{Raw: true})

	log.HandleEvent(events.NewReplaySavedEvent("g", "abc", 88))

	got := lines(t, &buf)
	require.Len(t, got, 1)
	data, ok := got[0]["event"].(map[string]any)
	require.True(t, ok, "raw mode attaches the encoded event")
	assert.Equal(t, "abc", data["ReplayID"])
	assert.Equal(t, events.TypeReplaySaved, data["type"])
}
