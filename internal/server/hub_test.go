package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oimasterkafuu/checkmate/internal/game"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/testutil"
)

// testContext mirrors testing.T.Context (Go 1.24+): the context is canceled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (*httptest.Server, *GameManager, *Hub) {
	t.Helper()
	r, gm, hub := newTestRouter(t, ManagerOptions{}, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, gm, hub
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testTimeout)))
	var env wsEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

// readUntil reads envelopes until one with event arrives
func readUntil(t *testing.T, conn *websocket.Conn, event string) wsEnvelope {
	t.Helper()
	for {
		env := readEnvelope(t, conn)
		if env.Event == event {
			return env
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(clientMessage{Event: event, Data: raw}))
}

func TestHub_PlayerReceivesInitMapFirst(t *testing.T) {
	srv, gm, _ := startServer(t)
	created, err := gm.CreateGame(duel())
	require.NoError(t, err)

	conn := dial(t, srv, "game="+created.GameID+"&sid="+created.Sids[0])
	first := readEnvelope(t, conn)
	require.Equal(t, EventInitMap, first.Event)
	var initMap protocol.InitMapPayload
	require.NoError(t, json.Unmarshal(first.Data, &initMap))
	assert.NotEqual(t, [2]int{-1, -1}, initMap.General)
	assert.Equal(t, []string{"alice", "bob"}, initMap.PlayerIDs)

	env := readUntil(t, conn, EventUpdate)
	var update protocol.UpdatePayload
	require.NoError(t, json.Unmarshal(env.Data, &update))
	assert.False(t, update.IsDiff, "the first frame after connecting is full")
	assert.Len(t, update.GridType, initMap.N*initMap.M)
}

func TestHub_SpectatorGetsFullVision(t *testing.T) {
	srv, gm, hub := startServer(t)
	created, err := gm.CreateGame(duel())
	require.NoError(t, err)

	conn := dial(t, srv, "game="+created.GameID)
	first := readEnvelope(t, conn)
	require.Equal(t, EventInitMap, first.Event)
	var initMap protocol.InitMapPayload
	require.NoError(t, json.Unmarshal(first.Data, &initMap))
	assert.Equal(t, [2]int{-1, -1}, initMap.General)

	readUntil(t, conn, EventUpdate)
	assert.Equal(t, 1, hub.Sessions())

	_ = conn.Close()
	require.Eventually(t, func() bool { return hub.Sessions() == 0 }, testTimeout, 5*time.Millisecond)
}

func TestHub_SurrenderEndsGameForEveryone(t *testing.T) {
	srv, gm, _ := startServer(t)
	created, err := gm.CreateGame(duel())
	require.NoError(t, err)

	alice := dial(t, srv, "game="+created.GameID+"&sid="+created.Sids[0])
	bob := dial(t, srv, "game="+created.GameID+"&sid="+created.Sids[1])
	readUntil(t, alice, EventUpdate)
	readUntil(t, bob, EventUpdate)

	send(t, alice, EventSendMessage, chatRequest{Text: "gl hf"})
	var msg protocol.ChatMessage
	for msg.Sender == "" {
		chat := readUntil(t, bob, EventChat)
		require.NoError(t, json.Unmarshal(chat.Data, &msg))
	}
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "gl hf", msg.Text)

	send(t, bob, EventSurrender, nil)
	for _, conn := range []*websocket.Conn{alice, bob} {
		env := readUntil(t, conn, EventGameEnd)
		var end gameEndMessage
		require.NoError(t, json.Unmarshal(env.Data, &end))
		assert.Equal(t, created.GameID, end.GameID)
	}

	status, err := gm.Status(testContext(t), created.GameID)
	require.NoError(t, err)
	assert.Equal(t, "Ended", status.Phase)
}

func TestHub_MalformedMessagesAreIgnored(t *testing.T) {
	srv, gm, hub := startServer(t)
	created, err := gm.CreateGame(duel())
	require.NoError(t, err)

	conn := dial(t, srv, "game="+created.GameID+"&sid="+created.Sids[0])
	readUntil(t, conn, EventUpdate)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, conn, "teleport", nil)
	send(t, conn, EventMove, "bogus")
	send(t, conn, EventMove, moveRequest{X: 0, Y: 0, DX: 0, DY: 1})

	readUntil(t, conn, EventUpdate)
	assert.Equal(t, 1, hub.Sessions())
}

func TestHub_NewSessionReplacesOld(t *testing.T) {
	srv, gm, hub := startServer(t)
	created, err := gm.CreateGame(duel())
	require.NoError(t, err)
	query := "game=" + created.GameID + "&sid=" + created.Sids[0]

	old := dial(t, srv, query)
	readUntil(t, old, EventUpdate)
	fresh := dial(t, srv, query)
	readUntil(t, fresh, EventUpdate)

	require.NoError(t, old.SetReadDeadline(time.Now().Add(testTimeout)))
	for {
		if _, _, err := old.ReadMessage(); err != nil {
			break
		}
	}
	assert.Equal(t, 1, hub.Sessions())

	runner, _ := gm.Runner(created.GameID)
	var status int
	require.NoError(t, runner.Query(testContext(t), func(e *game.Engine) {
		p, _ := e.Player(created.Sids[0])
		status = p.Status
	}))
	assert.Equal(t, 0, status, "a replaced session does not start the disconnect countdown")
}

func TestHub_StoppedGameIsGone(t *testing.T) {
	srv, gm, _ := startServer(t)
	created, err := gm.CreateGame(duel())
	require.NoError(t, err)
	runner, _ := gm.Runner(created.GameID)
	require.NoError(t, runner.Surrender(created.Sids[0]))
	waitStopped(t, runner)

	resp, err := http.Get(srv.URL + "/ws?game=" + created.GameID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestHub_CheckOrigin(t *testing.T) {
	hub := NewHub(HubOptions{AllowedOrigins: []string{"https://play.example"}}, testutil.NopLogger())
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://play.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, hub.checkOrigin(req), tt.origin)
	}

	open := NewHub(HubOptions{}, testutil.NopLogger())
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	assert.True(t, open.checkOrigin(req))
}

func TestHub_EmitterWithoutSessionsIsNoop(t *testing.T) {
	hub := NewHub(HubOptions{}, testutil.NopLogger())
	hub.Update("nobody", &protocol.UpdatePayload{})
	hub.InitMap("nobody", protocol.InitMapPayload{})
	hub.Chat("no-room", protocol.ChatRoom, protocol.ChatMessage{Text: "hi"})
	hub.GameEnded("no-room")
	assert.Equal(t, 0, hub.Sessions())
}
