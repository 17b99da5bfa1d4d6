package ws_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetrace/internal/app"
	"leetrace/internal/config"
	"leetrace/internal/domain"
	"leetrace/internal/problems"
	"leetrace/internal/sandbox"
	"leetrace/internal/transport/ws"
)

func testSettings() domain.RoomSettings {
	return domain.RoomSettings{TimeLimit: 300, TotalRounds: 1}
}

type testEnv struct {
	hub    *app.Hub
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Load()
	store := problems.NewStore(t.TempDir())
	runner := sandbox.NewRunner(sandbox.DefaultConfig(), logger)
	hub := app.NewHub(store, runner, cfg.Game, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /ws/{roomCode}", ws.NewHandler(hub, logger))
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		hub.Close()
	})
	return &testEnv{hub: hub, server: server}
}

func (e *testEnv) dial(t *testing.T, roomCode string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/" + roomCode
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ws.ClientMessage{Type: ws.MessageType(msgType), Payload: payload}))
}

// readUntil reads frames (which may batch several newline-separated
// messages) until one matches the predicate.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]interface{}) bool) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err)
		for _, line := range strings.Split(string(frame), "\n") {
			if line == "" {
				continue
			}
			var msg map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(line), &msg))
			if match(msg) {
				return msg
			}
		}
	}
	t.Fatal("expected message not received")
	return nil
}

func typeIs(want string) func(map[string]interface{}) bool {
	return func(m map[string]interface{}) bool {
		return m["type"] == want
	}
}

func TestDialUnknownRoom(t *testing.T) {
	env := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/ZZZZZZ"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJoinFlow(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	conn := env.dial(t, session.RoomCode())
	send(t, conn, "join", map[string]string{"name": "alice"})

	state := readUntil(t, conn, typeIs("room_state"))
	assert.Equal(t, session.RoomCode(), state["room_id"])
	assert.Equal(t, "alice", state["host"])
	assert.Equal(t, []interface{}{"alice"}, state["players"])

	assert.Equal(t, 1, session.PlayerCount())
}

func TestJoinLowercaseRoomCode(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	conn := env.dial(t, strings.ToLower(session.RoomCode()))
	send(t, conn, "join", map[string]string{"name": "alice"})
	readUntil(t, conn, typeIs("room_state"))
}

func TestActionsRequireJoin(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	conn := env.dial(t, session.RoomCode())
	send(t, conn, "submit", map[string]string{"code": "pass"})

	msg := readUntil(t, conn, typeIs("error"))
	assert.Equal(t, ws.ErrCodeNotJoined, msg["code"])
}

func TestDuplicateNameRejected(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	first := env.dial(t, session.RoomCode())
	send(t, first, "join", map[string]string{"name": "alice"})
	readUntil(t, first, typeIs("room_state"))

	second := env.dial(t, session.RoomCode())
	send(t, second, "join", map[string]string{"name": "alice"})

	msg := readUntil(t, second, typeIs("error"))
	assert.Equal(t, ws.ErrCodeNameTaken, msg["code"])
}

func TestPingPong(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	conn := env.dial(t, session.RoomCode())
	send(t, conn, "ping", nil)
	readUntil(t, conn, typeIs("pong"))
}

func TestInvalidMessage(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	conn := env.dial(t, session.RoomCode())
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	msg := readUntil(t, conn, typeIs("error"))
	assert.Equal(t, ws.ErrCodeInvalidMessage, msg["code"])
}

func TestChatBroadcast(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	alice := env.dial(t, session.RoomCode())
	send(t, alice, "join", map[string]string{"name": "alice"})
	readUntil(t, alice, typeIs("room_state"))

	bob := env.dial(t, session.RoomCode())
	send(t, bob, "join", map[string]string{"name": "bob"})
	readUntil(t, bob, typeIs("room_state"))

	send(t, alice, "chat", map[string]string{"message": "good luck <b>everyone</b>"})

	msg := readUntil(t, bob, typeIs("chat"))
	assert.Equal(t, "alice", msg["name"])
	assert.Equal(t, "good luck everyone", msg["message"])
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.hub.CreateRoom("alice", testSettings())
	require.NoError(t, err)

	alice := env.dial(t, session.RoomCode())
	send(t, alice, "join", map[string]string{"name": "alice"})
	readUntil(t, alice, typeIs("room_state"))

	bob := env.dial(t, session.RoomCode())
	send(t, bob, "join", map[string]string{"name": "bob"})
	readUntil(t, bob, typeIs("room_state"))

	alice.Close()

	// bob sees the updated roster with himself promoted to host
	state := readUntil(t, bob, func(m map[string]interface{}) bool {
		return m["type"] == "room_state" && m["host"] == "bob"
	})
	assert.Equal(t, []interface{}{"bob"}, state["players"])
}
