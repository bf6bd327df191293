package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/credentials"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/hub"
	memstate "github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/infra/state/memory"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/service"
)

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := hub.NewHub(hub.Options{})
	hasher := credentials.NewBcryptHasher(bcrypt.MinCost)
	svc := service.NewWhiteboardService(
		memstate.NewSessionRegistry(),
		memstate.NewRoomStore(),
		memstate.NewPrivateRoomDirectory(hasher),
		hasher,
		h,
		service.Config{},
	)

	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(h, svc, "").HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]any{"event": event, "data": data}))
}

// expect reads frames until one named event arrives.
func expect(t *testing.T, ws *websocket.Conn, event string) wireFrame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, ws.SetReadDeadline(deadline))
		var f wireFrame
		require.NoError(t, ws.ReadJSON(&f), "waiting for %s", event)
		if f.Event == event {
			return f
		}
	}
}

func TestWebSocket_EndToEndDrawAndReplay(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	connected := expect(t, alice, "user_connected")
	var hello struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(connected.Data, &hello))
	assert.NotEmpty(t, hello.UserID)

	send(t, alice, "join_room", map[string]string{"username": "alice"})
	history := expect(t, alice, "drawing_data")
	assert.JSONEq(t, `{"data":[]}`, string(history.Data))
	joined := expect(t, alice, "room_joined")
	assert.JSONEq(t, `{"room_id":"default","room_name":"default","is_private":false,"user_count":1}`, string(joined.Data))

	bob := dial(t, srv)
	expect(t, bob, "user_connected")
	send(t, bob, "join_room", map[string]string{"room_id": "default", "username": "bob"})
	expect(t, bob, "room_joined")
	userJoined := expect(t, alice, "user_joined")
	assert.Contains(t, string(userJoined.Data), `"username":"bob"`)

	send(t, alice, "draw", map[string]any{"x": 10, "y": 20})
	drawn := expect(t, bob, "draw")
	assert.JSONEq(t, `{"x":10,"y":20}`, string(drawn.Data))

	carol := dial(t, srv)
	expect(t, carol, "user_connected")
	send(t, carol, "join_room", map[string]string{})
	replay := expect(t, carol, "drawing_data")
	var payload struct {
		Data []struct {
			Type   string          `json:"type"`
			Data   json.RawMessage `json:"data"`
			UserID string          `json:"user_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(replay.Data, &payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "draw", payload.Data[0].Type)
	assert.Equal(t, hello.UserID, payload.Data[0].UserID)

	require.NoError(t, alice.Close())
	left := expect(t, bob, "user_left")
	assert.Contains(t, string(left.Data), hello.UserID)
}

func TestWebSocket_PrivateRoomRejections(t *testing.T) {
	srv := newTestServer(t)

	owner := dial(t, srv)
	expect(t, owner, "user_connected")
	send(t, owner, "create_private_room", map[string]any{"room_name": "ab", "password": "abcd"})
	failure := expect(t, owner, "room_creation_error")
	assert.JSONEq(t, `{"message":"Room name must be at least 3 characters"}`, string(failure.Data))

	send(t, owner, "create_private_room", map[string]any{"room_name": "Team Sync", "password": "abcd", "max_users": 1})
	created := expect(t, owner, "private_room_created")
	var room struct {
		RoomID string `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(created.Data, &room))

	send(t, owner, "join_room", map[string]string{"room_id": room.RoomID, "password": "abcd"})
	expect(t, owner, "room_joined")

	guest := dial(t, srv)
	expect(t, guest, "user_connected")
	send(t, guest, "join_room", map[string]string{"room_id": room.RoomID, "password": "nope"})
	assert.JSONEq(t, `{"message":"Incorrect password"}`, string(expect(t, guest, "room_join_error").Data))

	send(t, guest, "join_room", map[string]string{"room_id": room.RoomID, "password": "abcd"})
	assert.JSONEq(t, `{"message":"Room is full"}`, string(expect(t, guest, "room_join_error").Data))
}
