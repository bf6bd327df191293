package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
)

func newBareClient(h *Hub, id string, buffer int) *Client {
	return &Client{hub: h, id: id, send: make(chan []byte, buffer)}
}

func decodeFrame(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHub_RegisterAndSend(t *testing.T) {
	h := NewHub(Options{})
	c := newBareClient(h, "c1", 4)
	require.True(t, h.Register(c))
	assert.False(t, h.Register(newBareClient(h, "c1", 4)), "duplicate id")
	assert.Equal(t, 1, h.Count())

	h.Send("c1", domain.Frame{Event: domain.EventUserConnected, Data: domain.UserConnectedPayload{UserID: "u1"}})
	h.Send("unknown", domain.Frame{Event: domain.EventUserConnected})

	select {
	case raw := <-c.send:
		frame := decodeFrame(t, raw)
		assert.Equal(t, "user_connected", frame["event"])
		assert.Equal(t, map[string]any{"user_id": "u1"}, frame["data"])
	default:
		t.Fatal("expected a queued frame")
	}
}

func TestHub_FrameWithoutDataOmitsField(t *testing.T) {
	h := NewHub(Options{})
	c := newBareClient(h, "c1", 1)
	h.Register(c)

	h.Send("c1", domain.Frame{Event: domain.EventClearCanvas})
	assert.JSONEq(t, `{"event":"clear_canvas"}`, string(<-c.send))
}

func TestHub_MulticastDropsWhenBufferFull(t *testing.T) {
	h := NewHub(Options{})
	slow := newBareClient(h, "slow", 1)
	fast := newBareClient(h, "fast", 4)
	h.Register(slow)
	h.Register(fast)

	frame := domain.Frame{Event: domain.EventDraw, Data: json.RawMessage(`{"x":1}`)}
	h.Multicast([]string{"slow", "fast"}, frame)
	h.Multicast([]string{"slow", "fast"}, frame)

	assert.Len(t, slow.send, 1)
	assert.Len(t, fast.send, 2)
	assert.JSONEq(t, `{"event":"draw","data":{"x":1}}`, string(<-fast.send))
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	h := NewHub(Options{})
	c := newBareClient(h, "c1", 1)
	h.Register(c)

	h.Unregister(c)
	h.Unregister(c)
	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, h.Count())

	// Sends after unregister are ignored rather than panicking on the closed channel.
	assert.NotPanics(t, func() {
		h.Send("c1", domain.Frame{Event: domain.EventDraw})
	})
}

func TestHub_ConcurrentSendAndUnregister(t *testing.T) {
	h := NewHub(Options{})
	clients := make([]*Client, 20)
	ids := make([]string, 20)
	for i := range clients {
		ids[i] = "c" + string(rune('a'+i))
		clients[i] = newBareClient(h, ids[i], 8)
		h.Register(clients[i])
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Multicast(ids, domain.Frame{Event: domain.EventCursorMove})
			}
		}()
	}
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			h.Unregister(c)
		}(c)
	}
	wg.Wait()
	assert.Equal(t, 0, h.Count())
}

type recordingHandler struct {
	mu           sync.Mutex
	messages     []string
	disconnected chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{disconnected: make(chan string, 1)}
}

func (r *recordingHandler) HandleMessage(connID string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, connID+":"+string(raw))
}

func (r *recordingHandler) HandleDisconnect(connID string) {
	r.disconnected <- connID
}

func (r *recordingHandler) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func TestClient_PumpsOverRealConnection(t *testing.T) {
	h := NewHub(Options{SendBuffer: 8})
	handler := newRecordingHandler()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(h, conn, "conn-1", handler)
		h.Register(c)
		c.Run()
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 10*time.Millisecond)

	h.Send("conn-1", domain.Frame{Event: domain.EventUserConnected, Data: domain.UserConnectedPayload{UserID: "u1"}})
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user_connected","data":{"user_id":"u1"}}`, string(raw))

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"draw"}`)))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"erase"}`)))
	require.Eventually(t, func() bool { return len(handler.received()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{`conn-1:{"event":"draw"}`, `conn-1:{"event":"erase"}`}, handler.received())

	require.NoError(t, ws.Close())
	select {
	case id := <-handler.disconnected:
		assert.Equal(t, "conn-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect was not reported")
	}
	require.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, 10*time.Millisecond)
}
