package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	defaultMaxMessageSize = 64 * 1024
	defaultSendBuffer     = 256
)

// Options tunes per-connection limits.
type Options struct {
	MaxMessageSize int64
	SendBuffer     int
}

// Hub tracks the live connections by connection id and delivers frames to them.
// It implements the service Transport: every send is a non-blocking enqueue into the
// client's buffer, and frames for a full buffer are dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	opts    Options
}

// NewHub creates an empty Hub. Zero options fall back to defaults.
func NewHub(opts Options) *Hub {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &Hub{
		clients: make(map[string]*Client),
		opts:    opts,
	}
}

// Register makes client addressable. Registering an id twice replaces nothing and returns false.
func (h *Hub) Register(client *Client) bool {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[client.id]; exists {
		logrus.WithField("conn_id", client.id).Warn("Hub: Connection id already registered")
		return false
	}
	h.clients[client.id] = client
	metrics.ConnectionOpened()
	logrus.WithFields(logrus.Fields{"conn_id": client.id, "component": "hub"}).Debug("Client registered")
	return true
}

// Unregister removes client and closes its send channel, which stops its WritePump.
// Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	if client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	metrics.ConnectionClosed()
	logrus.WithFields(logrus.Fields{"conn_id": client.id, "component": "hub"}).Debug("Client unregistered")
}

// Send enqueues frame for connID. Unknown connections are ignored.
func (h *Hub) Send(connID string, frame domain.Frame) {
	payload, ok := encode(frame)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, found := h.clients[connID]; found {
		h.enqueue(client, payload, frame.Event)
	}
}

// Multicast encodes frame once and enqueues it for every listed connection.
func (h *Hub) Multicast(connIDs []string, frame domain.Frame) {
	if len(connIDs) == 0 {
		return
	}
	payload, ok := encode(frame)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		if client, found := h.clients[id]; found {
			h.enqueue(client, payload, frame.Event)
		}
	}
}

// enqueue never blocks. Caller holds h.mu so client.send is still open.
func (h *Hub) enqueue(client *Client, payload []byte, event string) {
	select {
	case client.send <- payload:
	default:
		metrics.FrameDropped()
		logrus.WithFields(logrus.Fields{
			"conn_id": client.id,
			"event":   event,
		}).Warn("Client send channel full, frame dropped")
	}
}

func encode(frame domain.Frame) ([]byte, bool) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logrus.WithError(err).WithField("event", frame.Event).Error("Failed to marshal outbound frame")
		return nil, false
	}
	return payload, true
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every underlying connection. Each client's ReadPump then runs its normal teardown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.CloseConn()
	}
	logrus.WithField("count", len(clients)).Info("Hub: Closed all client connections")
}
