package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/hub"
)

// WebSocketHandler upgrades requests on /ws and attaches each connection to the hub and the engine.
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	hub        *hub.Hub
	engine     Engine
	dispatcher *Dispatcher
}

// NewWebSocketHandler creates the handler. An empty allowedOrigin or "*" accepts any origin.
func NewWebSocketHandler(h *hub.Hub, engine Engine, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if engine == nil {
		panic("Engine cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}

	return &WebSocketHandler{
		upgrader:   upgrader,
		hub:        h,
		engine:     engine,
		dispatcher: NewDispatcher(engine),
	}
}

// HandleConnection upgrades the request, assigns a connection id and starts the client pumps.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithField("client_ip", c.ClientIP())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	connID := uuid.NewString()
	logCtx = logCtx.WithField("conn_id", connID)

	client := hub.NewClient(h.hub, conn, connID, h.dispatcher)
	if !h.hub.Register(client) {
		logCtx.Error("WS Handler: Failed to register client")
		conn.Close()
		return
	}
	if _, err := h.engine.Connect(connID); err != nil {
		logCtx.WithError(err).Error("WS Handler: Failed to open session")
		h.hub.Unregister(client)
		conn.Close()
		return
	}

	client.Run()
	logCtx.Debug("WS Handler: Client pumps started")
}
