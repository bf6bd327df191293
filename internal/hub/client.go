package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// MessageHandler consumes what a Client reads off its connection.
type MessageHandler interface {
	// HandleMessage is called for every text frame, in arrival order, on the read goroutine.
	HandleMessage(connID string, raw []byte)
	// HandleDisconnect is called once when the connection ends, before the client is unregistered.
	HandleDisconnect(connID string)
}

// Client is one websocket connection attached to the Hub.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	id      string
	send    chan []byte
	handler MessageHandler
}

// NewClient creates a Client for conn. It is not addressable until registered with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, connID string, handler MessageHandler) *Client {
	if hub == nil || conn == nil || handler == nil {
		panic("hub, conn and handler must be non-nil for Client")
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		id:      connID,
		send:    make(chan []byte, hub.opts.SendBuffer),
		handler: handler,
	}
}

// Run starts the read and write goroutines.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump reads frames off the connection and hands them to the handler.
// On exit it runs the disconnect path and unregisters the client.
func (c *Client) ReadPump() {
	logCtx := logrus.WithField("conn_id", c.id)
	defer func() {
		c.handler.HandleDisconnect(c.id)
		c.hub.Unregister(c)
		c.conn.Close()
		logCtx.Info("readPump exited, client unregistered")
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			logCtx.Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}
		c.handler.HandleMessage(c.id, message)
	}
}

// WritePump drains the send channel onto the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	logCtx := logrus.WithField("conn_id", c.id)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

func (c *Client) ID() string { return c.id }
func (c *Client) CloseConn()  { c.conn.Close() }
