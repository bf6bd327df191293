package domain

import (
	"encoding/json"
	"time"
)

// EventKind distinguishes the two mutations kept in a room's replay log.
type EventKind string

const (
	KindDraw  EventKind = "draw"
	KindErase EventKind = "erase"
)

// DrawEvent is one entry of a room's replay log. Payload is the client's tool data, kept opaque.
type DrawEvent struct {
	Kind      EventKind       `json:"type"`
	Payload   json.RawMessage `json:"data"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
}
