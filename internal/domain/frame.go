package domain

import "encoding/json"

// Inbound event names (client -> server).
const (
	EventCreatePrivateRoom = "create_private_room"
	EventJoinRoom          = "join_room"
	EventDraw              = "draw"
	EventErase             = "erase"
	EventClearCanvas       = "clear_canvas"
	EventCursorMove        = "cursor_move"
	EventChangeTool        = "change_tool"
)

// Outbound event names (server -> client). draw, erase, clear_canvas and cursor_move reuse the inbound names.
const (
	EventUserConnected      = "user_connected"
	EventRoomCreationError  = "room_creation_error"
	EventPrivateRoomCreated = "private_room_created"
	EventRoomJoinError      = "room_join_error"
	EventDrawingData        = "drawing_data"
	EventRoomJoined         = "room_joined"
	EventUserJoined         = "user_joined"
	EventUsersUpdate        = "users_update"
	EventUserLeft           = "user_left"
	EventUserToolChange     = "user_tool_change"
)

// Frame is the envelope of every outbound websocket message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// InboundFrame is the envelope of every inbound websocket message; Data is decoded per event.
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// --- inbound payloads ---

type CreatePrivateRoomRequest struct {
	RoomName string `json:"room_name"`
	Password string `json:"password"`
	MaxUsers *int   `json:"max_users,omitempty"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type CursorMoveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// --- outbound payloads ---

type UserConnectedPayload struct {
	UserID string `json:"user_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PrivateRoomCreatedPayload struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	MaxUsers int    `json:"max_users"`
}

type DrawingDataPayload struct {
	Data []DrawEvent `json:"data"`
}

type UserPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type UsersUpdatePayload struct {
	Users []Session `json:"users"`
}

type CursorMovePayload struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type ToolChangePayload struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	ToolData json.RawMessage `json:"tool_data"`
}
