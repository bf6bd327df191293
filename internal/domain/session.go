package domain

// DefaultColor is the stroke color every new session starts with.
const DefaultColor = "#000000"

// Cursor is a pointer position on the shared canvas.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Session is the per-connection state of one connected user.
// ConnID is assigned by the transport and never leaves the server.
type Session struct {
	ConnID   string `json:"-"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	RoomID   string `json:"room"` // empty when the session is not in a room
	Cursor   Cursor `json:"cursor_position"`
	Color    string `json:"color"`
}

// InRoom reports whether the session currently belongs to a room.
func (s Session) InRoom() bool { return s.RoomID != "" }

// DefaultUsername derives the display name used until the client picks one.
func DefaultUsername(userID string) string {
	if len(userID) > 8 {
		userID = userID[:8]
	}
	return "User_" + userID
}
