package service

import "errors"

// Benign conditions: the connection raced a disconnect or a leave. Callers drop these silently.
var (
	ErrNoSession = errors.New("no session for connection")
	ErrNotInRoom = errors.New("session is not in a room")
)

// Rejections reported back to the requesting client.
var (
	ErrNameAndPasswordRequired = errors.New("room name and password are required")
	ErrRoomNameTooShort        = errors.New("room name too short")
	ErrPasswordTooShort        = errors.New("password too short")
	ErrInvalidMaxUsers         = errors.New("max users must be positive")
	ErrPasswordRequired        = errors.New("password required for private room")
	ErrIncorrectPassword       = errors.New("incorrect password")
	ErrRoomFull                = errors.New("room is full")
	ErrRoomClosed              = errors.New("room no longer available")
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrInternalServer = errors.New("internal server error")
)

var clientMessages = map[error]string{
	ErrNameAndPasswordRequired: "Room name and password are required",
	ErrRoomNameTooShort:        "Room name must be at least 3 characters",
	ErrPasswordTooShort:        "Password must be at least 4 characters",
	ErrInvalidMaxUsers:         "Max users must be at least 1",
	ErrPasswordRequired:        "Password required for private room",
	ErrIncorrectPassword:       "Incorrect password",
	ErrRoomFull:                "Room is full",
	ErrRoomClosed:              "Room is no longer available",
}

// ClientMessage returns the text shown to the client for err.
// Errors without a dedicated text map to a generic server error.
func ClientMessage(err error) string {
	for sentinel, msg := range clientMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return "Internal server error"
}

// IsBenign reports whether err only marks a dropped request from a gone or roomless connection.
func IsBenign(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrNotInRoom)
}
