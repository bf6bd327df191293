package domain

import "time"

// DefaultRoomID is the public room clients land in when they do not name one.
const DefaultRoomID = "default"

// RoomInfo is a point-in-time summary of a room, safe to hand to callers.
type RoomInfo struct {
	ID         string    `json:"room_id"`
	Name       string    `json:"room_name"`
	IsPrivate  bool      `json:"is_private"`
	UserCount  int       `json:"user_count"`
	LastActive time.Time `json:"-"`
}

// PrivateRoomPolicy is the access policy of a password-protected room.
// It is created once and never mutated.
type PrivateRoomPolicy struct {
	RoomID       string
	Name         string
	PasswordHash string
	MaxUsers     int
	CreatedAt    time.Time
	CreatorID    string
}
