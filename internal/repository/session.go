package repository

import "github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"

// SessionRepository owns the Session of every live connection, keyed by connection id.
// Returned sessions are copies; mutate through the Set* methods.
type SessionRepository interface {
	// Register allocates a fresh session for connID. Returns ErrDuplicateSession if connID is taken.
	Register(connID string) (domain.Session, error)

	Lookup(connID string) (domain.Session, bool)

	// Unregister removes and returns the session. Callers clean up room membership first.
	Unregister(connID string) (domain.Session, bool)

	SetRoom(connID, roomID string) error
	SetName(connID, username string) error
	SetCursor(connID string, cursor domain.Cursor) error
	SetColor(connID, color string) error

	Count() int
}
