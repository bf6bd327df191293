package repository

import "github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"

// PrivateRoomRepository maps room ids to the access policy of password-protected rooms.
type PrivateRoomRepository interface {
	// Create stores policy under policy.RoomID. Returns ErrDuplicateRoom if the id is taken.
	Create(policy domain.PrivateRoomPolicy) error

	Get(roomID string) (domain.PrivateRoomPolicy, bool)
	Exists(roomID string) bool

	// Authenticate checks password against the stored digest. Unknown rooms never authenticate.
	Authenticate(roomID, password string) bool

	Capacity(roomID string) (int, bool)
	Delete(roomID string) bool
	Count() int
}
