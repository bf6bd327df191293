package repository

import (
	"time"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
)

// FanoutFunc receives the member connection ids of a room, in join order.
// It runs while the room is locked, so it must not block or call back into the store.
type FanoutFunc func(members []string)

// RoomRepository holds every active room: its replay log, member set and privacy metadata.
type RoomRepository interface {
	// Ensure returns the existing room or creates an empty one.
	Ensure(roomID, name string, isPrivate bool) domain.RoomInfo

	Get(roomID string) (domain.RoomInfo, bool)

	// AddMember puts connID in the member set. Returns ErrRoomNotFound if the room is absent.
	AddMember(roomID, connID string) error

	// RemoveMember drops connID and returns the remaining member count. Empty rooms are kept.
	RemoveMember(roomID, connID string) (int, bool)

	// AppendEvent appends ev to the log and, in the same critical section, hands the members to fn.
	// It is a no-op returning false when the room is absent.
	AppendEvent(roomID string, ev domain.DrawEvent, fn FanoutFunc) bool

	// ClearLog empties the log and hands the members to fn in the same critical section.
	ClearLog(roomID string, fn FanoutFunc) bool

	// Fanout hands the members to fn under the room lock without touching the log.
	Fanout(roomID string, fn FanoutFunc) bool

	// Snapshot returns a copy of the replay log in insertion order.
	Snapshot(roomID string) ([]domain.DrawEvent, bool)

	// Members returns a copy of the member connection ids in join order. The engine reads
	// members through FanoutFunc; this is for inspection and tests.
	Members(roomID string) []string
	MemberCount(roomID string) int

	// Delete removes an empty room. Returns false if the room is absent or still has members.
	Delete(roomID string) bool

	// Idle lists empty rooms whose last activity is before cutoff.
	Idle(cutoff time.Time) []domain.RoomInfo

	Count() int
}
