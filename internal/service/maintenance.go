package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
)

// Stats is a point-in-time count of live state.
type Stats struct {
	Rooms        int `json:"rooms"`
	PrivateRooms int `json:"private_rooms"`
	Sessions     int `json:"sessions"`
}

// RoomDetails is the public view of a room. MaxUsers is only set for private rooms.
type RoomDetails struct {
	domain.RoomInfo
	MaxUsers *int `json:"max_users,omitempty"`
}

func (s *WhiteboardService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Rooms:        s.rooms.Count(),
		PrivateRooms: s.privateRooms.Count(),
		Sessions:     s.sessions.Count(),
	}
}

// RoomDetails returns the summary of roomID or ErrRoomNotFound.
func (s *WhiteboardService) RoomDetails(roomID string) (RoomDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.rooms.Get(roomID)
	if !ok {
		return RoomDetails{}, ErrRoomNotFound
	}
	details := RoomDetails{RoomInfo: info}
	if capacity, ok := s.privateRooms.Capacity(roomID); ok {
		details.MaxUsers = &capacity
	}
	return details, nil
}

// EvictIdleRooms deletes empty rooms idle for longer than their TTL and returns their ids.
// The default room is never evicted. A private room loses its policy together with the room.
func (s *WhiteboardService) EvictIdleRooms(now time.Time) []string {
	ttl := shortestTTL(s.cfg.RoomIdleTTL, s.cfg.PrivateRoomIdleTTL)
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for _, info := range s.rooms.Idle(now.Add(-ttl)) {
		if info.ID == domain.DefaultRoomID {
			continue
		}
		roomTTL := s.cfg.RoomIdleTTL
		if info.IsPrivate {
			roomTTL = s.cfg.PrivateRoomIdleTTL
		}
		if roomTTL <= 0 || info.LastActive.After(now.Add(-roomTTL)) {
			continue
		}
		if !s.rooms.Delete(info.ID) {
			continue
		}
		if info.IsPrivate {
			s.privateRooms.Delete(info.ID)
		}
		evicted = append(evicted, info.ID)
	}
	if len(evicted) > 0 {
		logrus.WithField("rooms", evicted).Info("Evicted idle rooms")
	}
	return evicted
}

func shortestTTL(a, b time.Duration) time.Duration {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
