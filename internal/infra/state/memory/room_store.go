package memstate

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/repository"
)

type room struct {
	mu         sync.Mutex
	id         string
	name       string
	isPrivate  bool
	events     []domain.DrawEvent
	members    map[string]uint64 // conn id -> join sequence
	seq        uint64
	lastActive time.Time
}

// memberIDs returns the member set in join order. Caller holds r.mu.
func (r *room) memberIDs() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return r.members[ids[i]] < r.members[ids[j]] })
	return ids
}

// info summarizes the room. Caller holds r.mu.
func (r *room) info() domain.RoomInfo {
	return domain.RoomInfo{
		ID:         r.id,
		Name:       r.name,
		IsPrivate:  r.isPrivate,
		UserCount:  len(r.members),
		LastActive: r.lastActive,
	}
}

// RoomStore is the in-memory RoomRepository. The map lock guards room lookup;
// each room has its own lock so rooms never contend with each other.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*room
	now   func() time.Time
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

func (s *RoomStore) get(roomID string) *room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

func (s *RoomStore) Ensure(roomID, name string, isPrivate bool) domain.RoomInfo {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		if name == "" {
			name = roomID
		}
		r = &room{
			id:         roomID,
			name:       name,
			isPrivate:  isPrivate,
			events:     []domain.DrawEvent{},
			members:    make(map[string]uint64),
			lastActive: s.now(),
		}
		s.rooms[roomID] = r
	}
	s.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info()
}

func (s *RoomStore) Get(roomID string) (domain.RoomInfo, bool) {
	r := s.get(roomID)
	if r == nil {
		return domain.RoomInfo{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info(), true
}

func (s *RoomStore) AddMember(roomID, connID string) error {
	r := s.get(roomID)
	if r == nil {
		return fmt.Errorf("memstate: add member to room %s: %w", roomID, repository.ErrRoomNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[connID]; !ok {
		r.seq++
		r.members[connID] = r.seq
	}
	r.lastActive = s.now()
	return nil
}

func (s *RoomStore) RemoveMember(roomID, connID string) (int, bool) {
	r := s.get(roomID)
	if r == nil {
		return 0, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[connID]
	delete(r.members, connID)
	r.lastActive = s.now()
	return len(r.members), ok
}

func (s *RoomStore) AppendEvent(roomID string, ev domain.DrawEvent, fn repository.FanoutFunc) bool {
	r := s.get(roomID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.lastActive = s.now()
	if fn != nil {
		fn(r.memberIDs())
	}
	return true
}

func (s *RoomStore) ClearLog(roomID string, fn repository.FanoutFunc) bool {
	r := s.get(roomID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = []domain.DrawEvent{}
	r.lastActive = s.now()
	if fn != nil {
		fn(r.memberIDs())
	}
	return true
}

func (s *RoomStore) Fanout(roomID string, fn repository.FanoutFunc) bool {
	r := s.get(roomID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn != nil {
		fn(r.memberIDs())
	}
	return true
}

func (s *RoomStore) Snapshot(roomID string) ([]domain.DrawEvent, bool) {
	r := s.get(roomID)
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DrawEvent, len(r.events))
	copy(out, r.events)
	return out, true
}

func (s *RoomStore) Members(roomID string) []string {
	r := s.get(roomID)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memberIDs()
}

func (s *RoomStore) MemberCount(roomID string) int {
	r := s.get(roomID)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (s *RoomStore) Delete(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

func (s *RoomStore) Idle(cutoff time.Time) []domain.RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var idle []domain.RoomInfo
	for _, r := range s.rooms {
		r.mu.Lock()
		if len(r.members) == 0 && r.lastActive.Before(cutoff) {
			idle = append(idle, r.info())
		}
		r.mu.Unlock()
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].ID < idle[j].ID })
	return idle
}

func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
