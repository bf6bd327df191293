package memstate

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/repository"
)

// SessionRegistry is the in-memory SessionRepository.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	newID    func() string
}

// NewSessionRegistry creates an empty registry that mints user ids with uuid.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*domain.Session),
		newID:    func() string { return uuid.New().String() },
	}
}

func (r *SessionRegistry) Register(connID string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[connID]; ok {
		return domain.Session{}, fmt.Errorf("memstate: register connection %s: %w", connID, repository.ErrDuplicateSession)
	}
	userID := r.newID()
	s := &domain.Session{
		ConnID:   connID,
		UserID:   userID,
		Username: domain.DefaultUsername(userID),
		Color:    domain.DefaultColor,
	}
	r.sessions[connID] = s
	return *s, nil
}

func (r *SessionRegistry) Lookup(connID string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	if !ok {
		return domain.Session{}, false
	}
	return *s, true
}

func (r *SessionRegistry) Unregister(connID string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, connID)
	return *s, true
}

func (r *SessionRegistry) SetRoom(connID, roomID string) error {
	return r.update(connID, func(s *domain.Session) { s.RoomID = roomID })
}

func (r *SessionRegistry) SetName(connID, username string) error {
	return r.update(connID, func(s *domain.Session) { s.Username = username })
}

func (r *SessionRegistry) SetCursor(connID string, cursor domain.Cursor) error {
	return r.update(connID, func(s *domain.Session) { s.Cursor = cursor })
}

func (r *SessionRegistry) SetColor(connID, color string) error {
	return r.update(connID, func(s *domain.Session) { s.Color = color })
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) update(connID string, fn func(*domain.Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return fmt.Errorf("memstate: session %s: %w", connID, repository.ErrSessionNotFound)
	}
	fn(s)
	return nil
}
