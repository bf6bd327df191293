package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/credentials"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/repository"
)

const (
	privateRoomPrefix     = "private_"
	privateRoomTokenBytes = 8
	maxRoomIDAttempts     = 10
)

// Transport delivers frames to live connections. Both methods are fire-and-forget
// and must not block; the service calls them while holding room locks.
type Transport interface {
	Send(connID string, frame domain.Frame)
	Multicast(connIDs []string, frame domain.Frame)
}

// Config tunes the service. Zero TTLs disable eviction for that kind of room.
type Config struct {
	DefaultMaxUsers    int
	RoomIdleTTL        time.Duration
	PrivateRoomIdleTTL time.Duration
}

// WhiteboardService is the session engine: it owns the lifecycle of every connection's
// session and room membership and drives fan-out through the Transport.
//
// mu is taken exclusively by operations that change membership (connect, disconnect,
// create, join, eviction) and shared by in-room traffic. Ordering inside a room comes
// from the room lock the store holds while the fan-out callback runs.
type WhiteboardService struct {
	mu sync.RWMutex

	sessions     repository.SessionRepository
	rooms        repository.RoomRepository
	privateRooms repository.PrivateRoomRepository
	hasher       credentials.Hasher
	transport    Transport
	cfg          Config

	now       func() time.Time
	newRoomID func() (string, error)
}

// NewWhiteboardService wires the engine and makes sure the default public room exists.
func NewWhiteboardService(
	sessions repository.SessionRepository,
	rooms repository.RoomRepository,
	privateRooms repository.PrivateRoomRepository,
	hasher credentials.Hasher,
	transport Transport,
	cfg Config,
) *WhiteboardService {
	if sessions == nil || rooms == nil || privateRooms == nil {
		panic("all repositories must be non-nil for WhiteboardService")
	}
	if hasher == nil {
		panic("hasher cannot be nil for WhiteboardService")
	}
	if transport == nil {
		panic("transport cannot be nil for WhiteboardService")
	}
	if cfg.DefaultMaxUsers <= 0 {
		cfg.DefaultMaxUsers = 10
	}
	rooms.Ensure(domain.DefaultRoomID, domain.DefaultRoomID, false)
	return &WhiteboardService{
		sessions:     sessions,
		rooms:        rooms,
		privateRooms: privateRooms,
		hasher:       hasher,
		transport:    transport,
		cfg:          cfg,
		now:          time.Now,
		newRoomID:    newPrivateRoomID,
	}
}

func newPrivateRoomID() (string, error) {
	b := make([]byte, privateRoomTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate room id: %w", err)
	}
	return privateRoomPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// roomSession resolves the session of connID and requires it to be in a room.
func (s *WhiteboardService) roomSession(connID string) (domain.Session, error) {
	sess, ok := s.sessions.Lookup(connID)
	if !ok {
		return domain.Session{}, ErrNoSession
	}
	if !sess.InRoom() {
		return sess, ErrNotInRoom
	}
	return sess, nil
}

// usersOf resolves member connection ids to their sessions, skipping any that vanished.
func (s *WhiteboardService) usersOf(members []string) []domain.Session {
	users := make([]domain.Session, 0, len(members))
	for _, id := range members {
		if sess, ok := s.sessions.Lookup(id); ok {
			users = append(users, sess)
		}
	}
	return users
}

func (s *WhiteboardService) reject(connID, event string, err error) {
	s.transport.Send(connID, domain.Frame{Event: event, Data: domain.ErrorPayload{Message: ClientMessage(err)}})
}

func without(members []string, connID string) []string {
	out := make([]string, 0, len(members))
	for _, id := range members {
		if id != connID {
			out = append(out, id)
		}
	}
	return out
}
