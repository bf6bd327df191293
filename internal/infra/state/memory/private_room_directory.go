package memstate

import (
	"fmt"
	"sync"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/credentials"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/repository"
)

// PrivateRoomDirectory is the in-memory PrivateRoomRepository.
type PrivateRoomDirectory struct {
	mu       sync.RWMutex
	policies map[string]domain.PrivateRoomPolicy
	hasher   credentials.Hasher
}

func NewPrivateRoomDirectory(hasher credentials.Hasher) *PrivateRoomDirectory {
	if hasher == nil {
		panic("hasher cannot be nil for PrivateRoomDirectory")
	}
	return &PrivateRoomDirectory{
		policies: make(map[string]domain.PrivateRoomPolicy),
		hasher:   hasher,
	}
}

func (d *PrivateRoomDirectory) Create(policy domain.PrivateRoomPolicy) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.policies[policy.RoomID]; ok {
		return fmt.Errorf("memstate: create private room %s: %w", policy.RoomID, repository.ErrDuplicateRoom)
	}
	d.policies[policy.RoomID] = policy
	return nil
}

func (d *PrivateRoomDirectory) Get(roomID string) (domain.PrivateRoomPolicy, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.policies[roomID]
	return p, ok
}

func (d *PrivateRoomDirectory) Exists(roomID string) bool {
	_, ok := d.Get(roomID)
	return ok
}

// Authenticate compares outside the directory lock; policies are immutable once stored.
func (d *PrivateRoomDirectory) Authenticate(roomID, password string) bool {
	p, ok := d.Get(roomID)
	if !ok {
		return false
	}
	return d.hasher.Matches(password, p.PasswordHash)
}

func (d *PrivateRoomDirectory) Capacity(roomID string) (int, bool) {
	p, ok := d.Get(roomID)
	if !ok {
		return 0, false
	}
	return p.MaxUsers, true
}

func (d *PrivateRoomDirectory) Delete(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.policies[roomID]; !ok {
		return false
	}
	delete(d.policies, roomID)
	return true
}

func (d *PrivateRoomDirectory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.policies)
}
