package memstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/credentials"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/repository"
)

func newPolicy(t *testing.T, h credentials.Hasher, id, password string, maxUsers int) domain.PrivateRoomPolicy {
	t.Helper()
	digest, err := h.Digest(password)
	require.NoError(t, err)
	return domain.PrivateRoomPolicy{
		RoomID:       id,
		Name:         "Team Sync",
		PasswordHash: digest,
		MaxUsers:     maxUsers,
		CreatedAt:    time.Now(),
		CreatorID:    "creator",
	}
}

func TestPrivateRoomDirectory_CreateAndLookup(t *testing.T) {
	h := credentials.NewBcryptHasher(bcrypt.MinCost)
	dir := NewPrivateRoomDirectory(h)

	require.NoError(t, dir.Create(newPolicy(t, h, "private_a", "abcd", 2)))

	assert.True(t, dir.Exists("private_a"))
	assert.False(t, dir.Exists("private_b"))

	capacity, ok := dir.Capacity("private_a")
	require.True(t, ok)
	assert.Equal(t, 2, capacity)

	_, ok = dir.Capacity("private_b")
	assert.False(t, ok)
	assert.Equal(t, 1, dir.Count())
}

func TestPrivateRoomDirectory_DuplicateRoom(t *testing.T) {
	h := credentials.NewBcryptHasher(bcrypt.MinCost)
	dir := NewPrivateRoomDirectory(h)

	require.NoError(t, dir.Create(newPolicy(t, h, "private_a", "abcd", 2)))
	err := dir.Create(newPolicy(t, h, "private_a", "wxyz", 5))
	assert.ErrorIs(t, err, repository.ErrDuplicateRoom)

	capacity, _ := dir.Capacity("private_a")
	assert.Equal(t, 2, capacity, "first policy wins")
}

func TestPrivateRoomDirectory_Authenticate(t *testing.T) {
	h := credentials.NewBcryptHasher(bcrypt.MinCost)
	dir := NewPrivateRoomDirectory(h)
	require.NoError(t, dir.Create(newPolicy(t, h, "private_a", "abcd", 2)))

	assert.True(t, dir.Authenticate("private_a", "abcd"))
	assert.False(t, dir.Authenticate("private_a", "abce"))
	assert.False(t, dir.Authenticate("private_a", ""))
	assert.False(t, dir.Authenticate("private_b", "abcd"))
}

func TestPrivateRoomDirectory_Delete(t *testing.T) {
	h := credentials.NewBcryptHasher(bcrypt.MinCost)
	dir := NewPrivateRoomDirectory(h)
	require.NoError(t, dir.Create(newPolicy(t, h, "private_a", "abcd", 2)))

	assert.True(t, dir.Delete("private_a"))
	assert.False(t, dir.Delete("private_a"))
	assert.False(t, dir.Exists("private_a"))
}

func TestNewPrivateRoomDirectory_NilHasherPanics(t *testing.T) {
	assert.Panics(t, func() { NewPrivateRoomDirectory(nil) })
}
