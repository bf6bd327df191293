package credentials

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptySecret is returned when asked to digest an empty secret.
var ErrEmptySecret = errors.New("credentials: empty secret")

// Hasher turns a shared room secret into an opaque one-way digest and checks secrets against it.
type Hasher interface {
	Digest(secret string) (string, error)
	Matches(secret, digest string) bool
}

// BcryptHasher is the default Hasher. Its comparison is constant time in the secret.
// Secrets are SHA-256 pre-hashed so bcrypt's 72-byte input limit does not cap their length.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt Hasher. Out-of-range costs fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Digest(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	b, err := bcrypt.GenerateFromPassword(prehash(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("credentials: failed to digest secret: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Matches(secret, digest string) bool {
	if secret == "" || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), prehash(secret)) == nil
}

// prehash maps any secret to 44 bytes of base64, which also keeps NUL bytes out of bcrypt's input.
func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
