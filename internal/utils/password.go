package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and verifies opaque password digests. Services
// depend on the interface so tests can swap in a cheap implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(digest, password string) error
}

type bcryptHasher struct {
	cost int
}

func NewBcryptHasher() PasswordHasher {
	return &bcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

func (h *bcryptHasher) Compare(digest, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
}
