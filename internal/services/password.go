package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher derives storable hashes from login secrets and checks
// candidates against them. A failed match is not an error: Verify
// returns false with a nil error for a wrong password and reserves its
// error return for hashes that cannot be parsed at all.
type PasswordHasher interface {
	Hash(contrasena string) (string, error)
	Verify(contrasena, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher with bcrypt. The zero cost
// value selects the library default.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(contrasena string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(contrasena), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(contrasena, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(contrasena))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}
