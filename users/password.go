package users

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration and login
const MinPasswordLength = 6

// PasswordHasher turns plaintext into a salted one-way hash and checks
// plaintext against it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never errors: a malformed hash is a mismatch.
	Verify(plaintext, hashed string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. The salt and cost are
// embedded in the hash itself.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher validates cost against bcrypt's accepted range so a bad
// setting fails at startup rather than on the first login.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(bytes), nil
}

func (h *BcryptHasher) Verify(plaintext, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext))
	return err == nil
}
