package movieverse

import (
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// HashPassword will generate a salted password hash. Hashing the same
// plaintext twice yields different digests.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password
// against the hashed password in constant time. A malformed hash is
// reported as a mismatch, never surfaced with digest internals.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}
