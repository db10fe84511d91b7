// Package password provides the one-way adaptive password hash used by the
// engine. It is a thin wrapper around bcrypt at the library default cost and
// carries no state beyond the cost factor.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt operates on at most 72 bytes of input.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash when the plaintext exceeds bcrypt's
// input limit.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hasher hashes and verifies passwords.
type Hasher struct {
	cost int
}

// New returns a Hasher at bcrypt.DefaultCost.
func New() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// Hash derives a salted one-way hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) == 0 {
		return "", errors.New("empty password")
	}
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches hash. A corrupt or foreign hash
// verifies as false, never as an error: to the caller it is just a mismatch.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
