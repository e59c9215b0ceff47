package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. Changing these invalidates stored digests, so they are
// fixed; a parameter change would need a digest re-derivation on next login.
const (
	saltLen     = 16
	argonTime   = 1
	argonMemory = 64 * 1024
	argonLanes  = 4
	digestLen   = 32
)

// NewSalt returns a fresh random salt for password hashing.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives the stored digest for a plaintext password and salt.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonLanes, digestLen)
}

// VerifyPassword recomputes the digest for the submitted password and compares
// it to the stored one in constant time.
func VerifyPassword(password string, salt, digest []byte) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, digest) == 1
}
