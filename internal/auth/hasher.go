// Package auth provides the cryptographic primitives behind accounts:
// salted password derivation and session token generation.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing them invalidates every stored hash.
const (
	DefaultIterations = 210_000 // HMAC-SHA512 rounds
	KeyLength         = 64      // derived key length in bytes
	SaltLength        = 16      // random salt length in bytes, before hex encoding
)

// Hasher derives password hashes with PBKDF2-HMAC-SHA512.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher running the given number of iterations.
// A non-positive count falls back to DefaultIterations.
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash returns the hex-encoded derived key of password under salt.
// The same inputs always produce the same output.
func (h *Hasher) Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, KeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// Verify re-derives the hash of password under salt and compares it
// byte for byte, in constant time, against the stored hash.
func (h *Hasher) Verify(password, salt, hash string) bool {
	candidate := h.Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}

// NewSalt returns SaltLength random bytes, hex-encoded.
func NewSalt() (string, error) {
	buf := make([]byte, SaltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
