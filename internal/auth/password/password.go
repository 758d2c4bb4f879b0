// Package password derives and verifies salted secret hashes.
//
// Hashes use PBKDF2-HMAC-SHA256 with a per-account random salt. Both salt and
// derived key are stored hex-encoded next to the account.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinIterations is the lowest accepted PBKDF2 work factor.
	MinIterations = 100_000
	// SaltBytes is the salt length (128 bits).
	SaltBytes = 16
	keyBytes  = 32
)

// Hasher derives secret hashes with a fixed work factor.
type Hasher struct {
	iterations int
}

// NewHasher returns a Hasher using iterations, clamped to MinIterations.
func NewHasher(iterations int) *Hasher {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	return &Hasher{iterations: iterations}
}

// Default returns a Hasher at the minimum work factor.
func Default() *Hasher {
	return NewHasher(MinIterations)
}

// Iterations reports the configured work factor.
func (h *Hasher) Iterations() int { return h.iterations }

// GenerateSalt returns a fresh random salt, hex-encoded.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret derives the hex-encoded hash of secret under salt.
func (h *Hasher) HashSecret(secret, salt string) string {
	key := pbkdf2.Key([]byte(secret), []byte(salt), h.iterations, keyBytes, sha256.New)
	return hex.EncodeToString(key)
}

// VerifySecret recomputes the hash and compares in constant time. A malformed
// expected hash simply fails to match.
func (h *Hasher) VerifySecret(secret, salt, expected string) bool {
	want, err := hex.DecodeString(expected)
	if err != nil || len(want) != keyBytes {
		return false
	}
	got := pbkdf2.Key([]byte(secret), []byte(salt), h.iterations, keyBytes, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
