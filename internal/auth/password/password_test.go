package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifySecret(t *testing.T) {
	h := Default()
	salt, err := GenerateSalt()
	require.NoError(t, err)

	hash := h.HashSecret("senha123", salt)

	assert.True(t, h.VerifySecret("senha123", salt, hash))
	assert.False(t, h.VerifySecret("senha124", salt, hash))
	assert.False(t, h.VerifySecret("", salt, hash))
}

func TestHashSecret_DependsOnSalt(t *testing.T) {
	h := Default()
	saltA, err := GenerateSalt()
	require.NoError(t, err)
	saltB, err := GenerateSalt()
	require.NoError(t, err)

	require.NotEqual(t, saltA, saltB, "salts must not repeat")
	assert.Len(t, saltA, SaltBytes*2)
	assert.NotEqual(t, h.HashSecret("senha123", saltA), h.HashSecret("senha123", saltB))
	assert.Equal(t, h.HashSecret("senha123", saltA), h.HashSecret("senha123", saltA))
	assert.False(t, h.VerifySecret("senha123", saltB, h.HashSecret("senha123", saltA)))
}

func TestVerifySecret_MalformedHash(t *testing.T) {
	h := Default()
	assert.False(t, h.VerifySecret("senha123", "salt", "not-hex"))
	assert.False(t, h.VerifySecret("senha123", "salt", "abcd"))
}

func TestNewHasher_ClampsWorkFactor(t *testing.T) {
	assert.Equal(t, MinIterations, NewHasher(1000).Iterations())
	assert.Equal(t, 200_000, NewHasher(200_000).Iterations())
}
