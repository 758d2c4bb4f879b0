package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("  Maria.Silva@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "Maria.Silva@example.com", got)

	for _, bad := range []string{"", "maria", "maria@", "@example.com", "Maria <maria@example.com>", "maria@localhost"} {
		_, err := Normalize(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}
