package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	t.Run("matching password verifies", func(t *testing.T) {
		ok, err := VerifyPassword("correct horse battery staple", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		ok, err := VerifyPassword("incorrect horse", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same password hashes differently per salt", func(t *testing.T) {
		other, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
	})

	t.Run("malformed hash is an error", func(t *testing.T) {
		_, err := VerifyPassword("anything", "$bcrypt$nope")
		assert.Error(t, err)
	})
}
