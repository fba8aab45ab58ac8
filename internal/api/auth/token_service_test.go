package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsShape(t *testing.T) {
	secret := []byte("test-secret")
	claims := &Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "scholarfeed",
			Subject:   "u-1",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	t.Run("round trip preserves the user id", func(t *testing.T) {
		parsed, err := jwt.ParseWithClaims(signed, &Claims{}, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		require.NoError(t, err)
		got, ok := parsed.Claims.(*Claims)
		require.True(t, ok)
		assert.Equal(t, "u-1", got.UserID)
		assert.Equal(t, "scholarfeed", got.Issuer)
	})

	t.Run("payload carries only the claims we set", func(t *testing.T) {
		parts := strings.Split(signed, ".")
		require.Len(t, parts, 3)
		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(payload, &fields))
		assert.ElementsMatch(t,
			[]string{"user_id", "exp", "iat", "iss", "sub"},
			keysOf(fields))
	})
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestHashToken(t *testing.T) {
	a := hashToken("token-a")
	assert.Equal(t, a, hashToken("token-a"))
	assert.NotEqual(t, a, hashToken("token-b"))
	assert.Len(t, a, 64)
}
