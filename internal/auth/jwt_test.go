package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := testJWTConfig()

	token, err := GenerateToken(cfg, "alice")
	require.NoError(t, err)

	claims, err := ValidateToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "test", claims.Issuer)
	assert.Contains(t, claims.Audience, "test")
}

func TestValidateToken_Rejects(t *testing.T) {
	cfg := testJWTConfig()

	expired := *cfg
	expired.TTL = -time.Minute
	expiredToken, err := GenerateToken(&expired, "alice")
	require.NoError(t, err)

	otherSecret := *cfg
	otherSecret.Secret = []byte("another-secret")
	forged, err := GenerateToken(&otherSecret, "alice")
	require.NoError(t, err)

	otherIssuer := *cfg
	otherIssuer.Issuer = "elsewhere"
	foreign, err := GenerateToken(&otherIssuer, "alice")
	require.NoError(t, err)

	otherAudience := *cfg
	otherAudience.Audience = "mobile"
	misaddressed, err := GenerateToken(&otherAudience, "alice")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: "test"},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":        expiredToken,
		"wrong secret":   forged,
		"wrong issuer":   foreign,
		"wrong audience": misaddressed,
		"unsigned":       unsigned,
		"garbage":        "a.b.c",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(cfg, token)
			require.Error(t, err)
		})
	}
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	assert.Equal(t, bcrypt.MinCost, h.Cost())

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := h.Verify(hash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "password124")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("not-a-hash", "password123")
	require.Error(t, err)

	assert.Equal(t, DefaultBcryptCost, NewHasher(0).Cost())
	assert.Equal(t, DefaultBcryptCost, NewHasher(99).Cost())
}
