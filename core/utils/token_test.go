package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyxianren/mmyq/core/config"
)

func setTokenConfig(t *testing.T, secret string) {
	t.Helper()
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: secret, TTLHours: 2}})
	t.Cleanup(func() { config.Set(nil) })
}

func TestGenerateAndParseToken(t *testing.T) {
	setTokenConfig(t, "unit-secret")

	token, err := GenerateToken(42, RoleUser, "team-rocket")
	require.NoError(t, err)

	claims, err := ValidateAndParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.SubjectID)
	assert.Equal(t, RoleUser, claims.Role)
	assert.Equal(t, "team-rocket", claims.GroupName)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestTokensCarryUniqueJTI(t *testing.T) {
	setTokenConfig(t, "unit-secret")

	a, err := GenerateToken(1, RoleUser, "g")
	require.NoError(t, err)
	b, err := GenerateToken(1, RoleUser, "g")
	require.NoError(t, err)

	ca, err := ValidateAndParseToken(a)
	require.NoError(t, err)
	cb, err := ValidateAndParseToken(b)
	require.NoError(t, err)

	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	setTokenConfig(t, "secret-one")
	token, err := GenerateToken(1, RoleAdmin, "")
	require.NoError(t, err)

	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "secret-two", TTLHours: 2}})
	_, err = ValidateAndParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
}
