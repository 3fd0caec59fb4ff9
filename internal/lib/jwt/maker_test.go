package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)

	token, err := maker.GenerateToken("c0a80101-0000-4000-8000-000000000001", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "c0a80101-0000-4000-8000-000000000001", claims.UserID())
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestMaker_ParseExpired(t *testing.T) {
	maker := NewMaker("test-secret", -time.Minute)

	token, err := maker.GenerateToken("uid", "user@example.com")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_ParseWrongKey(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)
	other := NewMaker("other-secret", time.Minute)

	token, err := maker.GenerateToken("uid", "user@example.com")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_ParseGarbage(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)

	_, err := maker.ParseToken("not-a-token")
	assert.Error(t, err)
}
