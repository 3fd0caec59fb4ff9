package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash_And_CompareHash(t *testing.T) {
	hash, err := GetHash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, CompareHash(hash, "correct horse battery staple"))
	assert.Error(t, CompareHash(hash, "wrong password"))
}

func TestGetHash_Idempotent(t *testing.T) {
	hash, err := GetHash("secret-password")
	require.NoError(t, err)

	// повторное хеширование не меняет уже сохранённый хэш
	again, err := GetHash(hash)
	require.NoError(t, err)
	assert.Equal(t, hash, again)
	assert.NoError(t, CompareHash(again, "secret-password"))
}

func TestIsHashed(t *testing.T) {
	hash, err := GetHash("some-password")
	require.NoError(t, err)

	assert.True(t, IsHashed(hash))
	assert.False(t, IsHashed("some-password"))
	assert.False(t, IsHashed(""))
}
