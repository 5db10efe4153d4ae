package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHash_StableAndDistinct(t *testing.T) {
	tok, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Equal(t, Hash(tok), Hash(tok))
	assert.NotEqual(t, tok, Hash(tok))
	assert.Len(t, Hash(tok), 64)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
}
