package users

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap enough for unit tests
var testArgon = ArgonParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashAndMatch(t *testing.T) {
	hash, err := testArgon.hash("Password123!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "argon2id$m=1024,t=1,p=1$"))

	ok, err := matches("Password123!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches("password123!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltsDiffer(t *testing.T) {
	a, err := testArgon.hash("same")
	require.NoError(t, err)
	b, err := testArgon.hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMatch_UsesStoredCost(t *testing.T) {
	other := ArgonParams{Memory: 2048, Time: 2, Parallelism: 2, SaltLen: 8, KeyLen: 16}
	hash, err := other.hash("pw")
	require.NoError(t, err)

	d, err := parseDigest(hash)
	require.NoError(t, err)
	assert.Equal(t, uint32(2048), d.memory)
	assert.Len(t, d.salt, 8)
	assert.Len(t, d.key, 16)
	assert.Equal(t, hash, d.String())

	ok, err := matches("pw", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch_RejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"invalid-hash-format",
		"argon2id$m=1,t=1$abc$def",
		"argon2id$m=x,t=1,p=1$abc$def",
		"argon2id$m=1024,t=1,p=1$!!!$def",
		"argon2id$m=1024,t=1,p=1$c2FsdA$",
		"argon2id$m=1024,t=1,p=0$c2FsdA$a2V5",
		"argon2id$m=0,t=1,p=1$c2FsdA$a2V5",
	} {
		ok, err := matches("pw", encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
		assert.False(t, ok)
	}
}
