package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("hunter2hunter2")
	assert.Len(t, fp, 64)
	assert.NotContains(t, fp, "hunter2")
	assert.Equal(t, fp, Fingerprint("hunter2hunter2"))
	assert.NotEqual(t, fp, Fingerprint("hunter2hunter3"))

	assert.True(t, FingerprintMatches("hunter2hunter2", fp))
	assert.False(t, FingerprintMatches("hunter2hunter3", fp))
}

func TestNewSessionTokensAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := NewSessionToken()
		require.NotEmpty(t, tok)
		require.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestNewRoomCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := NewRoomCode()
		require.NoError(t, err)
		require.Len(t, code, roomCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(crockford, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	// 100 draws from a ~1e9 space should not collide down to one value.
	assert.Greater(t, len(seen), 90)
}
