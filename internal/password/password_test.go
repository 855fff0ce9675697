package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	g := NewGuard("")

	stored, err := g.Hash("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", stored)

	ok, upgrade := g.Verify(stored, "secret1")
	assert.True(t, ok)
	assert.False(t, upgrade)

	ok, _ = g.Verify(stored, "secret1x")
	assert.False(t, ok)
}

func TestVerifyLegacyCipher(t *testing.T) {
	g := NewGuard("server-side-key")

	stored, err := g.EncryptLegacy("hunter22")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored, legacyPrefix))

	ok, upgrade := g.Verify(stored, "hunter22")
	assert.True(t, ok)
	assert.True(t, upgrade, "legacy match should request a re-hash")

	ok, upgrade = g.Verify(stored, "wrong")
	assert.False(t, ok)
	assert.False(t, upgrade)
}

func TestVerifyLegacyWithoutKey(t *testing.T) {
	withKey := NewGuard("server-side-key")
	stored, err := withKey.EncryptLegacy("hunter22")
	require.NoError(t, err)

	noKey := NewGuard("")
	ok, upgrade := noKey.Verify(stored, "hunter22")
	assert.False(t, ok)
	assert.False(t, upgrade)
}

func TestVerifyLegacyGarbage(t *testing.T) {
	g := NewGuard("server-side-key")

	ok, _ := g.Verify("aes:!!not-base64!!", "anything")
	assert.False(t, ok)

	ok, _ = g.Verify("aes:AAAA", "anything")
	assert.False(t, ok)
}

func TestEncryptLegacyWithoutKey(t *testing.T) {
	g := NewGuard("")
	_, err := g.EncryptLegacy("x")
	assert.ErrorIs(t, err, ErrNoLegacyKey)
}
