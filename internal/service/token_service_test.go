package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop-auth/internal/model"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 15*time.Minute, 72*time.Hour)

	access, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, access)

	refresh, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	sub, err := svc.Verify(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	sub, err = svc.Verify(refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokenServiceRejectsWrongKind(t *testing.T) {
	svc := NewTokenService("test-secret", 15*time.Minute, 72*time.Hour)

	refresh, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(refresh, TokenAccess)
	assert.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute, 72*time.Hour)

	token, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(token, TokenAccess)
	assert.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", 15*time.Minute, 72*time.Hour)
	verifier := NewTokenService("secret-b", 15*time.Minute, 72*time.Hour)

	token, err := issuer.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(token, TokenAccess)
	assert.ErrorIs(t, err, model.ErrTokenSignature)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", 15*time.Minute, 72*time.Hour)

	_, err := svc.Verify("not.a.token", TokenAccess)
	assert.ErrorIs(t, err, model.ErrTokenMalformed)

	_, err = svc.Verify("", TokenAccess)
	assert.ErrorIs(t, err, model.ErrTokenMissing)

	_, err = svc.Verify("   ", TokenAccess)
	assert.ErrorIs(t, err, model.ErrTokenMissing)
}
