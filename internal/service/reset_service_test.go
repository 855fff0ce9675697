package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop-auth/internal/model"
	"go-shop-auth/internal/password"
)

const testBaseURL = "https://shop.test"

func newTestResetService(t *testing.T) (*ResetService, *AccountService, *memStore, *fakeNotifier) {
	t.Helper()

	store := newMemStore()
	guard := password.NewGuard("")
	mailer := &fakeNotifier{}

	accounts := NewAccountService(store, guard, &fakeMedia{})
	resets := NewResetService(store, guard, mailer, testBaseURL, 5*time.Minute)
	return resets, accounts, store, mailer
}

// secretFromMail pulls the raw reset secret back out of the emailed URL.
func secretFromMail(t *testing.T, mail sentMail) string {
	t.Helper()

	prefix := testBaseURL + "/api/password/reset/"
	for _, line := range strings.Split(mail.Body, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix)
		}
	}
	t.Fatalf("no reset URL in mail body: %q", mail.Body)
	return ""
}

func TestRequestResetUnknownEmail(t *testing.T) {
	resets, _, _, mailer := newTestResetService(t)

	_, err := resets.RequestReset(context.Background(), "nobody@example.com")
	requireAPIMessage(t, err, "User doesn't exists.")
	assert.Empty(t, mailer.sent)
}

func TestResetFlow(t *testing.T) {
	resets, accounts, _, mailer := newTestResetService(t)
	ctx := context.Background()

	registerTestUser(t, accounts, "jane@example.com", "hunter22")

	email, err := resets.RequestReset(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", email)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Password Recovery.", mailer.sent[0].Subject)
	secret := secretFromMail(t, mailer.sent[0])
	require.Len(t, secret, 40, "20 random bytes, hex encoded")

	_, err = resets.CompleteReset(ctx, secret, "newpassword", "different")
	requireAPIMessage(t, err, "Passwords do not match.")

	_, err = resets.CompleteReset(ctx, secret, "tiny", "tiny")
	requireAPIMessage(t, err, "Your password must be at least 6 characters long.")

	user, err := resets.CompleteReset(ctx, secret, "newpassword", "newpassword")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordCipher)

	_, err = accounts.Login(ctx, "jane@example.com", "newpassword")
	require.NoError(t, err)
}

func TestResetSecretIsSingleUse(t *testing.T) {
	resets, accounts, _, mailer := newTestResetService(t)
	ctx := context.Background()

	registerTestUser(t, accounts, "jane@example.com", "hunter22")

	_, err := resets.RequestReset(ctx, "jane@example.com")
	require.NoError(t, err)
	secret := secretFromMail(t, mailer.sent[0])

	_, err = resets.CompleteReset(ctx, secret, "newpassword", "newpassword")
	require.NoError(t, err)

	_, err = resets.CompleteReset(ctx, secret, "otherpassword", "otherpassword")
	requireAPIMessage(t, err, "Password reset token is invalid\nor has been expired.")
}

func TestResetSecretExpires(t *testing.T) {
	resets, accounts, _, mailer := newTestResetService(t)
	ctx := context.Background()

	registerTestUser(t, accounts, "jane@example.com", "hunter22")

	base := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	resets.now = func() time.Time { return base }

	_, err := resets.RequestReset(ctx, "jane@example.com")
	require.NoError(t, err)
	secret := secretFromMail(t, mailer.sent[0])

	// Past the five-minute window the secret is dead.
	resets.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }
	_, err = resets.CompleteReset(ctx, secret, "newpassword", "newpassword")
	requireAPIMessage(t, err, "Password reset token is invalid\nor has been expired.")

	// A fresh request issues a new secret that works inside its own window.
	resets.now = func() time.Time { return base.Add(4 * time.Minute) }
	_, err = resets.RequestReset(ctx, "jane@example.com")
	require.NoError(t, err)
	secret = secretFromMail(t, mailer.sent[1])

	_, err = resets.CompleteReset(ctx, secret, "newpassword", "newpassword")
	require.NoError(t, err)
}

func TestRequestResetRollsBackOnDispatchFailure(t *testing.T) {
	resets, accounts, store, mailer := newTestResetService(t)
	ctx := context.Background()

	user := registerTestUser(t, accounts, "jane@example.com", "hunter22")

	mailer.failSend = true
	_, err := resets.RequestReset(ctx, "jane@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrUserNotFound)

	stored, err := store.FindByIDWithSecret(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetTokenHash, "failed dispatch must not leave an armed token")
	assert.Nil(t, stored.ResetTokenExp)
}
