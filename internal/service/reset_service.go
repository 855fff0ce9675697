package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-shop-auth/internal/model"
	"go-shop-auth/internal/notifier"
	"go-shop-auth/internal/password"
	"go-shop-auth/pkg/apierror"
)

const resetSecretBytes = 20

// ResetService runs the time-boxed password-reset flow. The raw secret is
// embedded in the emailed URL and never stored; the database keeps only its
// SHA-256 digest plus the expiry timestamp.
type ResetService struct {
	users    UserStore
	guard    *password.Guard
	notifier notifier.Notifier
	baseURL  string
	ttl      time.Duration
	now      func() time.Time
}

func NewResetService(users UserStore, guard *password.Guard, n notifier.Notifier, baseURL string, ttl time.Duration) *ResetService {
	return &ResetService{
		users:    users,
		guard:    guard,
		notifier: n,
		baseURL:  baseURL,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestReset generates and stores a reset token for the account behind
// email and mails the reset URL. When dispatch fails the stored token is
// cleared again so no half-armed reset lingers. Returns the address the mail
// went to.
func (s *ResetService) RequestReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", apierror.New("NOT_FOUND", "User doesn't exists.", http.StatusNotFound)
	}
	if err != nil {
		return "", err
	}

	secret, err := newResetSecret()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.users.SetResetToken(ctx, user.ID, hashResetSecret(secret), expiresAt); err != nil {
		return "", err
	}

	resetURL := fmt.Sprintf("%s/api/password/reset/%s", s.baseURL, secret)
	body := fmt.Sprintf("Your reset password token is as follows;\n\n%s\n\nIf you have not requested this email ignore it.", resetURL)

	if err := s.notifier.Send(ctx, user.Email, "Password Recovery.", body); err != nil {
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			return "", fmt.Errorf("clear reset token after failed dispatch: %w", clearErr)
		}
		return "", fmt.Errorf("dispatch reset email: %w", err)
	}

	return user.Email, nil
}

// CompleteReset consumes a raw reset secret. The lookup requires both the
// digest match and an unexpired window; success clears the token so a second
// completion with the same secret always fails.
func (s *ResetService) CompleteReset(ctx context.Context, rawSecret string, newPassword string, confirmPassword string) (model.User, error) {
	user, err := s.users.FindByResetToken(ctx, hashResetSecret(rawSecret), s.now())
	if errors.Is(err, model.ErrResetTokenInvalid) {
		return model.User{}, apierror.New("BAD_REQUEST",
			"Password reset token is invalid\nor has been expired.", http.StatusBadRequest)
	}
	if err != nil {
		return model.User{}, err
	}

	if newPassword != confirmPassword {
		return model.User{}, apierror.New("BAD_REQUEST", "Passwords do not match.", http.StatusBadRequest)
	}
	if len(newPassword) < 6 {
		return model.User{}, apierror.New("BAD_REQUEST", "Your password must be at least 6 characters long.", http.StatusBadRequest)
	}

	cipher, err := s.guard.Hash(newPassword)
	if err != nil {
		return model.User{}, err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, cipher); err != nil {
		return model.User{}, err
	}
	if err := s.users.ClearResetToken(ctx, user.ID); err != nil {
		return model.User{}, err
	}

	return user.Sanitized(), nil
}

func newResetSecret() (string, error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
