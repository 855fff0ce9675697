package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-shop-auth/internal/model"
	"go-shop-auth/internal/service"
)

// stubAccounts satisfies the account interface with per-method hooks so each
// test only wires the calls it expects.
type stubAccounts struct {
	register       func(ctx context.Context, in service.RegisterInput) (model.User, error)
	login          func(ctx context.Context, email string, password string) (model.User, error)
	getByID        func(ctx context.Context, id string) (model.User, error)
	updatePassword func(ctx context.Context, id string, oldPlain string, newPlain string) (model.User, error)
	updateProfile  func(ctx context.Context, id string, in service.ProfileInput) (model.User, error)
	list           func(ctx context.Context) ([]model.User, error)
	adminUpdate    func(ctx context.Context, id string, username string, email string, role model.Role) (model.User, error)
	deleteUser     func(ctx context.Context, id string) error
}

func (s *stubAccounts) Register(ctx context.Context, in service.RegisterInput) (model.User, error) {
	return s.register(ctx, in)
}

func (s *stubAccounts) Login(ctx context.Context, email string, password string) (model.User, error) {
	return s.login(ctx, email, password)
}

func (s *stubAccounts) GetByID(ctx context.Context, id string) (model.User, error) {
	return s.getByID(ctx, id)
}

func (s *stubAccounts) UpdatePassword(ctx context.Context, id string, oldPlain string, newPlain string) (model.User, error) {
	return s.updatePassword(ctx, id, oldPlain, newPlain)
}

func (s *stubAccounts) UpdateProfile(ctx context.Context, id string, in service.ProfileInput) (model.User, error) {
	return s.updateProfile(ctx, id, in)
}

func (s *stubAccounts) List(ctx context.Context) ([]model.User, error) {
	return s.list(ctx)
}

func (s *stubAccounts) AdminUpdate(ctx context.Context, id string, username string, email string, role model.Role) (model.User, error) {
	return s.adminUpdate(ctx, id, username, email, role)
}

func (s *stubAccounts) Delete(ctx context.Context, id string) error {
	return s.deleteUser(ctx, id)
}

// stubTokens issues deterministic tokens and verifies by echoing a fixed id.
type stubTokens struct {
	verifyID  string
	verifyErr error
}

func (s *stubTokens) IssueAccessToken(userID string) (string, error) {
	return "access-" + userID, nil
}

func (s *stubTokens) IssueRefreshToken(userID string) (string, error) {
	return "refresh-" + userID, nil
}

func (s *stubTokens) Verify(string, string) (string, error) {
	return s.verifyID, s.verifyErr
}

func (s *stubTokens) RefreshTTL() time.Duration { return 72 * time.Hour }

type stubResets struct {
	request  func(ctx context.Context, email string) (string, error)
	complete func(ctx context.Context, rawSecret string, newPassword string, confirmPassword string) (model.User, error)
}

func (s *stubResets) RequestReset(ctx context.Context, email string) (string, error) {
	return s.request(ctx, email)
}

func (s *stubResets) CompleteReset(ctx context.Context, rawSecret string, newPassword string, confirmPassword string) (model.User, error) {
	return s.complete(ctx, rawSecret, newPassword, confirmPassword)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) model.Response {
	t.Helper()

	var resp model.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", name)
	return nil
}
