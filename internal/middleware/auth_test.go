package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop-auth/internal/model"
)

type stubVerifier struct {
	userID string
	err    error
}

func (v stubVerifier) Verify(string, string) (string, error) {
	return v.userID, v.err
}

type stubLoader struct {
	user model.User
	err  error
}

func (l stubLoader) GetByID(context.Context, string) (model.User, error) {
	return l.user, l.err
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.Response {
	t.Helper()

	var resp model.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRequireAuthMissingHeader(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{userID: "u-1"}, stubLoader{})

	handler := m.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	for _, header := range []string{"", "Token abc", "bearer abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "You are not authenticated!", resp.Msg)
	}
}

func TestRequireAuthBadToken(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{err: model.ErrTokenExpired}, stubLoader{})

	handler := m.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid Authorization", decodeEnvelope(t, rec).Msg)
}

func TestRequireAuthUnknownIdentity(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{userID: "u-gone"}, stubLoader{err: errors.New("no row")})

	handler := m.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for a deleted identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer valid-but-orphaned")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid Authorization", decodeEnvelope(t, rec).Msg)
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	wanted := model.User{ID: "u-1", Username: "jane", Role: model.RoleUser}
	m := NewAuthMiddleware(stubVerifier{userID: "u-1"}, stubLoader{user: wanted})

	var seen *model.User
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, wanted.ID, seen.ID)
	assert.Equal(t, wanted.Role, seen.Role)
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{userID: "u-1"}, stubLoader{user: model.User{ID: "u-1", Role: model.RoleUser}})

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := m.RequireAuth(m.RequireRole(model.RoleAdmin)(next))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	chain.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You are not authorized to access this resource!", decodeEnvelope(t, rec).Msg)

	// The same chain passes for an actual admin.
	admin := NewAuthMiddleware(stubVerifier{userID: "u-2"}, stubLoader{user: model.User{ID: "u-2", Role: model.RoleAdmin}})
	chain = admin.RequireAuth(admin.RequireRole(model.RoleAdmin)(next))

	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec = httptest.NewRecorder()

	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{}, stubLoader{})

	handler := m.RequireRole(model.RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without an identity in context")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "You are not authenticated!", decodeEnvelope(t, rec).Msg)
}
