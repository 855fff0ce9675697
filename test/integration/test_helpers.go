//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-shop-auth/internal/config"
	"go-shop-auth/internal/handler"
	"go-shop-auth/internal/media"
	"go-shop-auth/internal/middleware"
	"go-shop-auth/internal/model"
	"go-shop-auth/internal/password"
	"go-shop-auth/internal/router"
	"go-shop-auth/internal/service"
)

// The integration suite runs the whole stack over real HTTP: router,
// middleware chain and services as wired in production, with the database,
// media backend and mail transport replaced by in-memory fakes.

type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]model.User{}}
}

func (s *memUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrDuplicateEmail
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u.Sanitized(), nil
}

func (s *memUserStore) FindByIDWithSecret(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := s.FindByEmailWithSecret(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	return u.Sanitized(), nil
}

func (s *memUserStore) FindByEmailWithSecret(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) UpdatePassword(_ context.Context, id string, cipher string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordCipher = cipher
	s.users[id] = u
	return nil
}

func (s *memUserStore) SetResetToken(_ context.Context, id string, hash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.ResetTokenHash = &hash
	u.ResetTokenExp = &expiresAt
	s.users[id] = u
	return nil
}

func (s *memUserStore) ClearResetToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.ResetTokenHash = nil
	u.ResetTokenExp = nil
	s.users[id] = u
	return nil
}

func (s *memUserStore) FindByResetToken(_ context.Context, hash string, now time.Time) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == hash &&
			u.ResetTokenExp != nil && u.ResetTokenExp.After(now) {
			return u.Sanitized(), nil
		}
	}
	return model.User{}, model.ErrResetTokenInvalid
}

func (s *memUserStore) UpdateProfile(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	for id, other := range s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return model.ErrDuplicateEmail
		}
	}
	current.Username = u.Username
	current.Email = u.Email
	current.Avatar = u.Avatar
	current.Role = u.Role
	s.users[u.ID] = current
	return nil
}

func (s *memUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

func (s *memUserStore) promote(t *testing.T, id string, role model.Role) {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	require.True(t, ok)
	u.Role = role
	s.users[id] = u
}

type memMediaStore struct{}

func (memMediaStore) Store(_ context.Context, key string, _ string, _ io.Reader) (media.Object, error) {
	return media.Object{ID: key, URL: "https://cdn.test/" + key}, nil
}

func (memMediaStore) Delete(context.Context, string) error { return nil }

type memMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (m *memMailer) Send(_ context.Context, _ string, _ string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bodies = append(m.bodies, body)
	return nil
}

// lastResetSecret pulls the raw reset secret out of the most recent mail.
func (m *memMailer) lastResetSecret(t *testing.T, baseURL string) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.bodies)
	prefix := baseURL + "/api/password/reset/"
	for _, line := range strings.Split(m.bodies[len(m.bodies)-1], "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix)
		}
	}
	t.Fatalf("no reset URL in mail body: %q", m.bodies[len(m.bodies)-1])
	return ""
}

const testBaseURL = "https://shop.test"

func newServer(t *testing.T) (*httptest.Server, *memUserStore, *memMailer) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:        "integration-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    72 * time.Hour,
		ResetTokenTTL:    5 * time.Minute,
		PublicBaseURL:    testBaseURL,
		MaxAvatarSize:    5 * 1024 * 1024,
		CORSOrigins:      []string{"http://localhost:3000"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		FailFast:         false,
	}

	store := newMemUserStore()
	mailer := &memMailer{}
	guard := password.NewGuard("")

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	accounts := service.NewAccountService(store, guard, memMediaStore{})
	resets := service.NewResetService(store, guard, mailer, cfg.PublicBaseURL, cfg.ResetTokenTTL)

	gate := middleware.NewAuthMiddleware(tokens, accounts)
	authHandler := handler.NewAuthHandler(accounts, tokens, cfg.MaxAvatarSize)
	userHandler := handler.NewUserHandler(accounts, resets, tokens, cfg.MaxAvatarSize)

	server := httptest.NewServer(router.New(cfg, gate, authHandler, userHandler))
	t.Cleanup(server.Close)

	return server, store, mailer
}

func avatarPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func doRequest(t *testing.T, req *http.Request) (*http.Response, model.Response) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var envelope model.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func registerUser(t *testing.T, serverURL string, username string, email string, pass string) (*http.Response, model.Response) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("username", username))
	require.NoError(t, mw.WriteField("email", email))
	require.NoError(t, mw.WriteField("password", pass))

	part, err := mw.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(avatarPNG(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/register", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return doRequest(t, req)
}

func jsonRequest(t *testing.T, method string, url string, body string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authedRequest(t *testing.T, method string, url string, token string, body io.Reader) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func authedJSONRequest(t *testing.T, method string, url string, body string, token string) *http.Request {
	t.Helper()

	req := jsonRequest(t, method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func cookieByName(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", name)
	return nil
}
