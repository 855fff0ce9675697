package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go-shop-auth/internal/media"
	"go-shop-auth/internal/model"
)

// memStore is an in-memory UserStore with the same semantics the Postgres
// repository provides: case-insensitive unique email, expiry-checked reset
// token lookup, last-write-wins updates.
type memStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemStore() *memStore {
	return &memStore{users: map[string]model.User{}}
}

func (s *memStore) Create(_ context.Context, u model.User) error {
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

func (s *memStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u.Sanitized(), nil
}

func (s *memStore) FindByIDWithSecret(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := s.FindByEmailWithSecret(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	return u.Sanitized(), nil
}

func (s *memStore) FindByEmailWithSecret(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memStore) UpdatePassword(_ context.Context, id string, cipher string) error {
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

func (s *memStore) SetResetToken(_ context.Context, id string, hash string, expiresAt time.Time) error {
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

func (s *memStore) ClearResetToken(_ context.Context, id string) error {
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

func (s *memStore) FindByResetToken(_ context.Context, hash string, now time.Time) (model.User, error) {
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

func (s *memStore) UpdateProfile(_ context.Context, u model.User) error {
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

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// fakeMedia records stores and deletes without talking to any backend.
type fakeMedia struct {
	mu        sync.Mutex
	stored    []string
	deleted   []string
	failStore bool
}

func (m *fakeMedia) Store(_ context.Context, key string, _ string, _ io.Reader) (media.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failStore {
		return media.Object{}, errors.New("media backend unavailable")
	}
	m.stored = append(m.stored, key)
	return media.Object{ID: key, URL: "https://cdn.test/" + key}, nil
}

func (m *fakeMedia) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, id)
	return nil
}

// fakeNotifier captures outgoing mail so tests can inspect recipients and
// extract the reset URL from the body.
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentMail
	failSend bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (n *fakeNotifier) Send(_ context.Context, to string, subject string, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failSend {
		return errors.New("smtp unreachable")
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}
