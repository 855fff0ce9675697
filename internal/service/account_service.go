package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-shop-auth/internal/media"
	"go-shop-auth/internal/model"
	"go-shop-auth/internal/password"
	"go-shop-auth/internal/util"
	"go-shop-auth/pkg/apierror"
)

const avatarWidth = 150

// AccountService owns the credential store: identity creation, password
// verification and updates, profile changes and the admin operations. Avatar
// bytes pass through the media store; the database only keeps the reference.
type AccountService struct {
	users UserStore
	guard *password.Guard
	media media.Store
}

func NewAccountService(users UserStore, guard *password.Guard, mediaStore media.Store) *AccountService {
	return &AccountService{users: users, guard: guard, media: mediaStore}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Avatar   []byte
}

type ProfileInput struct {
	Username string
	Email    string
	Avatar   []byte // optional; empty keeps the current avatar
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" || email == "" {
		return model.User{}, apierror.New("BAD_REQUEST", "You must provide input to all fields.", http.StatusBadRequest)
	}
	if len(in.Avatar) == 0 {
		return model.User{}, apierror.New("BAD_REQUEST", "No image uploaded.", http.StatusBadRequest)
	}
	if len(in.Password) < 6 {
		// Message (typo included) predates this service; clients match on it.
		return model.User{}, apierror.New("BAD_REQUEST", "Password must be at least 6 charaters long.", http.StatusBadRequest)
	}

	avatar, err := s.storeAvatar(ctx, in.Avatar)
	if err != nil {
		return model.User{}, err
	}

	cipher, err := s.guard.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		PasswordCipher: cipher,
		Avatar:         avatar,
		Role:           model.RoleUser,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.discardMedia(ctx, avatar.ID)
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.User{}, apierror.New("ALREADY_EXISTS", "User already exists!", http.StatusBadRequest)
		}
		return model.User{}, err
	}

	return user.Sanitized(), nil
}

func (s *AccountService) Login(ctx context.Context, email string, plain string) (model.User, error) {
	if strings.TrimSpace(email) == "" {
		return model.User{}, apierror.New("BAD_REQUEST", "Email must be provided.", http.StatusBadRequest)
	}
	if len(plain) < 6 {
		return model.User{}, apierror.New("BAD_REQUEST", "Password must be at least 6 characters long.", http.StatusBadRequest)
	}

	user, err := s.users.FindByEmailWithSecret(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.New("BAD_REQUEST",
			"There is no user with those credentials.\nYou first must register.", http.StatusBadRequest)
	}
	if err != nil {
		return model.User{}, err
	}

	ok, upgrade := s.guard.Verify(user.PasswordCipher, plain)
	if !ok {
		return model.User{}, apierror.New("BAD_REQUEST", "Invalid Password.", http.StatusBadRequest)
	}

	if upgrade {
		s.rehash(ctx, user.ID, plain)
	}

	return user.Sanitized(), nil
}

// VerifyPassword checks a candidate against the stored credential without any
// side effects beyond the transparent legacy re-hash.
func (s *AccountService) VerifyPassword(ctx context.Context, userID string, plain string) (bool, error) {
	user, err := s.users.FindByIDWithSecret(ctx, userID)
	if err != nil {
		return false, err
	}

	ok, upgrade := s.guard.Verify(user.PasswordCipher, plain)
	if ok && upgrade {
		s.rehash(ctx, user.ID, plain)
	}
	return ok, nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return user.Sanitized(), nil
}

func (s *AccountService) UpdatePassword(ctx context.Context, userID string, oldPlain string, newPlain string) (model.User, error) {
	user, err := s.users.FindByIDWithSecret(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	ok, _ := s.guard.Verify(user.PasswordCipher, oldPlain)
	if !ok {
		return model.User{}, apierror.New("BAD_REQUEST", "Password is invalid.", http.StatusBadRequest)
	}

	if len(newPlain) < 6 {
		return model.User{}, apierror.New("BAD_REQUEST", "Your password must be at least 6 characters long.", http.StatusBadRequest)
	}

	cipher, err := s.guard.Hash(newPlain)
	if err != nil {
		return model.User{}, err
	}

	if err := s.users.UpdatePassword(ctx, userID, cipher); err != nil {
		return model.User{}, err
	}

	return user.Sanitized(), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if username := strings.TrimSpace(in.Username); username != "" {
		user.Username = username
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		user.Email = email
	}

	oldAvatarID := ""
	if len(in.Avatar) > 0 {
		avatar, err := s.storeAvatar(ctx, in.Avatar)
		if err != nil {
			return model.User{}, err
		}
		oldAvatarID = user.Avatar.ID
		user.Avatar = avatar
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if len(in.Avatar) > 0 {
			s.discardMedia(ctx, user.Avatar.ID)
		}
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.User{}, apierror.New("ALREADY_EXISTS", "User already exists!", http.StatusBadRequest)
		}
		return model.User{}, err
	}

	// The old image only becomes garbage once the new reference is durable.
	s.discardMedia(ctx, oldAvatarID)

	return user.Sanitized(), nil
}

func (s *AccountService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

func (s *AccountService) AdminUpdate(ctx context.Context, userID string, username string, email string, role model.Role) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if username = strings.TrimSpace(username); username != "" {
		user.Username = username
	}
	if email = strings.TrimSpace(email); email != "" {
		user.Email = email
	}
	if role != "" {
		if !role.Valid() {
			return model.User{}, apierror.New("BAD_REQUEST", "Invalid role.", http.StatusBadRequest)
		}
		user.Role = role
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.User{}, apierror.New("ALREADY_EXISTS", "User already exists!", http.StatusBadRequest)
		}
		return model.User{}, err
	}

	return user.Sanitized(), nil
}

func (s *AccountService) Delete(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	s.discardMedia(ctx, user.Avatar.ID)

	return s.users.Delete(ctx, userID)
}

func (s *AccountService) storeAvatar(ctx context.Context, data []byte) (model.Avatar, error) {
	scaled, err := util.ScaleAvatar(data, avatarWidth)
	if err != nil {
		return model.Avatar{}, apierror.New("BAD_REQUEST", "Uploaded file is not a valid image.", http.StatusBadRequest)
	}

	key := fmt.Sprintf("avatars/%s.jpg", uuid.NewString())
	obj, err := s.media.Store(ctx, key, "image/jpeg", bytes.NewReader(scaled))
	if err != nil {
		return model.Avatar{}, fmt.Errorf("store avatar: %w", err)
	}

	return model.Avatar{ID: obj.ID, URL: obj.URL}, nil
}

func (s *AccountService) discardMedia(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.media.Delete(ctx, id); err != nil {
		slog.Warn("failed to delete media object", "id", id, "error", err)
	}
}

func (s *AccountService) rehash(ctx context.Context, userID string, plain string) {
	cipher, err := s.guard.Hash(plain)
	if err != nil {
		slog.Warn("failed to re-hash legacy credential", "user_id", userID, "error", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, userID, cipher); err != nil {
		slog.Warn("failed to persist re-hashed credential", "user_id", userID, "error", err)
	}
}
