package service

import (
	"context"
	"time"

	"go-shop-auth/internal/model"
)

// UserStore is the persistence surface the services need. It is satisfied by
// repository.UserRepository and by in-memory fakes in tests.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByEmailWithSecret(ctx context.Context, email string) (model.User, error)
	FindByIDWithSecret(ctx context.Context, id string) (model.User, error)
	UpdatePassword(ctx context.Context, id string, cipher string) error
	SetResetToken(ctx context.Context, id string, hash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	FindByResetToken(ctx context.Context, hash string, now time.Time) (model.User, error)
	UpdateProfile(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
}
