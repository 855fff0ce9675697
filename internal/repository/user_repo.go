package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-shop-auth/internal/model"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, avatar_id, avatar_url, role, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_cipher, avatar_id, avatar_url, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Username, u.Email, u.PasswordCipher, u.Avatar.ID, u.Avatar.URL, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar.ID, &u.Avatar.URL, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar.ID, &u.Avatar.URL, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByEmailWithSecret is the login accessor. It is the only email lookup
// that hydrates the password cipher.
func (r *UserRepository) FindByEmailWithSecret(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_cipher FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email)).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar.ID, &u.Avatar.URL, &u.Role, &u.CreatedAt, &u.UpdatedAt,
			&u.PasswordCipher)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByIDWithSecret(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_cipher FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar.ID, &u.Avatar.URL, &u.Role, &u.CreatedAt, &u.UpdatedAt,
			&u.PasswordCipher)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, cipher string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_cipher = $2, updated_at = $3 WHERE id = $1`,
		id, cipher, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id string, hash string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = $4 WHERE id = $1`,
		id, hash, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

// FindByResetToken matches a stored reset-token hash that has not expired yet.
// The expiry comparison happens here so that lookup and window check are one
// round trip.
func (r *UserRepository) FindByResetToken(ctx context.Context, hash string, now time.Time) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`, hash, now).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar.ID, &u.Avatar.URL, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrResetTokenInvalid
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by reset token: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET username = $2, email = $3, avatar_id = $4, avatar_url = $5, role = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, u.Username, u.Email, u.Avatar.ID, u.Avatar.URL, u.Role, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Avatar.ID, &u.Avatar.URL, &u.Role,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
