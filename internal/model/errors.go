package model

import "errors"

var (
	// User related errors
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// Token related errors
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")

	// Reset flow errors
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
	ErrPasswordMismatch  = errors.New("passwords do not match")
)
