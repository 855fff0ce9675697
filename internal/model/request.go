package model

// Login, forgot and reset payloads are validated by hand in the handlers
// because their rejection messages are part of the client contract. The
// payloads below carry validation tags instead; their messages are free-form.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest updates the caller's own profile. Empty fields keep
// their current values; the avatar arrives as an optional multipart file
// alongside these fields.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"omitempty,max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// AdminUpdateUserRequest lets an admin rewrite another user's profile and role.
type AdminUpdateUserRequest struct {
	Username string `json:"username" validate:"omitempty,max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user admin"`
}
