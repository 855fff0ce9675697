package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Avatar references an image held by the external media store. The JSON field
// names follow the storefront client contract.
type Avatar struct {
	ID  string `json:"public_id"`
	URL string `json:"url"`
}

// User is the persisted account record. The credential and reset-token fields
// never serialize: everything the JSON encoder can see is safe to return to a
// client as the "sanitized user".
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordCipher string     `json:"-"`
	Avatar         Avatar     `json:"avatar"`
	Role           Role       `json:"role"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ResetTokenHash *string    `json:"-"`
	ResetTokenExp  *time.Time `json:"-"`
}

// Sanitized strips the secret-bearing fields. The JSON tags already hide them,
// but handlers return users through this so a future refactor of the encoding
// cannot leak a cipher.
func (u User) Sanitized() User {
	u.PasswordCipher = ""
	u.ResetTokenHash = nil
	u.ResetTokenExp = nil
	return u
}
