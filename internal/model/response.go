package model

// Response is the single envelope every endpoint answers with. Msg is always
// present; the remaining fields appear per endpoint.
type Response struct {
	Success     bool   `json:"success"`
	Msg         string `json:"msg"`
	User        *User  `json:"user,omitempty"`
	Users       []User `json:"users,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}
