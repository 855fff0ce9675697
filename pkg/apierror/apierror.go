package apierror

import "fmt"

// APIError carries the HTTP status and the client-facing message for a failed
// request. The message is rendered verbatim into the response envelope, so it
// must already be phrased for end users.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: status}
}
