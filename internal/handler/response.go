package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-shop-auth/internal/model"
	"go-shop-auth/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, resp model.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeError maps service errors onto the response envelope. Services return
// *apierror.APIError when the message is pinned by the client contract;
// sentinel errors cover the generic cases.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "Internal Server Error."

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		msg = apiErr.Message
	case errors.Is(err, model.ErrDuplicateEmail):
		status = http.StatusBadRequest
		msg = "User already exists!"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		msg = "User doesn't exists."
	case errors.Is(err, model.ErrResetTokenInvalid):
		status = http.StatusBadRequest
		msg = "Password reset token is invalid\nor has been expired."
	case errors.Is(err, model.ErrPasswordMismatch):
		status = http.StatusBadRequest
		msg = "Passwords do not match."
	case errors.Is(err, model.ErrTokenMissing):
		status = http.StatusUnauthorized
		msg = "You are not authenticated!"
	case errors.Is(err, model.ErrTokenMalformed),
		errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenSignature):
		status = http.StatusForbidden
		msg = "Invalid Authorization"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.Response{Success: false, Msg: msg})
}
