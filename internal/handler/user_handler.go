package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-shop-auth/internal/middleware"
	"go-shop-auth/internal/model"
	"go-shop-auth/internal/service"
	"go-shop-auth/pkg/apierror"
)

type resetFlow interface {
	RequestReset(ctx context.Context, email string) (string, error)
	CompleteReset(ctx context.Context, rawSecret string, newPassword string, confirmPassword string) (model.User, error)
}

type UserHandler struct {
	accounts      accountService
	resets        resetFlow
	tokens        tokenIssuer
	maxAvatarSize int64
}

func NewUserHandler(accounts accountService, resets resetFlow, tokens tokenIssuer, maxAvatarSize int64) *UserHandler {
	return &UserHandler{accounts: accounts, resets: resets, tokens: tokens, maxAvatarSize: maxAvatarSize}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, model.Response{Success: false, Msg: "You are not authenticated!"})
		return
	}

	user, err := h.accounts.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Success", User: &user})
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Invalid request body."})
		return
	}

	if strings.TrimSpace(payload.Email) == "" {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Email must be provided."})
		return
	}

	email, err := h.resets.RequestReset(r.Context(), payload.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: fmt.Sprintf("Email sent to: %s", email)})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Invalid request body."})
		return
	}

	rawSecret := chi.URLParam(r, "resetToken")
	user, err := h.resets.CompleteReset(r.Context(), rawSecret, payload.Password, payload.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Password reset success.", User: &user})
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, model.Response{Success: false, Msg: "You are not authenticated!"})
		return
	}

	var payload model.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Invalid request body."})
		return
	}

	user, err := h.accounts.UpdatePassword(r.Context(), identity.ID, payload.OldPassword, payload.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Response{
		Success:     true,
		Msg:         "Password updated successfully.",
		User:        &user,
		AccessToken: accessToken,
	})
}

// UpdateProfile accepts multipart (fields plus an optional replacement
// avatar) or plain JSON when no image changes hands.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, model.Response{Success: false, Msg: "You are not authenticated!"})
		return
	}

	var payload model.UpdateProfileRequest
	var avatar []byte

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxAvatarSize + 1<<20); err != nil {
			writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Invalid request body."})
			return
		}
		payload.Username = r.FormValue("username")
		payload.Email = r.FormValue("email")

		if file, _, err := r.FormFile("avatar"); err == nil {
			defer file.Close()
			data, readErr := readLimited(file, h.maxAvatarSize)
			if readErr != nil {
				writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Image is too large."})
				return
			}
			avatar = data
		}

		if err := validate.Struct(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: err.Error()})
			return
		}
	} else if !decodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), identity.ID, service.ProfileInput{
		Username: payload.Username,
		Email:    payload.Email,
		Avatar:   avatar,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Profile Updated.", User: &user})
}

func (h *UserHandler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Success", Users: users})
}

func (h *UserHandler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, notFoundWithID(err, id))
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Success", User: &user})
}

func (h *UserHandler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id := chi.URLParam(r, "id")

	var payload model.AdminUpdateUserRequest
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.accounts.AdminUpdate(r.Context(), id, payload.Username, payload.Email, payload.Role)
	if err != nil {
		writeError(w, notFoundWithID(err, id))
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Profile Updated", User: &user})
}

func (h *UserHandler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, notFoundWithID(err, id))
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "User deleted."})
}

func notFoundWithID(err error, id string) error {
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.New("NOT_FOUND", fmt.Sprintf("User not found with id: %s", id), http.StatusNotFound)
	}
	return err
}
