package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-shop-auth/internal/model"
	"go-shop-auth/internal/service"
)

const refreshCookieName = "refresh_token"

type accountService interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Login(ctx context.Context, email string, password string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdatePassword(ctx context.Context, id string, oldPlain string, newPlain string) (model.User, error)
	UpdateProfile(ctx context.Context, id string, in service.ProfileInput) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	AdminUpdate(ctx context.Context, id string, username string, email string, role model.Role) (model.User, error)
	Delete(ctx context.Context, id string) error
}

type tokenIssuer interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	Verify(tokenString string, kind string) (string, error)
	RefreshTTL() time.Duration
}

type AuthHandler struct {
	accounts      accountService
	tokens        tokenIssuer
	maxAvatarSize int64
}

func NewAuthHandler(accounts accountService, tokens tokenIssuer, maxAvatarSize int64) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, maxAvatarSize: maxAvatarSize}
}

// Register creates an account from a multipart payload (username, email,
// password fields plus an avatar file) and signs the caller straight in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := r.ParseMultipartForm(h.maxAvatarSize + 1<<20); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Invalid request body."})
		return
	}

	avatar, ok := h.readAvatar(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Avatar:   avatar,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.issueSession(w, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.Response{
		Success:     true,
		Msg:         "Registered Successfully.",
		User:        &user,
		AccessToken: accessToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Invalid request body."})
		return
	}

	user, err := h.accounts.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.issueSession(w, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.Response{
		Success:     true,
		Msg:         "Logged In.",
		User:        &user,
		AccessToken: accessToken,
	})
}

// Refresh trades a valid refresh cookie for a fresh access token. The
// original server set the cookie but never consumed it; this closes the loop.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusUnauthorized, model.Response{Success: false, Msg: "You are not authenticated!"})
		return
	}

	userID, err := h.tokens.Verify(cookie.Value, service.TokenRefresh)
	if err != nil {
		writeJSON(w, http.StatusForbidden, model.Response{Success: false, Msg: "Invalid Authorization"})
		return
	}

	// The subject must still exist; a deleted account keeps no session.
	if _, err := h.accounts.GetByID(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusForbidden, model.Response{Success: false, Msg: "Invalid Authorization"})
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Success", AccessToken: accessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	writeJSON(w, http.StatusOK, model.Response{Success: true, Msg: "Logged out."})
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, userID string) (string, error) {
	accessToken, err := h.tokens.IssueAccessToken(userID)
	if err != nil {
		return "", err
	}

	refreshToken, err := h.tokens.IssueRefreshToken(userID)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	return accessToken, nil
}

func (h *AuthHandler) readAvatar(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	file, _, err := r.FormFile("avatar")
	if err != nil {
		// Absent avatar is a validation problem the service reports with
		// its own message; pass the empty slice through.
		return nil, true
	}
	defer file.Close()

	data, err := readLimited(file, h.maxAvatarSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Image is too large."})
		return nil, false
	}

	return data, true
}

// readLimited reads at most limit bytes and errors when the source holds more.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("payload exceeds %d bytes", limit)
	}
	return data, nil
}
