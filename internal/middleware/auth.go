package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-shop-auth/internal/model"
	"go-shop-auth/internal/service"
)

type tokenVerifier interface {
	Verify(tokenString string, kind string) (string, error)
}

type identityLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

type contextKey string

const identityContextKey contextKey = "identity"

// AuthMiddleware is the per-request authorization gate: bearer extraction,
// token verification, identity load, and role enforcement.
type AuthMiddleware struct {
	tokens   tokenVerifier
	accounts identityLoader
}

func NewAuthMiddleware(tokens tokenVerifier, accounts identityLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// RequireAuth halts the request unless a valid bearer access token maps to an
// existing identity. A missing or non-bearer header stops processing before
// any verification runs.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeEnvelope(w, http.StatusUnauthorized, "You are not authenticated!")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		userID, err := m.tokens.Verify(token, service.TokenAccess)
		if err != nil {
			writeEnvelope(w, http.StatusForbidden, "Invalid Authorization")
			return
		}

		user, err := m.accounts.GetByID(r.Context(), userID)
		if err != nil {
			writeEnvelope(w, http.StatusForbidden, "Invalid Authorization")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole compares the authenticated identity's stored role against the
// expected one.
func (m *AuthMiddleware) RequireRole(expected model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := IdentityFromContext(r.Context())
			if !ok {
				writeEnvelope(w, http.StatusUnauthorized, "You are not authenticated!")
				return
			}

			if user.Role != expected {
				writeEnvelope(w, http.StatusForbidden, "You are not authorized to access this resource!")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func IdentityFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(identityContextKey).(*model.User)
	return user, ok
}
