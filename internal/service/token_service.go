package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-shop-auth/internal/model"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenService signs and verifies the stateless access and refresh tokens.
// Both kinds share one process-wide secret; the typ claim tells them apart.
// There is no server-side token record, so rotating the secret is the only
// way to invalidate outstanding tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL time.Duration, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return s.sign(userID, TokenAccess, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return s.sign(userID, TokenRefresh, s.refreshTTL)
}

func (s *TokenService) sign(userID string, kind string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"typ": kind,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and token kind, and returns the subject
// identity id.
func (s *TokenService) Verify(tokenString string, kind string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", model.ErrTokenMissing
	}

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenSignature
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", model.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", model.ErrTokenSignature
		default:
			return "", model.ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return "", model.ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", model.ErrTokenMalformed
	}

	typ, _ := claims["typ"].(string)
	if typ != kind {
		return "", model.ErrTokenMalformed
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", model.ErrTokenMalformed
	}

	return sub, nil
}
