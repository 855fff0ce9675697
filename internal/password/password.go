// Package password owns the protected representation of account credentials.
//
// New credentials are bcrypt hashes. Records imported from the previous
// deployment still hold a reversible AES-GCM ciphertext under a server-held
// key; Verify recognises those by prefix, decrypts and compares, and reports
// that the record should be re-protected so callers can upgrade it in place.
package password

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost   = 12
	legacyPrefix = "aes:"
	nonceSize    = 12
)

var ErrNoLegacyKey = errors.New("legacy password key not configured")

type Guard struct {
	legacyKey []byte
}

// NewGuard builds a Guard. legacyKey may be empty when no records from the
// old reversible scheme remain; Verify then rejects any legacy ciphertext.
func NewGuard(legacyKey string) *Guard {
	g := &Guard{}
	if legacyKey != "" {
		sum := sha256.Sum256([]byte(legacyKey))
		g.legacyKey = sum[:]
	}
	return g
}

func (g *Guard) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether candidate matches the stored credential. upgrade is
// true when the match succeeded against a legacy ciphertext and the record
// should be re-hashed with the current scheme.
func (g *Guard) Verify(stored string, candidate string) (ok bool, upgrade bool) {
	if strings.HasPrefix(stored, legacyPrefix) {
		plain, err := g.decryptLegacy(stored)
		if err != nil {
			return false, false
		}
		match := subtle.ConstantTimeCompare([]byte(plain), []byte(candidate)) == 1
		return match, match
	}

	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate))
	return err == nil, false
}

// EncryptLegacy produces a ciphertext in the old reversible format. It exists
// for migration tooling and tests; the service never writes new legacy values.
func (g *Guard) EncryptLegacy(plain string) (string, error) {
	gcm, err := g.legacyGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return legacyPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (g *Guard) decryptLegacy(stored string) (string, error) {
	gcm, err := g.legacyGCM()
	if err != nil {
		return "", err
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(stored, legacyPrefix))
	if err != nil {
		return "", fmt.Errorf("decode legacy cipher: %w", err)
	}
	if len(raw) < nonceSize {
		return "", errors.New("legacy cipher too short")
	}

	plain, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt legacy cipher: %w", err)
	}
	return string(plain), nil
}

func (g *Guard) legacyGCM() (cipher.AEAD, error) {
	if len(g.legacyKey) == 0 {
		return nil, ErrNoLegacyKey
	}

	block, err := aes.NewCipher(g.legacyKey)
	if err != nil {
		return nil, fmt.Errorf("init legacy cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
