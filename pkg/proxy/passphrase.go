// Package proxy holds the narrative provider credential server-side and
// forwards chat-completion requests for clients holding a proxy token.
package proxy

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const hashPrefix = "v2:"

// ErrInvalidPassphrase is returned when a passphrase does not match the stored hash
var ErrInvalidPassphrase = errors.New("invalid passphrase")

// prehash hashes the passphrase with SHA-256 so inputs longer than bcrypt's
// 72-byte limit are not truncated
func prehash(passphrase string) string {
	hash := sha256.Sum256([]byte(passphrase))
	return hex.EncodeToString(hash[:])
}

// HashPassphrase returns a "v2:" prefixed bcrypt hash for proxy.passphrase_hash
func HashPassphrase(passphrase string) (string, error) {
	if passphrase == "" {
		return "", errors.New("passphrase must not be empty")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(prehash(passphrase)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passphrase: %w", err)
	}

	return hashPrefix + string(hashed), nil
}

// VerifyPassphrase compares a passphrase with a stored hash. Hashes without
// the "v2:" prefix are treated as plain bcrypt hashes.
func VerifyPassphrase(hash, passphrase string) error {
	var err error
	if strings.HasPrefix(hash, hashPrefix) {
		err = bcrypt.CompareHashAndPassword([]byte(strings.TrimPrefix(hash, hashPrefix)), []byte(prehash(passphrase)))
	} else {
		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase))
	}
	if err != nil {
		return ErrInvalidPassphrase
	}
	return nil
}
