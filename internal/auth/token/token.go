// Package token generates and fingerprints opaque refresh tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Generate returns size random bytes encoded as URL-safe base64, for
// use as an opaque refresh token handed to the client.
func Generate(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint returns the hex SHA-256 of a token. Only fingerprints
// are persisted; the raw token never touches the database.
func Fingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
