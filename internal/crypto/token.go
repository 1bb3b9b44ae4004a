package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateOpaqueToken returns a 32-byte random token, base64url-encoded, and
// its SHA-256 hex digest for storage. Plaintext is never persisted — only
// the hash is stored, and the raw token is returned to the caller exactly
// once (team invitation tokens).
func GenerateOpaqueToken() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("reading random bytes: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	hash = HashToken(raw)
	return raw, hash, nil
}

// HashToken returns the SHA-256 hex digest of a raw opaque token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// APIKeyEnvironment selects the prefix stamped on a generated API key.
type APIKeyEnvironment string

const (
	APIKeyLive APIKeyEnvironment = "live"
	APIKeyTest APIKeyEnvironment = "test"
)

// GenerateAPIKey creates a random API key of the form cv_{live|test}_<hex>,
// its SHA-256 hash for storage, and a short display prefix.
func GenerateAPIKey(env APIKeyEnvironment) (raw, hash, displayPrefix string, err error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("reading random bytes: %w", err)
	}
	raw = fmt.Sprintf("cv_%s_%s", env, hex.EncodeToString(b))
	hash = HashToken(raw)
	displayPrefix = raw[:12]
	return raw, hash, displayPrefix, nil
}
