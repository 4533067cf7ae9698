// Package keys mints and hashes API keys. Plaintext keys are shown once;
// only the HMAC-SHA256 digest and a display prefix are persisted.
package keys

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Plaintext keys look like cpk_live_<base64url>.
const (
	Prefix    = "cpk_live_"
	PrefixLen = 12
)

// Generated carries the outcome of minting a key.
type Generated struct {
	Plaintext string
	KeyPrefix string
	KeyHash   string
}

// Generate mints a new API key hashed with the server secret.
func Generate(secret string) (Generated, error) {
	if secret == "" {
		return Generated{}, fmt.Errorf("keys: API_KEY_HMAC_SECRET is not configured")
	}
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return Generated{}, fmt.Errorf("keys: read entropy: %w", err)
	}
	plaintext := Prefix + base64.RawURLEncoding.EncodeToString(token)
	return Generated{
		Plaintext: plaintext,
		KeyPrefix: plaintext[:PrefixLen],
		KeyHash:   Hash(plaintext, secret),
	}, nil
}

// Hash computes the hex HMAC-SHA256 digest of a plaintext key.
func Hash(plaintext, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// Mask returns the display form of a stored key prefix.
func Mask(keyPrefix string) string {
	return keyPrefix + "..."
}
