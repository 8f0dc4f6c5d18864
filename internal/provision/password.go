package provision

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// passwordSuffix guarantees the minimum complexity policy: at least one
// uppercase letter, one digit, and one symbol.
const passwordSuffix = "A1!"

// GeneratePassword returns a non-guessable initial password: 18
// cryptographically random bytes, base64url-encoded, truncated to 10
// characters, with a fixed complexity suffix. Total length is 13.
func GeneratePassword() (string, error) {
	raw := make([]byte, 18)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded[:10] + passwordSuffix, nil
}
