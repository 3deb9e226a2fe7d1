package random

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Opaque returns an unguessable url-safe value of byteLen random bytes.
// Used for authorization codes, token values and client secrets.
func Opaque(byteLen int) (string, error) {
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random.Opaque: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
