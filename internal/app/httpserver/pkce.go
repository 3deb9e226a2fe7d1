package httpserver

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// verifyPKCE checks the presented verifier against the stored S256
// challenge: base64url(sha256(verifier)) must equal the challenge.
// Constant-time comparison, an empty challenge never verifies.
func verifyPKCE(verifier string, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	sum := sha256.Sum256([]byte(verifier))
	computed := base64.RawURLEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
