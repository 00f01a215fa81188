package identity

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// Fingerprint returns a base58-encoded SHA256 digest of a session token. Raw
// tokens never appear in logs, security events, or the revocation set; only
// fingerprints do.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base58.Encode(sum[:])
}
