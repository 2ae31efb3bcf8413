package domain

import (
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// hashSalt is a deployment-stable salt: hashes must be deterministic so
// keys can be found by an indexed equality lookup.
var hashSalt = []byte("crescendo.apikey.v1")

// HashAPIKey derives the stored lookup hash for an API key secret.
func HashAPIKey(secret string) string {
	digest := argon2.IDKey([]byte(secret), hashSalt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(digest)
}
